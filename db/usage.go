package db

import (
	"context"
	"fmt"
	"time"
)

// UsageStats summarizes completion token usage of "ai" messages
type UsageStats struct {
	TotalTokens   int64              `json:"total_tokens"`
	TotalMessages int64              `json:"total_messages"`
	ModelStats    []*ModelUsageStats `json:"models"`
	DailyStats    []*DailyUsageStats `json:"daily"`
}

// ModelUsageStats represents usage for one model
type ModelUsageStats struct {
	Model        string `json:"model"`
	TotalTokens  int64  `json:"total_tokens"`
	MessageCount int64  `json:"message_count"`
}

// DailyUsageStats represents usage for one UTC day
type DailyUsageStats struct {
	Date         string `json:"date"` // 2006-01-02
	TotalTokens  int64  `json:"total_tokens"`
	MessageCount int64  `json:"message_count"`
}

// GetUsageStats returns token usage of ai messages written in [start, end]
func (db *DB) GetUsageStats(ctx context.Context, start, end time.Time) (*UsageStats, error) {
	start, end = start.UTC(), end.UTC()
	stats := &UsageStats{
		ModelStats: []*ModelUsageStats{},
		DailyStats: []*DailyUsageStats{},
	}

	err := db.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(tokens_used), 0), COUNT(*)
		FROM messages
		WHERE sender = 'ai' AND timestamp >= ? AND timestamp <= ?
	`, start, end).Scan(&stats.TotalTokens, &stats.TotalMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to get total usage: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT model, COALESCE(SUM(tokens_used), 0) AS total_tokens, COUNT(*)
		FROM messages
		WHERE sender = 'ai' AND timestamp >= ? AND timestamp <= ?
		GROUP BY model
		ORDER BY total_tokens DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get model usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &ModelUsageStats{}
		if err := rows.Scan(&m.Model, &m.TotalTokens, &m.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan model usage: %w", err)
		}
		stats.ModelStats = append(stats.ModelStats, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get model usage: %w", err)
	}

	// timestamp is stored as "2006-01-02 15:04:05..." so the first ten characters are the day
	daily, err := db.conn.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, COALESCE(SUM(tokens_used), 0), COUNT(*)
		FROM messages
		WHERE sender = 'ai' AND timestamp >= ? AND timestamp <= ?
		GROUP BY day
		ORDER BY day ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily usage: %w", err)
	}
	defer daily.Close()

	for daily.Next() {
		d := &DailyUsageStats{}
		if err := daily.Scan(&d.Date, &d.TotalTokens, &d.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		stats.DailyStats = append(stats.DailyStats, d)
	}
	if err := daily.Err(); err != nil {
		return nil, fmt.Errorf("failed to get daily usage: %w", err)
	}

	return stats, nil
}
