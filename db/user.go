package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EnsureUser returns the id of username, inserting the row if it does not exist yet
func (db *DB) EnsureUser(ctx context.Context, username string) (int64, error) {
	if strings.TrimSpace(username) == "" {
		return 0, errors.New("username is required")
	}

	if _, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (username) VALUES (?) ON CONFLICT(username) DO NOTHING",
		username,
	); err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	var id int64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ?", username,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get user ID: %w", err)
	}
	return id, nil
}

// CountUsers returns the number of rows in users
func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
