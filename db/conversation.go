package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const conversationColumns = "id, user_id, start_time, last_updated, title"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var conv Conversation
	var title sql.NullString
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.StartTime, &conv.LastUpdated, &title); err != nil {
		return nil, err
	}
	conv.Title = title.String
	return &conv, nil
}

// CreateConversation creates a new conversation owned by userID
func (db *DB) CreateConversation(ctx context.Context, userID int64) (*Conversation, error) {
	now := db.timestamp()
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO conversations (user_id, start_time, last_updated) VALUES (?, ?, ?)",
		userID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation ID: %w", err)
	}

	return &Conversation{
		ID:          id,
		UserID:      userID,
		StartTime:   now,
		LastUpdated: now,
	}, nil
}

// GetConversation retrieves a conversation by ID
func (db *DB) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	conv, err := scanConversation(db.conn.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// GetUserConversation retrieves a conversation only if userID owns it
func (db *DB) GetUserConversation(ctx context.Context, id, userID int64) (*Conversation, error) {
	conv, err := scanConversation(db.conn.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id = ? AND user_id = ?", id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d for user %d: %w", id, userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// ResolveConversation returns the conversation the next turn should be written to.
// A nil requestedID, or one that does not exist or belongs to another user, yields
// a freshly created conversation and created=true. Otherwise the requested
// conversation is touched and returned.
func (db *DB) ResolveConversation(ctx context.Context, userID int64, requestedID *int64) (conv *Conversation, created bool, err error) {
	if requestedID != nil {
		conv, err = db.GetUserConversation(ctx, *requestedID, userID)
		switch {
		case err == nil:
			if err := db.TouchConversation(ctx, conv.ID); err != nil {
				return nil, false, err
			}
			return db.reloadConversation(ctx, conv.ID)
		case !errors.Is(err, ErrNotFound):
			return nil, false, err
		}
	}

	conv, err = db.CreateConversation(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

func (db *DB) reloadConversation(ctx context.Context, id int64) (*Conversation, bool, error) {
	conv, err := db.GetConversation(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return conv, false, nil
}

// ListConversations retrieves a user's conversations, most recently updated first
func (db *DB) ListConversations(ctx context.Context, userID int64, limit, offset int) ([]*Conversation, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE user_id = ? ORDER BY last_updated DESC, id DESC LIMIT ? OFFSET ?",
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []*Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return conversations, nil
}

// SetConversationTitle updates a conversation's title
func (db *DB) SetConversationTitle(ctx context.Context, id int64, title string) error {
	if _, err := db.conn.ExecContext(ctx,
		"UPDATE conversations SET title = ? WHERE id = ?", title, id,
	); err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	return nil
}

// TouchConversation moves last_updated forward to now. It never moves it back.
func (db *DB) TouchConversation(ctx context.Context, id int64) error {
	now := db.timestamp()
	if _, err := db.conn.ExecContext(ctx,
		"UPDATE conversations SET last_updated = ? WHERE id = ? AND last_updated < ?",
		now, id, now,
	); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}
