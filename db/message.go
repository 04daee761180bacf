package db

import (
	"context"
	"fmt"
	"slices"
)

const messageColumns = "id, conversation_id, sender, content, model, tokens_used, timestamp"

func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Content, &msg.Model, &msg.TokensUsed, &msg.Timestamp); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AppendMessage inserts a message into a conversation. Messages are never
// updated or deleted afterwards.
func (db *DB) AppendMessage(ctx context.Context, in NewMessage) (*Message, error) {
	if !in.Sender.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, in.Sender)
	}

	now := db.timestamp()
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender, content, model, tokens_used, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		in.ConversationID, string(in.Sender), in.Content, in.Model, in.TokensUsed, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get message ID: %w", err)
	}

	return &Message{
		ID:             id,
		ConversationID: in.ConversationID,
		Sender:         in.Sender,
		Content:        in.Content,
		Model:          in.Model,
		TokensUsed:     in.TokensUsed,
		Timestamp:      now,
	}, nil
}

// RecentMessages returns the last limit messages of a conversation, oldest first
func (db *DB) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]*Message, error) {
	if limit <= 0 {
		return []*Message{}, nil
	}

	messages, err := db.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE conversation_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?",
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

// ListMessages retrieves all messages in a conversation, oldest first
func (db *DB) ListMessages(ctx context.Context, conversationID int64) ([]*Message, error) {
	messages, err := db.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC, id ASC",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// CountMessages returns the number of messages in a conversation
func (db *DB) CountMessages(ctx context.Context, conversationID int64) (int64, error) {
	var count int64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func (db *DB) queryMessages(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
