package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"think41-chat/db"
)

// ExportFormat represents the export format
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// ParseExportFormat accepts "json", "markdown" or "md"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the HTTP content type of the format
func (f ExportFormat) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// ConversationExport represents a conversation export structure
type ConversationExport struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Title       string            `json:"title"`
	StartTime   time.Time         `json:"start_time"`
	LastUpdated time.Time         `json:"last_updated"`
	Messages    []MessageExport   `json:"messages"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MessageExport represents a message export structure
type MessageExport struct {
	ID         int64     `json:"id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Model      string    `json:"model,omitempty"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewConversationExport builds the export structure
func NewConversationExport(conv *db.Conversation, messages []*db.Message, exportedAt time.Time) *ConversationExport {
	export := &ConversationExport{
		ID:          conv.ID,
		UserID:      conv.UserID,
		Title:       conv.Title,
		StartTime:   conv.StartTime,
		LastUpdated: conv.LastUpdated,
		Messages:    make([]MessageExport, 0, len(messages)),
		Metadata: map[string]string{
			"export_version": "1.0",
			"export_date":    exportedAt.Format(time.RFC3339),
			"app_name":       "think41-chat",
		},
	}

	for _, msg := range messages {
		export.Messages = append(export.Messages, MessageExport{
			ID:         msg.ID,
			Sender:     string(msg.Sender),
			Content:    msg.Content,
			Model:      msg.Model,
			TokensUsed: msg.TokensUsed,
			Timestamp:  msg.Timestamp,
		})
	}
	return export
}

// WriteExport renders the export in the given format
func WriteExport(w io.Writer, export *ConversationExport, format ExportFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case FormatMarkdown:
		if _, err := io.WriteString(w, renderMarkdown(export)); err != nil {
			return fmt.Errorf("failed to write markdown: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func renderMarkdown(export *ConversationExport) string {
	var sb strings.Builder

	// Header
	title := export.Title
	if title == "" {
		title = fmt.Sprintf("Conversation %d", export.ID)
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Started**: %s\n", export.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Updated**: %s\n\n", export.LastUpdated.Format("2006-01-02 15:04:05")))
	sb.WriteString("---\n\n")

	// Messages
	for i, msg := range export.Messages {
		roleName := "User"
		if msg.Sender == string(db.SenderAI) {
			roleName = "Assistant"
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", roleName))

		if msg.Model != "" {
			sb.WriteString(fmt.Sprintf("*%s*\n\n", msg.Model))
		}

		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		if i < len(export.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported: %s*\n", export.Metadata["export_date"]))

	return sb.String()
}

// ExportToFile writes the export to path, creating parent directories
func ExportToFile(path string, export *ConversationExport, format ExportFormat) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteExport(f, export, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// GenerateExportFilename generates a filename for export
func GenerateExportFilename(title string, format ExportFormat, now time.Time) string {
	// Sanitize title for filename
	sanitized := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|' || r == ' ' {
			return '_'
		}
		return r
	}, title)

	// Truncate if too long
	if runes := []rune(sanitized); len(runes) > 50 {
		sanitized = string(runes[:50])
	}
	if sanitized == "" {
		sanitized = "conversation"
	}

	ext := string(format)
	if format == FormatMarkdown {
		ext = "md"
	}

	return fmt.Sprintf("%s_%s.%s", sanitized, now.Format("20060102_150405"), ext)
}
