package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides logging functionality
type Logger struct {
	file   *os.File
	logger zerolog.Logger
}

// LogOptions configures NewLogger
type LogOptions struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Path   string // optional log file, written in addition to stdout
}

// NewLogger creates a new logger
func NewLogger(opts LogOptions) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	var out io.Writer
	switch strings.ToLower(opts.Format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	case "json":
		out = os.Stderr
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	l := &Logger{}
	if opts.Path != "" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		out = zerolog.MultiLevelWriter(out, file)
	}

	l.logger = zerolog.New(out).With().Timestamp().Logger().Level(level)
	return l, nil
}

// NewLoggerTo writes JSON log lines to w. Used by tests.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// NopLogger discards everything
func NopLogger() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// Zerolog exposes the structured logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Close closes the logger
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// GetLogPath returns the default log path
func GetLogPath() string {
	return filepath.Join(".", "logs", fmt.Sprintf("app-%s.log", time.Now().Format("2006-01-02")))
}
