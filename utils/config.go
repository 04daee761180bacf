package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"think41-chat/llm"
)

// Config represents the application configuration.
//
// Values are layered: built-in defaults, then the optional JSON file, then
// environment variables (a .env file in the working directory is loaded
// first and never overrides variables that are already set).
type Config struct {
	LLM    LLMConfig    `json:"llm"`
	Server ServerConfig `json:"server"`
	Data   DataConfig   `json:"data"`
	Chat   ChatConfig   `json:"chat"`
	Log    LogConfig    `json:"log"`
}

// LLMConfig represents the completion provider configuration
type LLMConfig struct {
	APIKey      string  `json:"api_key" env:"GROQ_API_KEY"`
	BaseURL     string  `json:"base_url" env:"LLM_BASE_URL"`
	Model       string  `json:"model" env:"LLM_MODEL"`
	MaxTokens   int     `json:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float64 `json:"temperature" env:"LLM_TEMPERATURE"`
	Timeout     int     `json:"timeout,omitempty" env:"LLM_TIMEOUT"` // seconds, 0 disables
	UseMock     bool    `json:"use_mock,omitempty" env:"LLM_USE_MOCK"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	HTTPPort        int    `json:"http_port" env:"HTTP_PORT"`
	Environment     string `json:"environment" env:"ENVIRONMENT"`
	ShutdownTimeout int    `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"` // seconds
}

// DataConfig represents data storage configuration
type DataConfig struct {
	DBPath string `json:"db_path" env:"DB_PATH"`
}

// ChatConfig represents the chat turn settings
type ChatConfig struct {
	DefaultUsername string `json:"default_username" env:"CHAT_DEFAULT_USERNAME"`
	HistoryLimit    int    `json:"history_limit" env:"CHAT_HISTORY_LIMIT"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL"`
	Format string `json:"format" env:"LOG_FORMAT"`
	Path   string `json:"path,omitempty" env:"LOG_PATH"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     llm.DefaultBaseURL,
			Model:       llm.DefaultModel,
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.DefaultTemperature,
		},
		Server: ServerConfig{
			HTTPPort:        8000,
			Environment:     "development",
			ShutdownTimeout: 10,
		},
		Data: DataConfig{
			DBPath: "./data/chat.db",
		},
		Chat: ChatConfig{
			DefaultUsername: "default_user",
			HistoryLimit:    5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration. An empty configPath skips the JSON file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse env config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Expand paths
	config.Data.DBPath = expandPath(config.Data.DBPath)
	if config.Log.Path != "" {
		config.Log.Path = expandPath(config.Log.Path)
	}

	return config, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Chat.DefaultUsername) == "" {
		errs = append(errs, errors.New("chat.default_username must not be empty"))
	}
	if c.Chat.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("chat.history_limit must be >= 0, got %d", c.Chat.HistoryLimit))
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be >= 0, got %d", c.LLM.Timeout))
	}
	if strings.TrimSpace(c.Data.DBPath) == "" {
		errs = append(errs, errors.New("data.db_path must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ProviderConfig converts the LLM section into provider configuration
func (c LLMConfig) ProviderConfig() llm.Config {
	return llm.Config{
		ProviderName: "Groq",
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		Model:        c.Model,
		Timeout:      c.Timeout,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
	}
}

// LoadEnvFiles loads .env files that exist. Variables already present in the
// environment win.
func LoadEnvFiles(logger *Logger, paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("failed to load %s: %v", path, err)
		}
	}
}

// SaveConfig saves configuration to file
func SaveConfig(configPath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteDefaultConfig creates a default config file if it doesn't exist
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}
	return SaveConfig(configPath, DefaultConfig())
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	// Expand ~
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// Make absolute
	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}
