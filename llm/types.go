package llm

import "context"

// Roles used in assembled turns. RoleAI is the stored sender value and is
// translated to the provider's assistant role on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAI        = "ai"
	RoleAssistant = "assistant"
)

// Defaults for the hosted completion service
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama3-8b-8192"
	DefaultMaxTokens   = 200
	DefaultTemperature = 0.7
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "system", "user" or "ai"
	Content string `json:"content"`
}

// Completion is the text returned by a provider with its accounting data
type Completion struct {
	Content    string
	Model      string
	TokensUsed int
}

// Provider is the completion service as seen by the chat workflow
type Provider interface {
	// Chat sends messages and returns the complete response (non-streaming).
	// Failures are returned as *CompletionError.
	Chat(ctx context.Context, messages []Message) (*Completion, error)

	// Name returns the provider name
	Name() string

	// Model returns the model every request is sent to
	Model() string

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Config represents provider configuration
type Config struct {
	ProviderName string // Display name for the provider
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      int // seconds, 0 disables
	MaxTokens    int
	Temperature  float64
}
