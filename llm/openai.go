package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider for OpenAI-compatible chat completion APIs
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI-compatible provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	// Allow empty API key - requests then fail with an auth error at runtime
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	clientConfig.BaseURL = config.BaseURL

	client := openai.NewClientWithConfig(clientConfig)

	// Set defaults only if not provided
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Temperature == 0 {
		config.Temperature = DefaultTemperature
	}
	if config.ProviderName == "" {
		config.ProviderName = "Groq"
	}

	return &OpenAIProvider{
		client: client,
		config: config,
	}, nil
}

// convertMessage converts our Message type to OpenAI format
func (p *OpenAIProvider) convertMessage(msg Message) openai.ChatCompletionMessage {
	role := msg.Role
	if role == RoleAI {
		role = openai.ChatMessageRoleAssistant
	}
	return openai.ChatCompletionMessage{
		Role:    role,
		Content: msg.Content,
	}
}

// Chat implements non-streaming chat
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (*Completion, error) {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.config.Timeout)*time.Second)
		defer cancel()
	}

	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		openaiMessages = append(openaiMessages, p.convertMessage(msg))
	}

	req := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    openaiMessages,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
		Stream:      false,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, malformed("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, malformed("empty content in response (finish reason %q)", resp.Choices[0].FinishReason)
	}

	model := resp.Model
	if model == "" {
		model = p.config.Model
	}

	return &Completion{
		Content:    content,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.config.ProviderName
}

// Model returns the configured model
func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

// ValidateConfig validates the configuration
func (p *OpenAIProvider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.New("API key is required")
	}
	return nil
}
