package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "llama3-8b-8192",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "We have 3 laptops in stock."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{APIKey: "test-key", BaseURL: srv.URL}
	for _, m := range mutate {
		m(&cfg)
	}
	p, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)
	return p
}

func TestNewOpenAIProviderDefaults(t *testing.T) {
	p, err := NewOpenAIProvider(Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, p.Model())
	assert.Equal(t, "Groq", p.Name())
	assert.Equal(t, DefaultBaseURL, p.config.BaseURL)
	assert.Equal(t, DefaultMaxTokens, p.config.MaxTokens)
	assert.InDelta(t, DefaultTemperature, p.config.Temperature, 1e-9)
	assert.Error(t, p.ValidateConfig())
}

func TestChatSuccess(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	})

	c, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAI, Content: "hello"},
		{Role: RoleUser, Content: "How many laptops?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "We have 3 laptops in stock.", c.Content)
	assert.Equal(t, "llama3-8b-8192", c.Model)
	assert.Equal(t, 42, c.TokensUsed)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "How many laptops?", got.Messages[3].Content)
}

func TestChatErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want:   KindAuth,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached","type":"tokens"}}`,
			want:   KindRateLimit,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"boom","type":"server_error"}}`,
			want:   KindUpstream,
		},
		{
			name:   "bad gateway html",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			want:   KindUpstream,
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `upstream says hello`,
			want:   KindMalformedResponse,
		},
		{
			name:   "truncated json",
			status: http.StatusOK,
			body:   `{"choices": [`,
			want:   KindMalformedResponse,
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"id":"x","model":"m","choices":[]}`,
			want:   KindMalformedResponse,
		},
		{
			name:   "empty content",
			status: http.StatusOK,
			body:   `{"id":"x","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"length"}]}`,
			want:   KindMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			c, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
			require.Error(t, err)
			assert.Nil(t, c)

			var ce *CompletionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.want, ce.Kind)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestChatMissingKeyIsAuthError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer", strings.TrimSpace(r.Header.Get("Authorization")))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"missing key"}}`))
	}, func(c *Config) { c.APIKey = "" })

	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
}

func TestChatTimeout(t *testing.T) {
	release := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(c *Config) { c.Timeout = 1 })
	defer close(release)

	start := time.Now()
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestChatConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestApology(t *testing.T) {
	err := &CompletionError{Kind: KindAuth, Err: errors.New("invalid api key")}
	text := Apology(err)

	assert.True(t, strings.HasPrefix(text, "Sorry, I'm having trouble connecting to the AI at the moment. Error: "))
	assert.Contains(t, text, "invalid api key")
	assert.True(t, IsApology(text))
	assert.False(t, IsApology("We have 3 laptops in stock."))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider("canned")
	c, err := m.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "canned", c.Content)
	require.Len(t, m.Calls(), 1)

	m.Err = errors.New("down")
	_, err = m.Chat(context.Background(), nil)
	assert.Equal(t, KindTransport, KindOf(err))
}
