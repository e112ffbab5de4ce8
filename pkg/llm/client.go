package llm

import (
	"context"
	"time"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// Client defines the interface for language model operations.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error)

	// Close cleans up any resources.
	Close() error
}

// ChatOptions are per-request overrides of the client configuration.
type ChatOptions struct {
	MaxTokens   int
	Temperature *float32
}

// ChatOption configures a single Chat call.
type ChatOption func(*ChatOptions)

// WithMaxTokens caps the completion length of one request.
func WithMaxTokens(n int) ChatOption {
	return func(o *ChatOptions) { o.MaxTokens = n }
}

// WithTemperature overrides the sampling temperature of one request.
func WithTemperature(t float32) ChatOption {
	return func(o *ChatOptions) { o.Temperature = &t }
}

// ApplyChatOptions folds opts into a ChatOptions value.
func ApplyChatOptions(opts ...ChatOption) ChatOptions {
	var o ChatOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Config holds per-client request defaults.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	// Timeout bounds each HTTP request; zero leaves it to the context.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NewMessage creates a new message with the specified role and content.
func NewMessage(role types.Role, content string) types.Message {
	return types.Message{
		Role:    role,
		Content: content,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) types.Message {
	return NewMessage(types.RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) types.Message {
	return NewMessage(types.RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) types.Message {
	return NewMessage(types.RoleAssistant, content)
}
