package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4o

// OpenAIClient implements the Client interface for OpenAI's language models.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string, config Config) *OpenAIClient {
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Chat sends a chat completion request to OpenAI.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, buildChatRequest(c.config, messages, opts))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	return convertResponse(resp, "openai")
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.config.Model }

// Close cleans up resources (no-op for OpenAI client).
func (c *OpenAIClient) Close() error {
	return nil
}
