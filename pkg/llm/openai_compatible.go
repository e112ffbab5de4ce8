package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// OpenAICompatibleClient talks to any server exposing the OpenAI chat API,
// such as Ollama, LocalAI or vLLM.
type OpenAICompatibleClient struct {
	client *openai.Client
	config Config
}

// NewOpenAICompatibleClient creates a client for baseURL. An empty apiKey is
// replaced by a placeholder since most local servers ignore it. "/v1" is
// appended unless the URL already ends in an API path.
//
// Example:
//
//	client, err := llm.NewOpenAICompatibleClient(
//		"http://localhost:11434",
//		"",
//		"qwen2.5-coder:7b",
//		llm.Config{},
//	)
func NewOpenAICompatibleClient(baseURL, apiKey, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL format: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		if parsedURL.Scheme != "" && parsedURL.Opaque != "" {
			return nil, fmt.Errorf("baseURL must use http:// or https:// scheme")
		}
		return nil, fmt.Errorf("baseURL must include scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("baseURL must use http:// or https:// scheme")
	}

	if model == "" {
		model = "gpt-3.5-turbo"
	}
	config.Model = model

	if apiKey == "" {
		apiKey = "dummy-key"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	if !hasAPIPath(baseURL) {
		clientConfig.BaseURL += "/v1"
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &OpenAICompatibleClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Chat sends a chat completion request to the OpenAI-compatible service.
func (c *OpenAICompatibleClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, buildChatRequest(c.config, messages, opts))
	if err != nil {
		return nil, fmt.Errorf("openai-compatible chat completion failed: %w", err)
	}
	return convertResponse(resp, "openai-compatible service")
}

// Model returns the configured model name.
func (c *OpenAICompatibleClient) Model() string { return c.config.Model }

// Close cleans up resources (no-op for OpenAI-compatible client).
func (c *OpenAICompatibleClient) Close() error {
	return nil
}

// hasAPIPath checks if the base URL already includes an API path component.
func hasAPIPath(baseURL string) bool {
	for _, path := range []string{"/v1", "/api", "/v1/", "/api/"} {
		if strings.HasSuffix(baseURL, path) {
			return true
		}
	}
	return false
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(baseURL, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return NewOpenAICompatibleClient(baseURL, "", model, config)
}

// NewLocalAIClient creates a client for LocalAI.
func NewLocalAIClient(baseURL, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return NewOpenAICompatibleClient(baseURL, "", model, config)
}

// NewVLLMClient creates a client for a vLLM server.
func NewVLLMClient(baseURL, model string, config Config) (*OpenAICompatibleClient, error) {
	return NewOpenAICompatibleClient(baseURL, "", model, config)
}
