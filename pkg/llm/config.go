package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider selects the client implementation built by NewClient.
type Provider string

const (
	// ProviderOpenAI uses api.openai.com.
	ProviderOpenAI Provider = "openai"
	// ProviderOpenAICompatible uses any server at BaseURL.
	ProviderOpenAICompatible Provider = "openai_compatible"
	// ProviderOllama uses a local Ollama server.
	ProviderOllama Provider = "ollama"
	// ProviderAnthropic uses the Anthropic Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderGemini uses the Google Gemini API.
	ProviderGemini Provider = "gemini"
)

// Default configuration values
const (
	DefaultTemperature    = 0.0
	DefaultRequestTimeout = 60 * time.Second
)

// LLMConfig holds configuration for LLM clients.
type LLMConfig struct {
	// Provider picks the client implementation.
	Provider Provider `json:"provider,omitempty"`

	// APIKey is the authentication key for accessing the LLM API
	APIKey string `json:"api_key,omitempty"`

	// Model is the specific LLM model to use for generating responses
	Model string `json:"model,omitempty"`

	// BaseURL is the base URL of the LLM API service
	BaseURL string `json:"base_url,omitempty"`

	// Temperature controls randomness in generation (0.0 to 2.0)
	Temperature float32 `json:"temperature,omitempty"`

	// Timeout bounds a single request.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NewLLMConfig creates a new LLMConfig with default values
func NewLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider:    ProviderOpenAI,
		Temperature: DefaultTemperature,
		Timeout:     DefaultRequestTimeout,
	}
}

// WithProvider sets the provider
func (c *LLMConfig) WithProvider(p Provider) *LLMConfig {
	c.Provider = p
	return c
}

// WithAPIKey sets the API key
func (c *LLMConfig) WithAPIKey(apiKey string) *LLMConfig {
	c.APIKey = apiKey
	return c
}

// WithModel sets the model
func (c *LLMConfig) WithModel(model string) *LLMConfig {
	c.Model = model
	return c
}

// WithBaseURL sets the base URL
func (c *LLMConfig) WithBaseURL(baseURL string) *LLMConfig {
	c.BaseURL = baseURL
	return c
}

// WithTemperature sets the temperature
func (c *LLMConfig) WithTemperature(temperature float32) *LLMConfig {
	c.Temperature = temperature
	return c
}

// NewClient builds the client described by cfg.
func NewClient(cfg *LLMConfig) (Client, error) {
	temperature := cfg.Temperature
	base := Config{Model: cfg.Model, Temperature: &temperature, Timeout: cfg.Timeout}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		if cfg.BaseURL != "" {
			return NewOpenAICompatibleClient(cfg.BaseURL, cfg.APIKey, cfg.Model, base)
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIClient(cfg.APIKey, base), nil
	case ProviderOpenAICompatible:
		return NewOpenAICompatibleClient(cfg.BaseURL, cfg.APIKey, cfg.Model, base)
	case ProviderOllama:
		return NewOllamaClient(cfg.BaseURL, cfg.Model, base)
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, base), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiClient(context.Background(), cfg.APIKey, cfg.BaseURL, base)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
