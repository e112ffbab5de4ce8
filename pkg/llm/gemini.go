package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config Config
}

// NewGeminiClient creates a client for the Gemini API. baseURL may be empty.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, config Config) (*GeminiClient, error) {
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	if config.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, config: config}, nil
}

// Chat sends the conversation to GenerateContent.
func (c *GeminiClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	system, turns := splitSystem(messages)
	if len(turns) == 0 {
		return nil, fmt.Errorf("no valid messages to send (messages may be empty)")
	}

	contents := make([]*genai.Content, len(turns))
	for i, turn := range turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents[i] = genai.NewContentFromText(turn.Content, role)
	}

	gc := &genai.GenerateContentConfig{
		Temperature:   c.config.Temperature,
		TopP:          c.config.TopP,
		StopSequences: c.config.Stop,
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if c.config.MaxTokens != nil {
		gc.MaxOutputTokens = int32(*c.config.MaxTokens)
	}
	o := ApplyChatOptions(opts...)
	if o.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(o.MaxTokens)
	}
	if o.Temperature != nil {
		gc.Temperature = o.Temperature
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from gemini")
	}

	response := &types.Response{
		Content:      resp.Text(),
		FinishReason: string(resp.Candidates[0].FinishReason),
		Model:        resp.ModelVersion,
	}
	if response.Model == "" {
		response.Model = c.config.Model
	}
	if u := resp.UsageMetadata; u != nil {
		response.TokensUsed = &types.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return response, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.config.Model }

// Close is a no-op; the SDK holds no connections of its own.
func (c *GeminiClient) Close() error { return nil }
