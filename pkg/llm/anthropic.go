package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// defaultAnthropicMaxTokens is sent when neither the client nor the call sets a limit.
// The Messages API requires one.
const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements Client on the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	config Config
}

// NewAnthropicClient creates a client. baseURL may be empty.
func NewAnthropicClient(apiKey, baseURL string, config Config) *AnthropicClient {
	if config.Model == "" {
		config.Model = DefaultAnthropicModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		config: config,
	}
}

// Chat sends the conversation as one Messages request. System messages are
// joined into the system prompt and consecutive turns of the same role are merged.
func (c *AnthropicClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	system, turns := splitSystem(messages)
	if len(turns) == 0 {
		return nil, fmt.Errorf("no valid messages to send (messages may be empty)")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: defaultAnthropicMaxTokens,
	}
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == types.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if c.config.MaxTokens != nil {
		params.MaxTokens = int64(*c.config.MaxTokens)
	}
	temperature := c.config.Temperature
	o := ApplyChatOptions(opts...)
	if o.MaxTokens > 0 {
		params.MaxTokens = int64(o.MaxTokens)
	}
	if o.Temperature != nil {
		temperature = o.Temperature
	}
	if temperature != nil {
		params.Temperature = anthropic.Float(float64(*temperature))
	}
	if c.config.TopP != nil {
		params.TopP = anthropic.Float(float64(*c.config.TopP))
	}
	if len(c.config.Stop) > 0 {
		params.StopSequences = c.config.Stop
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	input, output := int(message.Usage.InputTokens), int(message.Usage.OutputTokens)
	return &types.Response{
		Content:      content.String(),
		FinishReason: string(message.StopReason),
		Model:        string(message.Model),
		TokensUsed: &types.TokenUsage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string { return c.config.Model }

// Close is a no-op.
func (c *AnthropicClient) Close() error { return nil }

// splitSystem pulls system messages out of a conversation and merges
// adjacent user or assistant messages into one turn.
func splitSystem(messages []types.Message) (string, []types.Message) {
	var system []string
	var turns []types.Message
	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		role := msg.Role
		if role != types.RoleAssistant {
			role = types.RoleUser
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + msg.Content
			continue
		}
		turns = append(turns, types.Message{Role: role, Content: msg.Content})
	}
	return strings.Join(system, "\n\n"), turns
}
