package llm

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// buildChatRequest converts messages to the OpenAI wire format and applies
// client defaults followed by per-call options.
func buildChatRequest(config Config, messages []types.Message, opts []ChatOption) openai.ChatCompletionRequest {
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    config.Model,
		Messages: openaiMessages,
	}

	if config.Temperature != nil {
		req.Temperature = *config.Temperature
	}
	if config.MaxTokens != nil {
		req.MaxTokens = *config.MaxTokens
	}
	if config.TopP != nil {
		req.TopP = *config.TopP
	}
	if len(config.Stop) > 0 {
		req.Stop = config.Stop
	}

	o := ApplyChatOptions(opts...)
	if o.MaxTokens > 0 {
		req.MaxTokens = o.MaxTokens
	}
	if o.Temperature != nil {
		req.Temperature = *o.Temperature
	}
	return req
}

func convertResponse(resp openai.ChatCompletionResponse, provider string) (*types.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from %s", provider)
	}

	choice := resp.Choices[0]
	response := &types.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
	}
	if resp.Usage.TotalTokens > 0 {
		response.TokensUsed = &types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return response, nil
}
