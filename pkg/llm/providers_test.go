package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/types"
)

func conversation() []types.Message {
	return []types.Message{
		llm.NewSystemMessage("You write Go."),
		llm.NewUserMessage("Dataset 1: cities"),
		llm.NewUserMessage("Count the rows."),
	}
}

func TestAnthropicChat(t *testing.T) {
	var received struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "func Run() int { return 3 }"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	client := llm.NewAnthropicClient("secret", srv.URL, llm.Config{Model: "claude-test"})
	resp, err := client.Chat(context.Background(), conversation(), llm.WithMaxTokens(256))
	require.NoError(t, err)

	assert.Equal(t, "claude-test", received.Model)
	assert.Equal(t, 256, received.MaxTokens)
	require.Len(t, received.System, 1)
	assert.Equal(t, "You write Go.", received.System[0].Text)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, "user", received.Messages[0].Role)
	require.Len(t, received.Messages[0].Content, 1)
	assert.Equal(t, "Dataset 1: cities\n\nCount the rows.", received.Messages[0].Content[0].Text)

	assert.Equal(t, "func Run() int { return 3 }", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	require.NotNil(t, resp.TokensUsed)
	assert.Equal(t, 20, resp.TokensUsed.TotalTokens)
	assert.Equal(t, "claude-test", client.Model())
}

func TestAnthropicRejectsEmptyConversation(t *testing.T) {
	client := llm.NewAnthropicClient("secret", "http://127.0.0.1:1", llm.Config{})
	_, err := client.Chat(context.Background(), []types.Message{llm.NewSystemMessage("only system")})
	require.Error(t, err)
	assert.Equal(t, llm.DefaultAnthropicModel, client.Model())
}

func TestGeminiChat(t *testing.T) {
	var received struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "TEXT"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 1, "totalTokenCount": 8},
			"modelVersion": "gemini-test-001"
		}`))
	}))
	defer srv.Close()

	client, err := llm.NewGeminiClient(context.Background(), "secret", srv.URL+"/", llm.Config{Model: "gemini-test"})
	require.NoError(t, err)
	resp, err := client.Chat(context.Background(), conversation())
	require.NoError(t, err)

	require.Len(t, received.Contents, 1)
	assert.Equal(t, "user", received.Contents[0].Role)
	require.Len(t, received.SystemInstruction.Parts, 1)
	assert.Equal(t, "You write Go.", received.SystemInstruction.Parts[0].Text)

	assert.Equal(t, "TEXT", resp.Content)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, "gemini-test-001", resp.Model)
	require.NotNil(t, resp.TokensUsed)
	assert.Equal(t, 8, resp.TokensUsed.TotalTokens)
}

func TestNewClientProviders(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *llm.LLMConfig
		errorMsg string
	}{
		{name: "anthropic", cfg: llm.NewLLMConfig().WithProvider(llm.ProviderAnthropic).WithAPIKey("k")},
		{name: "anthropic without key", cfg: llm.NewLLMConfig().WithProvider(llm.ProviderAnthropic), errorMsg: "anthropic provider requires an API key"},
		{name: "gemini", cfg: llm.NewLLMConfig().WithProvider(llm.ProviderGemini).WithAPIKey("k")},
		{name: "gemini without key", cfg: llm.NewLLMConfig().WithProvider(llm.ProviderGemini), errorMsg: "gemini provider requires an API key"},
		{name: "ollama", cfg: llm.NewLLMConfig().WithProvider(llm.ProviderOllama).WithBaseURL("http://localhost:11434")},
		{name: "unknown", cfg: llm.NewLLMConfig().WithProvider("mystery"), errorMsg: "unknown llm provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := llm.NewClient(tt.cfg)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, client.Close())
		})
	}
}
