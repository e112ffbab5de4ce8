// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// ErrExhausted is returned once every scripted reply has been used.
var ErrExhausted = errors.New("llmtest: no scripted replies left")

// Reply is one scripted answer.
type Reply struct {
	Content string
	Err     error
	Usage   *types.TokenUsage
}

// Call records a request the client received.
type Call struct {
	Messages  []types.Message
	MaxTokens int
}

// ScriptedClient answers Chat calls with a fixed sequence of replies.
type ScriptedClient struct {
	mu      sync.Mutex
	Model   string
	replies []Reply
	calls   []Call
	closed  bool
}

// NewScriptedClient returns a client replying with contents in order.
func NewScriptedClient(contents ...string) *ScriptedClient {
	c := &ScriptedClient{Model: "scripted"}
	for _, content := range contents {
		c.replies = append(c.replies, Reply{Content: content})
	}
	return c
}

// Push appends replies.
func (c *ScriptedClient) Push(replies ...Reply) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
	return c
}

// Chat implements llm.Client.
func (c *ScriptedClient) Chat(ctx context.Context, messages []types.Message, opts ...llm.ChatOption) (*types.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	o := llm.ApplyChatOptions(opts...)
	c.calls = append(c.calls, Call{Messages: append([]types.Message(nil), messages...), MaxTokens: o.MaxTokens})
	if len(c.replies) == 0 {
		return nil, ErrExhausted
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return &types.Response{Content: r.Content, Model: c.Model, TokensUsed: r.Usage}, nil
}

// Calls returns the requests received so far.
func (c *ScriptedClient) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Closed reports whether Close was called.
func (c *ScriptedClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close implements llm.Client.
func (c *ScriptedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
