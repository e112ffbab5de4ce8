package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/llm/llmtest"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("upstream unavailable")
	inner := llmtest.NewScriptedClient().Push(
		llmtest.Reply{Err: boom},
		llmtest.Reply{Err: boom},
		llmtest.Reply{Content: "never reached"},
	)
	client := llm.NewBreakerClient("test", inner, llm.BreakerSettings{
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Minute,
	}, nil)

	ctx := context.Background()
	_, err := client.Chat(ctx, nil)
	assert.ErrorIs(t, err, boom)
	_, err = client.Chat(ctx, nil)
	assert.ErrorIs(t, err, boom)

	_, err = client.Chat(ctx, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, "open", client.State())
	assert.Len(t, inner.Calls(), 2)
}

func TestBreakerPassesThroughReplies(t *testing.T) {
	client := llm.NewBreakerClient("test", llmtest.NewScriptedClient("hello"), llm.DefaultBreakerSettings(), nil)

	resp, err := client.Chat(context.Background(), nil, llm.WithMaxTokens(10))
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "closed", client.State())
	assert.NoError(t, client.Close())
}
