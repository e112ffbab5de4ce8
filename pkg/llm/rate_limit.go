package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// RateLimitedClient spaces out requests to stay under a provider quota.
type RateLimitedClient struct {
	client  Client
	limiter *rate.Limiter
}

// NewRateLimitedClient allows requestsPerMinute calls per minute with bursts of burst.
// A burst below one is treated as one; a non-positive rate does not limit.
func NewRateLimitedClient(client Client, requestsPerMinute float64, burst int) *RateLimitedClient {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Duration(float64(time.Minute) / requestsPerMinute))
	}
	return &RateLimitedClient{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Chat waits for a token and then forwards the call. It fails without calling
// the wrapped client when ctx ends first.
func (r *RateLimitedClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.client.Chat(ctx, messages, opts...)
}

// Close implements Client
func (r *RateLimitedClient) Close() error {
	return r.client.Close()
}
