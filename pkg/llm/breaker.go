package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/soundprediction/go-geoai/pkg/types"
)

// BreakerSettings configures BreakerClient.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings returns the settings used by the CLI and server.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// BreakerClient stops calling a failing provider until it recovers.
// Requests cancelled by the caller do not count as provider failures.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps client with a circuit breaker.
func NewBreakerClient(name string, client Client, settings BreakerSettings, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerClient{client: client, cb: cb}
}

// Chat implements Client. It returns gobreaker.ErrOpenState while the circuit is open.
func (b *BreakerClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.client.Chat(ctx, messages, opts...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*types.Response), nil
}

// State reports the breaker state as a string.
func (b *BreakerClient) State() string { return b.cb.State().String() }

// Close implements Client
func (b *BreakerClient) Close() error {
	return b.client.Close()
}
