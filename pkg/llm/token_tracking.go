package llm

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/soundprediction/go-geoai/pkg/cost"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// TokenTracker persists token usage to the token_usage table.
type TokenTracker struct {
	db    *sql.DB
	costs *cost.CostCalculator
}

// NewTokenTracker creates the token_usage table in db if needed.
func NewTokenTracker(db *sql.DB) (*TokenTracker, error) {
	t := &TokenTracker{db: db, costs: cost.NewCostCalculator()}
	if err := t.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize token_usage schema: %w", err)
	}
	return t, nil
}

func (t *TokenTracker) initSchema() error {
	_, err := t.db.Exec(`
	CREATE TABLE IF NOT EXISTS token_usage (
		id VARCHAR,
		timestamp TIMESTAMP,
		request_id VARCHAR,
		user_id VARCHAR,
		request_source VARCHAR,
		stage VARCHAR,
		model VARCHAR,
		prompt_tokens INTEGER,
		completion_tokens INTEGER,
		total_tokens INTEGER,
		estimated_cost DOUBLE
	);
	`)
	return err
}

// Costs exposes the calculator used for estimated_cost.
func (t *TokenTracker) Costs() *cost.CostCalculator { return t.costs }

// AddUsage records one model call.
func (t *TokenTracker) AddUsage(ctx context.Context, usage *types.TokenUsage, model string) error {
	if usage == nil {
		return nil
	}

	str := func(key types.ContextKey) string {
		v, _ := ctx.Value(key).(string)
		return v
	}

	_, err := t.db.ExecContext(ctx, `
	INSERT INTO token_usage (
		id, timestamp, request_id, user_id, request_source, stage,
		model, prompt_tokens, completion_tokens, total_tokens, estimated_cost
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		uuid.New().String(), time.Now().UTC(),
		str(types.ContextKeyRequestID), str(types.ContextKeyUserID),
		str(types.ContextKeyRequestSource), str(types.ContextKeyStage),
		model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
		t.costs.CalculateCost(model, usage.PromptTokens, usage.CompletionTokens),
	)
	return err
}

// Totals sums all recorded usage.
func (t *TokenTracker) Totals(ctx context.Context) (types.TokenUsage, float64, error) {
	var u types.TokenUsage
	var spent float64
	err := t.db.QueryRowContext(ctx, `
	SELECT CAST(COALESCE(SUM(prompt_tokens), 0) AS BIGINT),
	       CAST(COALESCE(SUM(completion_tokens), 0) AS BIGINT),
	       CAST(COALESCE(SUM(total_tokens), 0) AS BIGINT),
	       CAST(COALESCE(SUM(estimated_cost), 0) AS DOUBLE)
	FROM token_usage
	`).Scan(&u.PromptTokens, &u.CompletionTokens, &u.TotalTokens, &spent)
	return u, spent, err
}

// TokenTrackingClient wraps a Client to track usage
type TokenTrackingClient struct {
	client  Client
	tracker *TokenTracker
	logger  *slog.Logger
}

// NewTokenTrackingClient creates a wrapper client
func NewTokenTrackingClient(client Client, tracker *TokenTracker, logger *slog.Logger) *TokenTrackingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenTrackingClient{
		client:  client,
		tracker: tracker,
		logger:  logger,
	}
}

// Chat implements Client. Tracking failures are logged, never returned.
func (c *TokenTrackingClient) Chat(ctx context.Context, messages []types.Message, opts ...ChatOption) (*types.Response, error) {
	resp, err := c.client.Chat(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}

	if resp.TokensUsed != nil {
		if err := c.tracker.AddUsage(ctx, resp.TokensUsed, resp.Model); err != nil {
			c.logger.WarnContext(ctx, "failed to save token usage", "error", err)
		} else {
			c.logger.DebugContext(ctx, "llm usage",
				"model", resp.Model,
				"total_tokens", resp.TokensUsed.TotalTokens,
				"estimated_cost_usd", c.tracker.costs.CalculateCost(resp.Model, resp.TokensUsed.PromptTokens, resp.TokensUsed.CompletionTokens),
			)
		}
	}

	return resp, nil
}

// Close implements Client
func (c *TokenTrackingClient) Close() error {
	return c.client.Close()
}
