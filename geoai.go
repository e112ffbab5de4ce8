// Package geoai answers natural-language questions about tabular and
// geospatial datasets by having a language model write a Go snippet, running
// it in a sandbox and returning its typed result.
package geoai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/go-geoai/pkg/cache"
	"github.com/soundprediction/go-geoai/pkg/codegen"
	"github.com/soundprediction/go-geoai/pkg/describe"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/prompts"
	"github.com/soundprediction/go-geoai/pkg/sandbox"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// GeoAI is the main interface for asking questions about datasets.
type GeoAI interface {
	// Ask classifies the prompt, generates a snippet, runs it over datasets
	// and returns its result. Datasets are passed to the snippet in order.
	Ask(ctx context.Context, prompt string, datasets []frame.Dataset, opts ...AskOption) (*Result, error)

	// ClearCache removes a cached result by key.
	ClearCache(key string) error

	// Close releases the model client.
	Close() error
}

// Config holds configuration for the client. Every field is optional.
type Config struct {
	// Registry supplies the prompt templates. Nil loads the embedded catalog.
	Registry *prompts.Registry
	// Descriptor summarizes datasets for the model.
	Descriptor describe.Descriptor
	// Cache stores results. Nil disables caching.
	Cache cache.Backend
	// MaxFixAttempts is how many times a failing snippet is sent back to the
	// model together with its error. Zero disables repair.
	MaxFixAttempts int
	// TempDir holds transient snippet files.
	TempDir string
	// RunTimeout bounds each snippet execution. Zero relies on the caller's context.
	// A snippet that overruns keeps running in the background until it returns;
	// the interpreter cannot be interrupted, so Ask only stops waiting for it.
	RunTimeout time.Duration
	// Logger receives pipeline logs.
	Logger *slog.Logger
}

// Client is the main implementation of the GeoAI interface.
type Client struct {
	llm        llm.Client
	classifier *codegen.Classifier
	generator  *codegen.Generator
	executor   *sandbox.Executor
	cache      cache.Backend
	config     *Config
	logger     *slog.Logger
}

// NewClient creates a client that talks to the model through llmClient.
func NewClient(llmClient llm.Client, config *Config) (*Client, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := config.Registry
	if registry == nil {
		var err error
		if registry, err = prompts.NewRegistry(prompts.Embedded(), logger); err != nil {
			return nil, err
		}
	}

	c := &Client{
		llm:        llmClient,
		classifier: codegen.NewClassifier(llmClient, registry, logger),
		generator:  codegen.NewGenerator(llmClient, registry, config.Descriptor, logger),
		executor:   sandbox.New(logger),
		cache:      config.Cache,
		config:     config,
		logger:     logger,
	}
	c.executor.TempDir = config.TempDir
	c.executor.Wrap = func(g *geo.GeoDataFrame) any { return c.wrap(g) }
	return c, nil
}

// AskOption customizes a single Ask call.
type AskOption func(*askOptions)

type askOptions struct {
	kind    *types.ResultKind
	noCache bool
}

// WithKind skips classification and asks for a result of kind.
func WithKind(kind types.ResultKind) AskOption {
	return func(o *askOptions) { o.kind = &kind }
}

// WithoutCache bypasses the cache for reads and writes.
func WithoutCache() AskOption {
	return func(o *askOptions) { o.noCache = true }
}

// Ask implements GeoAI.
func (c *Client) Ask(ctx context.Context, prompt string, datasets []frame.Dataset, opts ...AskOption) (*Result, error) {
	var o askOptions
	for _, opt := range opts {
		opt(&o)
	}
	datasets = unwrapDatasets(datasets)

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, types.ContextKeyRequestID, requestID)
	logger := c.logger.With("request_id", requestID)

	var key string
	if c.cache != nil && !o.noCache {
		var err error
		if key, err = cache.Fingerprint(prompt, cache.KindLabel(o.kind), datasets...); err != nil {
			logger.WarnContext(ctx, "cache skipped, datasets cannot be fingerprinted", "error", err)
			key = ""
		} else if res, ok := c.lookup(ctx, logger, key); ok {
			res.RequestID = requestID
			return res, nil
		}
	}

	kind, err := c.resolveKind(ctx, prompt, o.kind)
	if err != nil {
		logger.ErrorContext(ctx, "classification failed", "error", err)
		return nil, err
	}
	logger.InfoContext(ctx, "classified request", "kind", kind.Label())

	code, value, err := c.generateAndRun(ctx, logger, prompt, kind, datasets)
	if err != nil {
		logger.ErrorContext(ctx, "request failed", "kind", kind.Label(), "error", err)
		return nil, err
	}

	res := &Result{Kind: kind, Value: value, Code: code, CacheKey: key, RequestID: requestID}
	if key != "" {
		c.store(ctx, logger, key, res)
	}
	return res, nil
}

func (c *Client) resolveKind(ctx context.Context, prompt string, declared *types.ResultKind) (types.ResultKind, error) {
	if declared != nil {
		return *declared, nil
	}
	return c.classifier.Classify(ctx, prompt)
}

// generateAndRun asks for a snippet and runs it, sending failures back to
// the model up to MaxFixAttempts times.
func (c *Client) generateAndRun(ctx context.Context, logger *slog.Logger, prompt string, kind types.ResultKind, datasets []frame.Dataset) (string, any, error) {
	code, err := c.generator.Generate(ctx, prompt, kind, datasets)
	if err != nil {
		return "", nil, err
	}
	for attempt := 0; ; attempt++ {
		value, runErr := c.run(ctx, code, kind, datasets)
		if runErr == nil {
			return code, value, nil
		}
		retryable := errors.Is(runErr, types.ErrExecution) || errors.Is(runErr, types.ErrTypeMismatch)
		if !retryable || attempt >= c.config.MaxFixAttempts || ctx.Err() != nil {
			return code, nil, runErr
		}
		logger.WarnContext(ctx, "snippet failed, asking for a fix", "attempt", attempt+1, "error", runErr)
		if code, err = c.generator.Regenerate(ctx, prompt, kind, datasets, code, runErr); err != nil {
			return "", nil, err
		}
	}
}

func (c *Client) run(ctx context.Context, code string, kind types.ResultKind, datasets []frame.Dataset) (any, error) {
	ctx = context.WithValue(ctx, types.ContextKeyStage, "execute")
	if c.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RunTimeout)
		defer cancel()
	}
	return c.executor.Run(ctx, code, kind, datasets)
}

func (c *Client) lookup(ctx context.Context, logger *slog.Logger, key string) (*Result, bool) {
	data, ok, err := c.cache.Get(key)
	if err != nil {
		logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		logger.DebugContext(ctx, "cache miss", "key", key)
		return nil, false
	}
	res, err := decodeEntry(data, c.wrap)
	if err != nil {
		logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	res.Cached = true
	res.CacheKey = key
	logger.InfoContext(ctx, "served from cache", "key", key, "kind", res.Kind.Label())
	return res, true
}

func (c *Client) store(ctx context.Context, logger *slog.Logger, key string, res *Result) {
	data, err := encodeEntry(res)
	if err != nil {
		logger.WarnContext(ctx, "cannot encode result for cache", "error", err)
		return
	}
	if err := c.cache.Set(key, data); err != nil {
		logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		return
	}
	logger.InfoContext(ctx, "stored result in cache", "key", key)
}

// ClearCache implements GeoAI.
func (c *Client) ClearCache(key string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear(key)
}

// Close implements GeoAI.
func (c *Client) Close() error {
	return c.llm.Close()
}

func (c *Client) wrap(g *geo.GeoDataFrame) any {
	return NewGeoFrame(g, c)
}

func unwrapDatasets(datasets []frame.Dataset) []frame.Dataset {
	out := make([]frame.Dataset, len(datasets))
	for i, ds := range datasets {
		if gf, ok := ds.(*GeoFrame); ok {
			out[i] = gf.GeoDataFrame
			continue
		}
		out[i] = ds
	}
	return out
}

var _ GeoAI = (*Client)(nil)
