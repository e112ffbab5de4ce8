package geoai

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/cache"
	"github.com/soundprediction/go-geoai/pkg/config"
	"github.com/soundprediction/go-geoai/pkg/describe"
	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/loader"
	"github.com/soundprediction/go-geoai/pkg/logger"
	"github.com/soundprediction/go-geoai/pkg/prompts"
	"github.com/soundprediction/go-geoai/pkg/telemetry"
)

// app holds everything a command needs, built from one Config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *geoai.Client
	loader  *loader.Loader
	breaker *llm.BreakerClient
	tracker *llm.TokenTracker

	closers []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// init acquires resources in order; Close releases whatever was acquired
// before a failure.
func (a *app) init() error {
	cfg := a.cfg
	var err error
	if a.logger, err = logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled {
		if err := a.openTelemetry(); err != nil {
			return err
		}
	}

	model, err := a.newModel()
	if err != nil {
		return err
	}

	backend, err := a.newCache()
	if err != nil {
		model.Close()
		return err
	}

	var registry *prompts.Registry
	if cfg.Templates.Dir != "" {
		if registry, err = prompts.NewRegistry(os.DirFS(cfg.Templates.Dir), a.logger); err != nil {
			model.Close()
			return err
		}
	}

	a.client, err = geoai.NewClient(model, &geoai.Config{
		Registry:       registry,
		Descriptor:     describe.NewPublicDescriptor(cfg.Sandbox.SampleRows),
		Cache:          backend,
		MaxFixAttempts: cfg.Sandbox.MaxFixAttempts,
		TempDir:        cfg.Sandbox.TempDir,
		RunTimeout:     cfg.Sandbox.Timeout,
		Logger:         a.logger,
	})
	if err != nil {
		model.Close()
		return err
	}
	a.closers = append(a.closers, a.client.Close)

	if a.loader, err = loader.New(); err != nil {
		return err
	}
	a.closers = append(a.closers, a.loader.Close)
	return nil
}

// openTelemetry routes warnings and token usage into the DuckDB file.
func (a *app) openTelemetry() error {
	db, err := sql.Open("duckdb", a.cfg.Telemetry.Path)
	if err != nil {
		return fmt.Errorf("failed to open telemetry database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	handler, err := telemetry.NewDuckDBHandler(a.logger.Handler(), db, slog.LevelWarn)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, handler.Close)
	a.logger = slog.New(handler)

	if a.tracker, err = llm.NewTokenTracker(db); err != nil {
		return fmt.Errorf("failed to create token tracker: %w", err)
	}
	return nil
}

func (a *app) newModel() (llm.Client, error) {
	cfg := llm.NewLLMConfig().
		WithProvider(llm.Provider(a.cfg.LLM.Provider)).
		WithModel(a.cfg.LLM.Model).
		WithAPIKey(a.cfg.LLM.APIKey).
		WithBaseURL(a.cfg.LLM.BaseURL).
		WithTemperature(a.cfg.LLM.Temperature)
	if a.cfg.LLM.Timeout > 0 {
		cfg.Timeout = a.cfg.LLM.Timeout
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if n := a.cfg.LLM.BreakerFailures; n > 0 {
		settings := llm.DefaultBreakerSettings()
		settings.ConsecutiveFailures = n
		a.breaker = llm.NewBreakerClient("llm", client, settings, a.logger)
		client = a.breaker
	}
	if a.tracker != nil {
		client = llm.NewTokenTrackingClient(client, a.tracker, a.logger)
	}
	if rpm := a.cfg.LLM.RequestsPerMinute; rpm > 0 {
		client = llm.NewRateLimitedClient(client, rpm, 1)
	}
	return client, nil
}

func (a *app) newCache() (cache.Backend, error) {
	switch a.cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "badger":
		b, err := cache.NewBadgerBackend(a.cfg.Cache.Dir, a.cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	case "sqlite":
		b, err := cache.NewSQLiteBackend(filepath.Join(a.cfg.Cache.Dir, "cache.db"), a.cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	default:
		return cache.NewFileSystemBackend(a.cfg.Cache.Dir), nil
	}
}

// ready fails while the model circuit is open.
func (a *app) ready() error {
	if a.breaker != nil && a.breaker.State() == "open" {
		return errors.New("llm circuit breaker is open")
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
