// Package server exposes the question pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/config"
	"github.com/soundprediction/go-geoai/pkg/server/handlers"
	"github.com/soundprediction/go-geoai/pkg/server/middleware"
)

// Server wires the HTTP routes to a GeoAI client
type Server struct {
	cfg    *config.Config
	ai     geoai.GeoAI
	loader handlers.DatasetLoader
	ready  func() error
	logger *slog.Logger

	engine *gin.Engine
	http   *http.Server
}

// New creates a server; call Setup before Start.
func New(cfg *config.Config, ai geoai.GeoAI, loader handlers.DatasetLoader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, ai: ai, loader: loader, logger: logger}
}

// SetReadiness installs the check behind GET /ready.
func (s *Server) SetReadiness(ready func() error) {
	s.ready = ready
}

// Setup registers middleware and routes.
func (s *Server) Setup() {
	if s.cfg.Server.Mode != "" {
		gin.SetMode(s.cfg.Server.Mode)
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())

	health := handlers.NewHealthHandler(s.ready)
	s.engine.GET("/health", health.HealthCheck)
	s.engine.GET("/ready", health.ReadinessCheck)

	api := s.engine.Group("/api/v1")
	if s.cfg.Server.AuthSecret != "" {
		api.Use(middleware.RequireBearer(s.cfg.Server.AuthSecret))
	}
	{
		ask := handlers.NewAskHandler(s.ai, s.loader, s.cfg.Server.DataRoot)
		api.POST("/ask", ask.Ask)

		cache := handlers.NewCacheHandler(s.ai)
		api.DELETE("/cache/:key", cache.Clear)
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
