// Package telemetry records pipeline warnings and errors in DuckDB.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/go-geoai/pkg/types"
)

const queueSize = 256

type event struct {
	id, level, message                      string
	timestamp                               time.Time
	requestID, userID, requestSource, stage string
	sourceFile                              string
	line                                    int
	attributes                              string
}

// sink owns the single writer goroutine shared by every derived handler.
type sink struct {
	db     *sql.DB
	events chan event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// DuckDBHandler is a slog.Handler that copies warnings and errors to DuckDB
type DuckDBHandler struct {
	next     slog.Handler
	sink     *sink
	minLevel slog.Level
	attrs    []slog.Attr
	groups   []string
}

// NewDuckDBHandler creates a new DuckDBHandler. Records at minLevel and above
// are written to the pipeline_events table; every record reaches next.
func NewDuckDBHandler(next slog.Handler, db *sql.DB, minLevel slog.Level) (*DuckDBHandler, error) {
	s := &sink{
		db:     db,
		events: make(chan event, queueSize),
		done:   make(chan struct{}),
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	go s.run()

	return &DuckDBHandler{next: next, sink: s, minLevel: minLevel}, nil
}

// initSchema creates the pipeline_events table
func (s *sink) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS pipeline_events (
		id VARCHAR,
		timestamp TIMESTAMP,
		level VARCHAR,
		message VARCHAR,
		request_id VARCHAR,
		user_id VARCHAR,
		request_source VARCHAR,
		stage VARCHAR,
		source_file VARCHAR,
		line_number INTEGER,
		attributes JSON
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *sink) run() {
	defer close(s.done)

	query := `
	INSERT INTO pipeline_events (
		id, timestamp, level, message,
		request_id, user_id, request_source, stage,
		source_file, line_number, attributes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for e := range s.events {
		_, err := s.db.Exec(query,
			e.id, e.timestamp, e.level, e.message,
			e.requestID, e.userID, e.requestSource, e.stage,
			e.sourceFile, e.line, e.attributes,
		)
		if err != nil {
			// Fallback: print to stderr if DB logging fails
			fmt.Fprintf(os.Stderr, "Failed to log event to DuckDB: %v\n", err)
		}
	}
}

func (s *sink) enqueue(e event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		fmt.Fprintf(os.Stderr, "telemetry queue full, dropping %q\n", e.message)
	}
}

// Close stops accepting events and waits until queued ones are written.
// The database itself is left open.
func (h *DuckDBHandler) Close() error {
	s := h.sink
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

// Enabled implements slog.Handler
func (h *DuckDBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel || h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *DuckDBHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level < h.minLevel {
		return nil
	}

	e := event{
		id:            uuid.New().String(),
		timestamp:     r.Time.UTC(),
		level:         r.Level.String(),
		message:       r.Message,
		requestID:     contextString(ctx, types.ContextKeyRequestID),
		userID:        contextString(ctx, types.ContextKeyUserID),
		requestSource: contextString(ctx, types.ContextKeyRequestSource),
		stage:         contextString(ctx, types.ContextKeyStage),
	}

	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs[prefix+a.Key] = v
		return true
	})
	// Loggers derived with With("request_id", ...) carry it as an attribute
	if e.requestID == "" {
		if v, ok := attrs["request_id"].(string); ok {
			e.requestID = v
		}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		attrsJSON = []byte("{}")
	}
	e.attributes = string(attrsJSON)

	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		e.sourceFile, e.line = f.File, f.Line
	}

	h.sink.enqueue(e)
	return nil
}

// WithAttrs implements slog.Handler
func (h *DuckDBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := groupPrefix(h.groups)
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		merged = append(merged, a)
	}
	return &DuckDBHandler{
		next:     h.next.WithAttrs(attrs),
		sink:     h.sink,
		minLevel: h.minLevel,
		attrs:    merged,
		groups:   h.groups,
	}
}

// WithGroup implements slog.Handler
func (h *DuckDBHandler) WithGroup(name string) slog.Handler {
	groups := append(append([]string{}, h.groups...), name)
	return &DuckDBHandler{
		next:     h.next.WithGroup(name),
		sink:     h.sink,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		groups:   groups,
	}
}

func contextString(ctx context.Context, key types.ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func groupPrefix(groups []string) string {
	prefix := ""
	for _, g := range groups {
		prefix += g + "."
	}
	return prefix
}
