package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorHandler(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		message  string
		wantCode string
	}{
		{name: "error message has red color", level: slog.LevelError, message: "test error", wantCode: colorRed},
		{name: "warning message has yellow color", level: slog.LevelWarn, message: "test warning", wantCode: colorYellow},
		{name: "info message has no color", level: slog.LevelInfo, message: "test info"},
		{name: "cache hit message has green color", level: slog.LevelInfo, message: "served from cache", wantCode: colorGreen},
		{name: "cache write message has green color", level: slog.LevelInfo, message: "Stored result in Cache", wantCode: colorGreen},
		{name: "cache warning stays yellow", level: slog.LevelWarn, message: "cache write failed", wantCode: colorYellow},
		{name: "debug message has no color", level: slog.LevelDebug, message: "test debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug)

			logger.Log(t.Context(), tt.level, tt.message)
			output := buf.String()

			assert.Contains(t, output, tt.message)
			if tt.wantCode != "" {
				assert.Contains(t, output, tt.wantCode)
				assert.Contains(t, output, colorReset)
				return
			}
			assert.NotContains(t, output, colorRed)
			assert.NotContains(t, output, colorYellow)
			assert.NotContains(t, output, colorGreen)
		})
	}
}

func TestColorHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug)

	logger.Error("test error", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test error")
	assert.Contains(t, output, " key=value")
	assert.Contains(t, output, colorRed)
}

func TestColorHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug).
		With("request_id", "r1").
		WithGroup("sandbox").
		With("kind", "TEXT")

	logger.Info("ran snippet", "attempt", 2, slog.Group("dataset", "rows", 3))

	output := buf.String()
	assert.Contains(t, output, " request_id=r1")
	assert.Contains(t, output, " sandbox.kind=TEXT")
	assert.Contains(t, output, " sandbox.attempt=2")
	assert.Contains(t, output, " sandbox.dataset.rows=3")
}

func TestColorHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger(slog.LevelInfo)
	require.NotNil(t, logger)

	logger.Info("test info")
	logger.Error("test error")
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)

	logger.Info("hello", "kind", "MAP")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"kind":"MAP"`)
}
