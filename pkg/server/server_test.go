package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/config"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/server"
	"github.com/soundprediction/go-geoai/pkg/server/dto"
	"github.com/soundprediction/go-geoai/pkg/types"
	"github.com/soundprediction/go-geoai/pkg/webmap"
)

type stubAI struct {
	result   *geoai.Result
	err      error
	prompt   string
	datasets []frame.Dataset
	opts     int
	cleared  []string
}

func (s *stubAI) Ask(_ context.Context, prompt string, datasets []frame.Dataset, opts ...geoai.AskOption) (*geoai.Result, error) {
	s.prompt, s.datasets, s.opts = prompt, datasets, len(opts)
	return s.result, s.err
}

func (s *stubAI) ClearCache(key string) error {
	s.cleared = append(s.cleared, key)
	return nil
}

func (s *stubAI) Close() error { return nil }

type stubLoader struct {
	paths []string
}

func (l *stubLoader) LoadAll(_ context.Context, paths []string) ([]frame.Dataset, error) {
	l.paths = paths
	out := make([]frame.Dataset, len(paths))
	for i, p := range paths {
		if p == "missing.csv" {
			return nil, fmt.Errorf("dataset %s: not found", p)
		}
		out[i] = frame.MustNew(frame.NewStrings("path", []string{p}))
	}
	return out, nil
}

func newServer(t *testing.T, ai *stubAI, loader *stubLoader, dataRoot string) http.Handler {
	t.Helper()
	cfg := &config.Config{Server: config.ServerConfig{Host: "localhost", Port: 8080, Mode: "test", DataRoot: dataRoot}}
	srv := server.New(cfg, ai, loader, nil)
	srv.Setup()
	return srv.Handler()
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	h := newServer(t, &stubAI{}, &stubLoader{}, "")

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "go-geoai")
	}
}

func TestReadinessFailure(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Mode: "test"}}
	srv := server.New(cfg, &stubAI{}, &stubLoader{}, nil)
	srv.SetReadiness(func() error { return errors.New("model unreachable") })
	srv.Setup()

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "model unreachable")
}

func TestAskTextResult(t *testing.T) {
	ai := &stubAI{result: &geoai.Result{Kind: types.KindText, Value: "20", Code: "func execute() string", RequestID: "r1"}}
	loader := &stubLoader{}
	h := newServer(t, ai, loader, "")

	w := post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "average?", Datasets: []string{"a.csv", "b.csv"}, Kind: "TEXT", NoCache: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TEXT", resp.Kind)
	assert.Equal(t, "20", resp.Value)
	assert.Equal(t, "r1", resp.RequestID)

	assert.Equal(t, "average?", ai.prompt)
	assert.Equal(t, []string{"a.csv", "b.csv"}, loader.paths)
	assert.Len(t, ai.datasets, 2)
	assert.Equal(t, 2, ai.opts)
}

func TestAskGeoFrameRendersGeoJSON(t *testing.T) {
	g := geo.MustNew(frame.MustNew(frame.NewStrings("name", []string{"a"})), []orb.Geometry{orb.Point{1, 2}}, "")
	ai := &stubAI{result: &geoai.Result{Kind: types.KindGeoDataFrame, Value: geoai.NewGeoFrame(g, nil)}}
	h := newServer(t, ai, &stubLoader{}, "")

	w := post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "points", Datasets: []string{"p.geojson"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Value struct {
			Type     string            `json:"type"`
			Features []json.RawMessage `json:"features"`
		} `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FeatureCollection", resp.Value.Type)
	assert.Len(t, resp.Value.Features, 1)
}

func TestAskRenderedFormats(t *testing.T) {
	fig := chart.NewFigure("values").Bar("v", []string{"a", "b"}, []float64{1, 2})
	ai := &stubAI{result: &geoai.Result{Kind: types.KindPlot, Value: fig}}
	h := newServer(t, ai, &stubLoader{}, "")

	w := post(t, h, "/api/v1/ask?format=svg", dto.AskRequest{Prompt: "plot"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")

	ai.result = &geoai.Result{Kind: types.KindMap, Value: webmap.NewMap(orb.Point{0, 0}, 3)}
	w = post(t, h, "/api/v1/ask?format=html", dto.AskRequest{Prompt: "map"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "leaflet.js")
}

func TestAskValidation(t *testing.T) {
	h := newServer(t, &stubAI{}, &stubLoader{}, "")

	w := post(t, h, "/api/v1/ask", map[string]any{"datasets": []string{"a.csv"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "x", Kind: "TABLE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "x", Datasets: []string{"missing.csv"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_dataset")
}

func TestAskDataRootConfinesPaths(t *testing.T) {
	loader := &stubLoader{}
	ai := &stubAI{result: &geoai.Result{Kind: types.KindText, Value: "ok"}}
	h := newServer(t, ai, loader, "/srv/data")

	w := post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "x", Datasets: []string{"../../etc/passwd", "sub/a.csv"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"/srv/data/etc/passwd", "/srv/data/sub/a.csv"}, loader.paths)
}

func TestAskDataRootRejectsSymlinkEscape(t *testing.T) {
	root, outside := t.TempDir(), t.TempDir()
	secret := filepath.Join(outside, "secret.csv")
	require.NoError(t, os.WriteFile(secret, []byte("a\n1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "inside.csv"), []byte("a\n1\n"), 0o600))
	require.NoError(t, os.Symlink(secret, filepath.Join(root, "leak.csv")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(filepath.Join(root, "inside.csv"), filepath.Join(root, "alias.csv")))

	for _, p := range []string{"leak.csv", "linked/secret.csv"} {
		t.Run(p, func(t *testing.T) {
			loader := &stubLoader{}
			h := newServer(t, &stubAI{result: &geoai.Result{Kind: types.KindText}}, loader, root)
			w := post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "x", Datasets: []string{p}})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "outside the data root")
			assert.Nil(t, loader.paths)
		})
	}

	loader := &stubLoader{}
	h := newServer(t, &stubAI{result: &geoai.Result{Kind: types.KindText, Value: "ok"}}, loader, root)
	w := post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "x", Datasets: []string{"alias.csv"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{filepath.Join(root, "alias.csv")}, loader.paths)
}

func TestAskErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: boom", types.ErrExecution), http.StatusUnprocessableEntity, "execution_failed"},
		{fmt.Errorf("%w: expected string", types.ErrTypeMismatch), http.StatusUnprocessableEntity, "type_mismatch"},
		{fmt.Errorf("%w: %w", types.ErrClassification, types.ErrFormatMismatch), http.StatusBadGateway, "classification_failed"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := newServer(t, &stubAI{err: tt.err}, &stubLoader{}, "")
			w := post(t, h, "/api/v1/ask", dto.AskRequest{Prompt: "x"})
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestClearCache(t *testing.T) {
	ai := &stubAI{}
	h := newServer(t, ai, &stubLoader{}, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/cache/abc123", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"abc123"}, ai.cleared)
}

func TestAuthSecretProtectsAPI(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Mode: "test", AuthSecret: "s3cret"}}
	ai := &stubAI{}
	srv := server.New(cfg, ai, &stubLoader{}, nil)
	srv.Setup()
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/cache/abc123", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ai.cleared)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "ops"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache/abc123", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"abc123"}, ai.cleared)
}
