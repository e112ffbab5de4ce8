package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/server/dto"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// DatasetLoader reads datasets named in a request.
type DatasetLoader interface {
	LoadAll(ctx context.Context, paths []string) ([]frame.Dataset, error)
}

// AskHandler handles question requests
type AskHandler struct {
	ai       geoai.GeoAI
	loader   DatasetLoader
	dataRoot string
}

// NewAskHandler creates a new ask handler. When dataRoot is set, dataset
// paths are resolved inside it and may not escape it.
func NewAskHandler(ai geoai.GeoAI, loader DatasetLoader, dataRoot string) *AskHandler {
	return &AskHandler{ai: ai, loader: loader, dataRoot: dataRoot}
}

// Ask handles POST /ask
//
// The optional format query parameter renders PLOT results as "svg" or "png"
// and MAP results as "html" instead of JSON.
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	var opts []geoai.AskOption
	if req.Kind != "" {
		kind, err := types.ParseResultKind(req.Kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_kind", Message: err.Error()})
			return
		}
		opts = append(opts, geoai.WithKind(kind))
	}
	if req.NoCache {
		opts = append(opts, geoai.WithoutCache())
	}

	paths, err := h.resolve(req.Datasets)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_dataset", Message: err.Error()})
		return
	}

	ctx := context.WithValue(c.Request.Context(), types.ContextKeyRequestSource, "http")
	datasets, err := h.loader.LoadAll(ctx, paths)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_dataset", Message: err.Error()})
		return
	}

	res, err := h.ai.Ask(ctx, req.Prompt, datasets, opts...)
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error(), Code: status})
		return
	}

	switch format := c.Query("format"); {
	case format == "html":
		if m, ok := res.Map(); ok {
			c.Status(http.StatusOK)
			c.Header("Content-Type", "text/html; charset=utf-8")
			if err := m.WriteHTML(c.Writer); err != nil {
				_ = c.Error(err)
			}
			return
		}
	case format == "svg" || format == "png":
		if f, ok := res.Figure(); ok {
			c.Status(http.StatusOK)
			c.Header("Content-Type", contentType(format))
			if err := chart.Render(f, c.Writer, format, 6, 4); err != nil {
				_ = c.Error(err)
			}
			return
		}
	}

	c.JSON(http.StatusOK, responseFor(res))
}

func (h *AskHandler) resolve(paths []string) ([]string, error) {
	if h.dataRoot == "" {
		return paths, nil
	}
	root, err := filepath.EvalSymlinks(h.dataRoot)
	if err != nil {
		root = filepath.Clean(h.dataRoot)
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		full := filepath.Join(h.dataRoot, filepath.Clean("/"+p))
		if !within(h.dataRoot, full) {
			return nil, fmt.Errorf("dataset path %q is outside the data root", p)
		}
		// Missing files are left for the loader to report.
		resolved, err := filepath.EvalSymlinks(full)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("resolve dataset path %q: %w", p, err)
		}
		if err == nil && !within(root, resolved) {
			return nil, fmt.Errorf("dataset path %q is outside the data root", p)
		}
		out[i] = full
	}
	return out, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func responseFor(res *geoai.Result) dto.AskResponse {
	resp := dto.AskResponse{
		RequestID: res.RequestID,
		Kind:      res.Kind.Label(),
		Cached:    res.Cached,
		CacheKey:  res.CacheKey,
		Code:      res.Code,
		Value:     res.Value,
	}
	if g, ok := res.GeoFrame(); ok {
		resp.Value = g.FeatureCollection()
	}
	return resp
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, types.ErrTypeMismatch):
		return http.StatusUnprocessableEntity, "type_mismatch"
	case errors.Is(err, types.ErrExecution):
		return http.StatusUnprocessableEntity, "execution_failed"
	case errors.Is(err, types.ErrClassification):
		return http.StatusBadGateway, "classification_failed"
	case errors.Is(err, types.ErrGeneration):
		return http.StatusBadGateway, "generation_failed"
	}
	return http.StatusInternalServerError, "internal_error"
}

func contentType(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/svg+xml"
}
