package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/go-geoai/pkg/describe"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/prompts"
	"github.com/soundprediction/go-geoai/pkg/sandbox"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// Generator asks the model for a snippet implementing a request.
type Generator struct {
	client     llm.Client
	registry   *prompts.Registry
	descriptor describe.Descriptor
	logger     *slog.Logger
}

// NewGenerator creates a generator. A nil descriptor uses describe.NewPublicDescriptor
// with the default sample size.
func NewGenerator(client llm.Client, registry *prompts.Registry, descriptor describe.Descriptor, logger *slog.Logger) *Generator {
	if descriptor == nil {
		descriptor = describe.NewPublicDescriptor(describe.DefaultSampleRows)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, registry: registry, descriptor: descriptor, logger: logger}
}

// Parameters renders the parameter list of execute for datasets.
func Parameters(datasets []frame.Dataset) string {
	params := make([]string, len(datasets))
	for i, ds := range datasets {
		typ := "*frame.DataFrame"
		if _, ok := ds.(*geo.GeoDataFrame); ok {
			typ = "*geo.GeoDataFrame"
		}
		params[i] = fmt.Sprintf("df_%d %s", i+1, typ)
	}
	return strings.Join(params, ", ")
}

// Signature is the function header generated code must define.
func Signature(kind types.ResultKind, datasets []frame.Dataset) string {
	return fmt.Sprintf("func %s(%s) %s", sandbox.EntryPoint, Parameters(datasets), kind.GoType())
}

// Generate returns the snippet with code fences removed. It does not check
// that the snippet compiles.
func (g *Generator) Generate(ctx context.Context, prompt string, kind types.ResultKind, datasets []frame.Dataset) (string, error) {
	return g.generate(ctx, prompts.TemplateCode, g.variables(prompt, kind, datasets))
}

// Regenerate asks for a corrected snippet after previousCode failed with execErr.
func (g *Generator) Regenerate(ctx context.Context, prompt string, kind types.ResultKind, datasets []frame.Dataset, previousCode string, execErr error) (string, error) {
	vars := g.variables(prompt, kind, datasets)
	vars["previous_code"] = previousCode
	vars["error"] = execErr.Error()
	return g.generate(ctx, prompts.TemplateCodePreviouslyError, vars)
}

func (g *Generator) variables(prompt string, kind types.ResultKind, datasets []frame.Dataset) map[string]string {
	return map[string]string{
		"parameters":    Parameters(datasets),
		"return_type":   kind.GoType(),
		"prompt":        prompt,
		"libraries":     strings.Join(sandbox.AllowedImports(), ", "),
		"api_reference": apiReference,
		"result_phrase": kind.Phrase(),
		"descriptions":  describe.Datasets(g.descriptor, datasets),
	}
}

func (g *Generator) generate(ctx context.Context, id prompts.TemplateID, vars map[string]string) (string, error) {
	data, err := g.registry.Render(id, vars)
	if err != nil {
		return "", err
	}

	ctx = context.WithValue(ctx, types.ContextKeyStage, string(id))
	resp, err := g.client.Chat(ctx, data.Messages, llm.WithMaxTokens(data.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrGeneration, err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("%w: empty response from the model", types.ErrGeneration)
	}
	code := StripCodeFences(resp.Content)
	g.logger.DebugContext(ctx, "generated snippet", "template", id, "bytes", len(code))
	return code, nil
}
