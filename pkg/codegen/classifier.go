package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/soundprediction/go-geoai/pkg/llm"
	"github.com/soundprediction/go-geoai/pkg/prompts"
	"github.com/soundprediction/go-geoai/pkg/types"
)

var typeTagRe = regexp.MustCompile(`(?sm)<Type>(` + strings.Join(types.Labels(), "|") + `)</Type>`)

// Classifier decides which ResultKind answers a prompt.
type Classifier struct {
	client   llm.Client
	registry *prompts.Registry
	logger   *slog.Logger
}

// NewClassifier creates a classifier. A nil logger uses slog.Default.
func NewClassifier(client llm.Client, registry *prompts.Registry, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, registry: registry, logger: logger}
}

// Classify asks the model once. It does not retry.
func (c *Classifier) Classify(ctx context.Context, prompt string) (types.ResultKind, error) {
	labels := types.Labels()
	data, err := c.registry.Render(prompts.TemplateDetermineType, map[string]string{
		"prompt":  prompt,
		"choices": strings.Join(labels, " - "),
		"example": labels[0],
	})
	if err != nil {
		return 0, err
	}

	ctx = context.WithValue(ctx, types.ContextKeyStage, "classify")
	resp, err := c.client.Chat(ctx, data.Messages, llm.WithMaxTokens(data.MaxTokens))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", types.ErrClassification, err)
	}
	return parseKind(resp.Content)
}

// parseKind extracts the first <Type>LABEL</Type> tag from a model reply.
func parseKind(reply string) (types.ResultKind, error) {
	if reply == "" {
		return 0, fmt.Errorf("%w: %w", types.ErrClassification, types.ErrInvalidResponse)
	}
	match := typeTagRe.FindStringSubmatch(reply)
	if match == nil {
		return 0, fmt.Errorf("%w: %w: %q", types.ErrClassification, types.ErrFormatMismatch, reply)
	}
	kind, err := types.ParseResultKind(match[1])
	if err != nil {
		panic(err)
	}
	return kind, nil
}
