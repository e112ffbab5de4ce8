package prompts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"

	"github.com/kaptinlin/jsonrepair"

	"github.com/soundprediction/go-geoai/pkg/types"
)

//go:embed templates/*.json
var embedded embed.FS

// Embedded returns the built-in template catalog.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

type template struct {
	id        TemplateID
	raw       rawTemplate
	variables []string
}

// Registry holds parsed templates. It is immutable after NewRegistry returns
// and safe for concurrent use.
type Registry struct {
	templates map[TemplateID]*template
}

// NewRegistry reads and parses every template in AllTemplates from fsys.
// A file that is not valid JSON is repaired once before giving up.
func NewRegistry(fsys fs.FS, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{templates: make(map[TemplateID]*template)}
	for _, id := range AllTemplates() {
		data, err := fs.ReadFile(fsys, id.FileName())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: template file %s does not exist", types.ErrTemplate, id.FileName())
			}
			return nil, fmt.Errorf("%w: read %s: %v", types.ErrTemplate, id.FileName(), err)
		}
		tmpl, err := parseTemplate(id, data, logger)
		if err != nil {
			return nil, err
		}
		r.templates[id] = tmpl
	}
	return r, nil
}

func parseTemplate(id TemplateID, data []byte, logger *slog.Logger) (*template, error) {
	var raw rawTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", types.ErrTemplate, id.FileName(), err)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", types.ErrTemplate, id.FileName(), err)
		}
		logger.Warn("repaired malformed template", "template", id.FileName(), "error", err)
	}
	if len(raw.Messages) == 0 {
		return nil, fmt.Errorf("%w: template %s has no messages", types.ErrTemplate, id.FileName())
	}

	seen := make(map[string]bool)
	var variables []string
	for _, m := range raw.Messages {
		for _, field := range []string{m.Role, m.Content} {
			for _, match := range placeholderRe.FindAllStringSubmatch(field, -1) {
				if !seen[match[1]] {
					seen[match[1]] = true
					variables = append(variables, match[1])
				}
			}
		}
	}
	return &template{id: id, raw: raw, variables: variables}, nil
}

// Variables lists the placeholders a template references, in order of first use.
func (r *Registry) Variables(id TemplateID) []string {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil
	}
	return append([]string(nil), tmpl.variables...)
}

// Render substitutes ctx into the template. Substitution happens on the parsed
// role and content fields, so values may contain quotes, braces or newlines.
// Values are inserted verbatim and never rescanned for placeholders.
func (r *Registry) Render(id TemplateID, ctx map[string]string) (*TemplateData, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template file %s does not exist", types.ErrTemplate, id.FileName())
	}
	for _, name := range tmpl.variables {
		if _, ok := ctx[name]; !ok {
			return nil, fmt.Errorf("%w: missing context variable '%s' in template %s", types.ErrTemplate, name, id.FileName())
		}
	}

	substitute := func(s string) string {
		return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
			return ctx[placeholderRe.FindStringSubmatch(match)[1]]
		})
	}

	out := &TemplateData{
		Name:      tmpl.raw.Name,
		MaxTokens: tmpl.raw.MaxTokens,
		Messages:  make([]types.Message, len(tmpl.raw.Messages)),
	}
	for i, m := range tmpl.raw.Messages {
		out.Messages[i] = types.Message{
			Role:    types.Role(substitute(m.Role)),
			Content: substitute(m.Content),
		}
	}
	return out, nil
}

// DefaultRegistry loads the embedded catalog.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Embedded(), nil)
}
