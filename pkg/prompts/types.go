package prompts

import (
	"github.com/soundprediction/go-geoai/pkg/types"
)

// TemplateID names a template file without its .json extension.
type TemplateID string

const (
	// TemplateDetermineType asks the model which result kind a prompt needs.
	TemplateDetermineType TemplateID = "determine_type"
	// TemplateCode asks the model for a snippet.
	TemplateCode TemplateID = "code"
	// TemplateCodePreviouslyError asks the model to repair a snippet that failed.
	TemplateCodePreviouslyError TemplateID = "code_previously_error"
)

// AllTemplates lists the templates a registry must provide.
func AllTemplates() []TemplateID {
	return []TemplateID{TemplateDetermineType, TemplateCode, TemplateCodePreviouslyError}
}

// FileName is the file the template is read from.
func (id TemplateID) FileName() string { return string(id) + ".json" }

// TemplateData is a rendered template ready to be sent to the model.
type TemplateData struct {
	Name      string          `json:"name"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []types.Message `json:"messages"`
}

// rawTemplate mirrors the on-disk layout.
type rawTemplate struct {
	Name      string `json:"name"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}
