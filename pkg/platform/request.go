package platform

import (
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
)

// ParamSystemPrompt is the reserved parameter carrying a system prompt.
const ParamSystemPrompt = "system_prompt"

// Request is the uniform call shape of every platform operation.
type Request struct {
	Model  string
	Prompt string
	Media  []*media.ImageMedia
	// ResponseModel switches text requests to structured output. It may be a
	// Go struct (value or pointer), a map[string]any schema, raw schema JSON,
	// or a *jsonschema.Schema.
	ResponseModel any
	Params        map[string]any
}

// Kind is the capability a text request routes to.
func (r *Request) Kind() model.Capability {
	if r.ResponseModel != nil {
		return model.Text2Data
	}
	return model.Text2Text
}

// SystemPrompt returns the system_prompt parameter, or def when unset.
func (r *Request) SystemPrompt(def string) string {
	if s, ok := ParamString(r.Params, ParamSystemPrompt); ok {
		return s
	}
	return def
}

// TextResult carries either plain text or decoded structured data.
type TextResult struct {
	Kind model.Capability `json:"kind"`
	Text string           `json:"text,omitempty"`
	Data map[string]any   `json:"data,omitempty"`
}
