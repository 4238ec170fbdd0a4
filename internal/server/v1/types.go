package v1

import (
	"encoding/json"

	"github.com/nulzo/polymage/pkg/model"
)

// Target names the platform and model an invocation runs on.
type Target struct {
	Platform string
	Model    string
}

type Text2TextRequest struct {
	Platform     string          `json:"platform" binding:"required"`
	Model        string          `json:"model" binding:"required"`
	Prompt       string          `json:"prompt" binding:"required"`
	SystemPrompt string          `json:"system_prompt"`
	Schema       json.RawMessage `json:"schema"`
	Images       []string        `json:"images" binding:"omitempty,max=8,dive,required"`
	Params       map[string]any  `json:"params"`
}

func (r *Text2TextRequest) target() Target { return Target{r.Platform, r.Model} }

type Text2ImageRequest struct {
	Platform string         `json:"platform" binding:"required"`
	Model    string         `json:"model" binding:"required"`
	Prompt   string         `json:"prompt" binding:"required"`
	Params   map[string]any `json:"params"`
}

func (r *Text2ImageRequest) target() Target { return Target{r.Platform, r.Model} }

type Image2TextRequest struct {
	Platform     string         `json:"platform" binding:"required"`
	Model        string         `json:"model" binding:"required"`
	Prompt       string         `json:"prompt"`
	SystemPrompt string         `json:"system_prompt"`
	Image        string         `json:"image" binding:"required"`
	Params       map[string]any `json:"params"`
}

func (r *Image2TextRequest) target() Target { return Target{r.Platform, r.Model} }

type Image2ImageRequest struct {
	Platform string         `json:"platform" binding:"required"`
	Model    string         `json:"model" binding:"required"`
	Prompt   string         `json:"prompt" binding:"required"`
	Image    string         `json:"image" binding:"required"`
	Params   map[string]any `json:"params"`
}

func (r *Image2ImageRequest) target() Target { return Target{r.Platform, r.Model} }

type TextResponse struct {
	Platform string           `json:"platform"`
	Model    string           `json:"model"`
	Kind     model.Capability `json:"kind"`
	Text     string           `json:"text,omitempty"`
	Data     map[string]any   `json:"data,omitempty"`
}

// ImageResponse carries the result as base64 PNG.
type ImageResponse struct {
	Platform string            `json:"platform"`
	Model    string            `json:"model"`
	Kind     model.Capability  `json:"kind"`
	Image    string            `json:"image"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
