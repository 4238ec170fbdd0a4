package agent

import (
	"context"

	"github.com/nulzo/polymage/pkg/media"
)

// InstructAgent answers prompts with text, or with structured data when a
// response model is configured.
type InstructAgent struct {
	binding
}

func NewInstructAgent(cfg Config) *InstructAgent {
	return &InstructAgent{binding{cfg: cfg}}
}

func (a *InstructAgent) Run(ctx context.Context, prompt string, images []*media.ImageMedia, params map[string]any) (*Result, error) {
	req := a.request(prompt, images, params)
	req.ResponseModel = a.cfg.ResponseModel

	res, err := a.cfg.Platform.Text2Text(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: res.Kind, Text: res.Text, Data: res.Data}, nil
}
