package agent

import (
	"context"

	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
)

type ImageCaptionerAgent struct {
	binding
}

func NewImageCaptionerAgent(cfg Config) *ImageCaptionerAgent {
	return &ImageCaptionerAgent{binding{cfg: cfg}}
}

func (a *ImageCaptionerAgent) Run(ctx context.Context, prompt string, images []*media.ImageMedia, params map[string]any) (*Result, error) {
	text, err := a.cfg.Platform.Image2Text(ctx, a.request(prompt, images, params))
	if err != nil {
		return nil, err
	}
	return &Result{Kind: model.Image2Text, Text: text}, nil
}
