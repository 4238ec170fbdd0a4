package agent

import (
	"context"

	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
)

// ImageGeneratorAgent generates from text when no image is given and edits
// the first image otherwise. The response model is never used.
type ImageGeneratorAgent struct {
	binding
}

func NewImageGeneratorAgent(cfg Config) *ImageGeneratorAgent {
	return &ImageGeneratorAgent{binding{cfg: cfg}}
}

func (a *ImageGeneratorAgent) Run(ctx context.Context, prompt string, images []*media.ImageMedia, params map[string]any) (*Result, error) {
	req := a.request(prompt, images, params)

	if len(images) == 0 {
		img, err := a.cfg.Platform.Text2Image(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: model.Text2Image, Image: img}, nil
	}

	img, err := a.cfg.Platform.Image2Image(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: model.Image2Image, Image: img}, nil
}
