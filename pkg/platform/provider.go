package platform

import (
	"context"

	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
)

// Provider is implemented by every adapter. Capabilities are opted into by
// implementing the matching interface below.
type Provider interface {
	Name() string
	Models() []*model.Model
}

type TextGenerator interface {
	Text2Text(ctx context.Context, m *model.Model, req *Request) (string, error)
}

type DataGenerator interface {
	Text2Data(ctx context.Context, m *model.Model, req *Request) (map[string]any, error)
}

type ImageGenerator interface {
	Text2Image(ctx context.Context, m *model.Model, req *Request) (*media.ImageMedia, error)
}

type ImageCaptioner interface {
	Image2Text(ctx context.Context, m *model.Model, req *Request) (string, error)
}

// ImageEditor edits req.Media[0]; remaining media are ignored.
type ImageEditor interface {
	Image2Image(ctx context.Context, m *model.Model, req *Request) (*media.ImageMedia, error)
}

// Implements reports whether p carries the method set for capability c.
func Implements(p Provider, c model.Capability) bool {
	switch c {
	case model.Text2Text:
		_, ok := p.(TextGenerator)
		return ok
	case model.Text2Data:
		_, ok := p.(DataGenerator)
		return ok
	case model.Text2Image:
		_, ok := p.(ImageGenerator)
		return ok
	case model.Image2Text:
		_, ok := p.(ImageCaptioner)
		return ok
	case model.Image2Image:
		_, ok := p.(ImageEditor)
		return ok
	}
	return false
}
