package gateway

import (
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
	"go.uber.org/zap"
)

// PlatformInfo is the public description of a registered platform.
type PlatformInfo struct {
	ID           string             `json:"id"`
	Provider     string             `json:"provider"`
	Capabilities []model.Capability `json:"capabilities"`
	Models       int                `json:"models"`
}

// ModelInfo is the public description of one model on one platform.
type ModelInfo struct {
	ID            string             `json:"id"`
	Platform      string             `json:"platform"`
	InternalName  string             `json:"internal_name"`
	Capabilities  []model.Capability `json:"capabilities"`
	OutputType    model.OutputType   `json:"output_type"`
	DefaultParams map[string]any     `json:"default_params,omitempty"`
}

// ModelFilter narrows ListModels; zero fields match everything.
type ModelFilter struct {
	Platform   string           `form:"platform"`
	Capability model.Capability `form:"capability" binding:"omitempty,capability"`
}

// Service exposes the configured platforms to the HTTP and CLI surfaces.
type Service interface {
	Register(id string, p *platform.Platform) error
	Platform(id string) (*platform.Platform, error)
	Platforms() []PlatformInfo
	ListModels(filter ModelFilter) []ModelInfo
}

type service struct {
	logger   *zap.Logger
	registry *registry
}

func NewService(logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{logger: logger, registry: newRegistry()}
}

func (s *service) Register(id string, p *platform.Platform) error {
	if err := s.registry.add(id, p); err != nil {
		return err
	}
	s.logger.Debug("platform registered",
		zap.String("id", id),
		zap.String("provider", p.Name()),
		zap.Int("models", len(p.Models())),
	)
	return nil
}

func (s *service) Platform(id string) (*platform.Platform, error) {
	return s.registry.get(id)
}

func (s *service) Platforms() []PlatformInfo {
	ids := s.registry.ids()
	out := make([]PlatformInfo, 0, len(ids))
	for _, id := range ids {
		p, err := s.registry.get(id)
		if err != nil {
			continue
		}
		var caps []model.Capability
		for _, c := range model.Capabilities {
			if p.Supports(c) {
				caps = append(caps, c)
			}
		}
		out = append(out, PlatformInfo{ID: id, Provider: p.Name(), Capabilities: caps, Models: len(p.Models())})
	}
	return out
}

func (s *service) ListModels(filter ModelFilter) []ModelInfo {
	var results []ModelInfo
	for _, id := range s.registry.ids() {
		if filter.Platform != "" && filter.Platform != id {
			continue
		}
		p, err := s.registry.get(id)
		if err != nil {
			continue
		}
		for _, m := range p.Models() {
			if filter.Capability != "" && !(m.Supports(filter.Capability) && p.Supports(filter.Capability)) {
				continue
			}
			results = append(results, ModelInfo{
				ID:            m.Name(),
				Platform:      id,
				InternalName:  m.InternalName(),
				Capabilities:  m.Capabilities(),
				OutputType:    m.OutputType(),
				DefaultParams: m.DefaultParams(),
			})
		}
	}
	return results
}
