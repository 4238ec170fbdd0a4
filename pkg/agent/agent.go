// Package agent binds a platform, a model and an optional system prompt or
// response model into single-purpose callables.
package agent

import (
	"context"
	"slices"

	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
)

// Platform is the part of *platform.Platform agents call into.
type Platform interface {
	Text2Text(ctx context.Context, req *platform.Request) (*platform.TextResult, error)
	Text2Image(ctx context.Context, req *platform.Request) (*media.ImageMedia, error)
	Image2Text(ctx context.Context, req *platform.Request) (string, error)
	Image2Image(ctx context.Context, req *platform.Request) (*media.ImageMedia, error)
}

var _ Platform = (*platform.Platform)(nil)

type Config struct {
	Platform      Platform
	Model         string
	ResponseModel any
	SystemPrompt  string
}

// Result holds whichever output the bound operation produced.
type Result struct {
	Kind  model.Capability
	Text  string
	Data  map[string]any
	Image *media.ImageMedia
}

// Agent runs one bound operation. Agents keep no state between runs.
type Agent interface {
	Run(ctx context.Context, prompt string, images []*media.ImageMedia, params map[string]any) (*Result, error)
}

const (
	KindInstruct  = "instruct"
	KindCaptioner = "captioner"
	KindGenerator = "generator"
)

// Kinds lists the agent kinds New accepts.
var Kinds = []string{KindInstruct, KindCaptioner, KindGenerator}

func New(kind string, cfg Config) (Agent, error) {
	if cfg.Platform == nil {
		return nil, domain.InvalidInput("agent requires a platform")
	}
	if cfg.Model == "" {
		return nil, domain.InvalidInput("agent requires a model")
	}

	switch kind {
	case KindInstruct:
		return NewInstructAgent(cfg), nil
	case KindCaptioner:
		return NewImageCaptionerAgent(cfg), nil
	case KindGenerator:
		return NewImageGeneratorAgent(cfg), nil
	}
	return nil, domain.InvalidInput("unknown agent kind %q", kind)
}

type binding struct {
	cfg Config
}

func (b binding) Config() Config { return b.cfg }

// request copies the caller's params and writes the agent system prompt
// last, so it replaces any system_prompt the caller passed.
func (b binding) request(prompt string, images []*media.ImageMedia, params map[string]any) *platform.Request {
	p := model.CloneParams(params)
	if b.cfg.SystemPrompt != "" {
		p[platform.ParamSystemPrompt] = b.cfg.SystemPrompt
	}
	return &platform.Request{
		Model:  b.cfg.Model,
		Prompt: prompt,
		Media:  slices.Clone(images),
		Params: p,
	}
}
