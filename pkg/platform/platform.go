package platform

import (
	"context"
	"fmt"

	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/nulzo/polymage/pkg/platform"

// Platform is the uniform entry point over one provider. Every operation
// resolves the model, validates its inputs and checks the capability before
// the provider is called. Provider errors are logged and returned unchanged.
type Platform struct {
	provider Provider
	registry *Registry
	logger   *zap.Logger
	tracer   trace.Tracer
}

type Option func(*Platform)

func WithLogger(l *zap.Logger) Option {
	return func(p *Platform) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Platform) {
		if t != nil {
			p.tracer = t
		}
	}
}

func New(provider Provider, opts ...Option) *Platform {
	p := &Platform{
		provider: provider,
		registry: NewRegistry(provider.Models()...),
		logger:   zap.L(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("platform", provider.Name()))
	return p
}

func (p *Platform) Name() string { return p.provider.Name() }

func (p *Platform) Models() []*model.Model { return p.registry.Models() }

func (p *Platform) Lookup(name string) (*model.Model, error) { return p.registry.Lookup(name) }

// Supports reports whether the provider implements capability c at all.
func (p *Platform) Supports(c model.Capability) bool { return Implements(p.provider, c) }

// Text2Text answers a prompt. A request with a response model is routed to
// structured output and the result carries decoded data instead of text.
func (p *Platform) Text2Text(ctx context.Context, req *Request) (*TextResult, error) {
	if req == nil {
		return nil, domain.InvalidInput("request is nil")
	}
	kind := req.Kind()
	ctx, span := p.start(ctx, kind, req)
	defer span.End()

	m, err := p.resolve(req, kind)
	if err != nil {
		return nil, p.fail(span, kind, req, err)
	}

	if kind == model.Text2Data {
		data, err := p.provider.(DataGenerator).Text2Data(ctx, m, req)
		if err != nil {
			return nil, p.fail(span, kind, req, err)
		}
		return &TextResult{Kind: kind, Data: data}, nil
	}

	text, err := p.provider.(TextGenerator).Text2Text(ctx, m, req)
	if err != nil {
		return nil, p.fail(span, kind, req, err)
	}
	return &TextResult{Kind: kind, Text: text}, nil
}

func (p *Platform) Text2Image(ctx context.Context, req *Request) (*media.ImageMedia, error) {
	if req == nil {
		return nil, domain.InvalidInput("request is nil")
	}
	ctx, span := p.start(ctx, model.Text2Image, req)
	defer span.End()

	m, err := p.resolve(req, model.Text2Image)
	if err != nil {
		return nil, p.fail(span, model.Text2Image, req, err)
	}

	img, err := p.provider.(ImageGenerator).Text2Image(ctx, m, req)
	if err != nil {
		return nil, p.fail(span, model.Text2Image, req, err)
	}
	return img, nil
}

// Image2Text captions req.Media[0]. At least one image is required.
func (p *Platform) Image2Text(ctx context.Context, req *Request) (string, error) {
	if req == nil {
		return "", domain.InvalidInput("request is nil")
	}
	ctx, span := p.start(ctx, model.Image2Text, req)
	defer span.End()

	m, err := p.resolve(req, model.Image2Text)
	if err != nil {
		return "", p.fail(span, model.Image2Text, req, err)
	}

	text, err := p.provider.(ImageCaptioner).Image2Text(ctx, m, req)
	if err != nil {
		return "", p.fail(span, model.Image2Text, req, err)
	}
	return text, nil
}

// Image2Image edits req.Media[0]; any further media are ignored.
func (p *Platform) Image2Image(ctx context.Context, req *Request) (*media.ImageMedia, error) {
	if req == nil {
		return nil, domain.InvalidInput("request is nil")
	}
	ctx, span := p.start(ctx, model.Image2Image, req)
	defer span.End()

	m, err := p.resolve(req, model.Image2Image)
	if err != nil {
		return nil, p.fail(span, model.Image2Image, req, err)
	}

	img, err := p.provider.(ImageEditor).Image2Image(ctx, m, req)
	if err != nil {
		return nil, p.fail(span, model.Image2Image, req, err)
	}
	return img, nil
}

// resolve runs every check that must pass before network I/O: model lookup,
// input validation, then the capability check.
func (p *Platform) resolve(req *Request, c model.Capability) (*model.Model, error) {
	m, err := p.registry.Lookup(req.Model)
	if err != nil {
		return nil, err
	}

	if err := validate(req, c); err != nil {
		return nil, err
	}

	if !Implements(p.provider, c) {
		return nil, fmt.Errorf("%w: platform %s does not implement %s", domain.ErrUnsupportedCapability, p.Name(), c)
	}
	if !m.Supports(c) {
		return nil, fmt.Errorf("%w: model %s does not declare %s", domain.ErrUnsupportedCapability, m.Name(), c)
	}
	return m, nil
}

func validate(req *Request, c model.Capability) error {
	switch c {
	case model.Image2Text, model.Image2Image:
		if len(req.Media) == 0 {
			return domain.InvalidInput("%s requires at least one image", c)
		}
		if req.Media[0] == nil {
			return domain.InvalidInput("%s: first image is nil", c)
		}
	}
	return nil
}

func (p *Platform) start(ctx context.Context, c model.Capability, req *Request) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "platform."+string(c),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("polymage.platform", p.Name()),
			attribute.String("polymage.model", req.Model),
			attribute.String("polymage.capability", string(c)),
			attribute.Int("polymage.media.count", len(req.Media)),
		),
	)
}

func (p *Platform) fail(span trace.Span, c model.Capability, req *Request, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.Error("platform call failed",
		zap.String("model", req.Model),
		zap.String("capability", string(c)),
		zap.Error(err),
	)
	return err
}
