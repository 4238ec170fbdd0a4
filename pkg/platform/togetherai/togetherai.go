// Package togetherai adapts the Together AI OpenAI-compatible API.
package togetherai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nulzo/polymage/internal/openaicompat"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
	"go.uber.org/zap"
)

const (
	Name           = "togetherai"
	DefaultBaseURL = "https://api.together.xyz/v1"

	// MaxStructuredAttempts bounds structured-output calls that return
	// unparseable content.
	MaxStructuredAttempts = 3
)

func init() {
	platform.Register(Name, NewFromConfig)
}

func Models() []*model.Model {
	defaults := map[string]any{"temperature": 0.8}
	return []*model.Model{
		model.New("gpt-oss-20b", "openai/gpt-oss-20b",
			[]model.Capability{model.Text2Text, model.Text2Data}, defaults),
		model.New("qwen2.5-vl-72b", "Qwen/Qwen2.5-VL-72B-Instruct",
			[]model.Capability{model.Text2Text, model.Image2Text}, defaults),
	}
}

type Provider struct {
	client     *openaicompat.Client
	models     []*model.Model
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

type options struct {
	baseURL    string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

type Option func(*options)

func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithBackOff sets the pacing between structured-output attempts.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(o *options) {
		if f != nil {
			o.newBackOff = f
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 4 * time.Second
	return b
}

func New(apiKey string, opts ...Option) *Provider {
	o := options{
		baseURL:    DefaultBaseURL,
		newBackOff: defaultBackOff,
		logger:     zap.L(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Provider{
		client:     openaicompat.New(openaicompat.Config{BaseURL: o.baseURL, APIKey: apiKey, HTTPClient: o.httpClient}),
		models:     Models(),
		newBackOff: o.newBackOff,
		logger:     o.logger.With(zap.String("platform", Name)),
	}
}

func NewFromConfig(cfg platform.ProviderConfig) (platform.Provider, error) {
	if cfg.APIKey == "" {
		return nil, domain.InvalidInput("togetherai requires api_key")
	}
	return New(cfg.APIKey,
		WithBaseURL(cfg.BaseURL),
		WithHTTPClient(&http.Client{Timeout: cfg.TimeoutOr(120 * time.Second)}),
	), nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Models() []*model.Model { return p.models }

func (p *Provider) Text2Text(ctx context.Context, m *model.Model, req *platform.Request) (string, error) {
	out, err := p.client.Chat(ctx, p.message(m, req))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Text2Data retries only when the model answers with content that does not
// parse. Transport and API errors are returned after the first attempt.
func (p *Provider) Text2Data(ctx context.Context, m *model.Model, req *platform.Request) (map[string]any, error) {
	name, schema, err := platform.Schema(req.ResponseModel)
	if err != nil {
		return nil, err
	}
	msg := p.message(m, req)
	msg.SchemaName, msg.Schema = name, schema

	attempt := 0
	op := func() (map[string]any, error) {
		attempt++
		data, err := p.client.ChatJSON(ctx, msg)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, domain.ErrMalformedOutput) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		p.logger.Warn("structured output did not parse, retrying",
			zap.String("model", m.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(MaxStructuredAttempts),
		backoff.WithNotify(notify),
	)
}

func (p *Provider) Image2Text(ctx context.Context, m *model.Model, req *platform.Request) (string, error) {
	uri, err := req.Media[0].DataURI(media.DefaultFormat)
	if err != nil {
		return "", err
	}
	msg := p.message(m, req)
	msg.ImageURL = uri
	return p.client.Describe(ctx, msg)
}

func (p *Provider) message(m *model.Model, req *platform.Request) openaicompat.Message {
	return openaicompat.Message{
		Model:  m.InternalName(),
		System: req.SystemPrompt(""),
		Prompt: req.Prompt,
		Params: platform.Payload(m, req.Params),
	}
}
