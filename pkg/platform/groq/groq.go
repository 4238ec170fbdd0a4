// Package groq adapts Groq's OpenAI-compatible chat completions API.
package groq

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/polymage/internal/openaicompat"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
)

const (
	Name                = "groq"
	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultSystemPrompt = "You are a helpful assistant."
)

var (
	structuredDefaults = map[string]any{"temperature": 0.8}
	visionDefaults     = map[string]any{"temperature": 1.0, "top_p": 1.0, "max_completion_tokens": 1024}
)

func init() {
	platform.Register(Name, NewFromConfig)
}

func Models() []*model.Model {
	return []*model.Model{
		model.New("llama-3.3-70b", "llama-3.3-70b-versatile",
			[]model.Capability{model.Text2Text}, nil),
		model.New("gpt-oss-20b", "openai/gpt-oss-20b",
			[]model.Capability{model.Text2Text, model.Text2Data}, nil),
		model.New("llama-4-scout", "meta-llama/llama-4-scout-17b-16e-instruct",
			[]model.Capability{model.Text2Text, model.Text2Data, model.Image2Text}, nil),
	}
}

type Provider struct {
	client *openaicompat.Client
	models []*model.Model
}

type options struct {
	baseURL    string
	httpClient *http.Client
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

func New(apiKey string, opts ...Option) *Provider {
	o := options{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Provider{
		client: openaicompat.New(openaicompat.Config{BaseURL: o.baseURL, APIKey: apiKey, HTTPClient: o.httpClient}),
		models: Models(),
	}
}

func NewFromConfig(cfg platform.ProviderConfig) (platform.Provider, error) {
	if cfg.APIKey == "" {
		return nil, domain.InvalidInput("groq requires api_key")
	}
	return New(cfg.APIKey,
		WithBaseURL(cfg.BaseURL),
		WithHTTPClient(&http.Client{Timeout: cfg.TimeoutOr(60 * time.Second)}),
	), nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Models() []*model.Model { return p.models }

func (p *Provider) Text2Text(ctx context.Context, m *model.Model, req *platform.Request) (string, error) {
	out, err := p.client.Chat(ctx, openaicompat.Message{
		Model:  m.InternalName(),
		System: req.SystemPrompt(DefaultSystemPrompt),
		Prompt: req.Prompt,
		Params: platform.Payload(m, req.Params),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *Provider) Text2Data(ctx context.Context, m *model.Model, req *platform.Request) (map[string]any, error) {
	name, schema, err := platform.Schema(req.ResponseModel)
	if err != nil {
		return nil, err
	}
	return p.client.ChatJSON(ctx, openaicompat.Message{
		Model:      m.InternalName(),
		System:     req.SystemPrompt(DefaultSystemPrompt),
		Prompt:     req.Prompt,
		Params:     platform.MergeParams(structuredDefaults, platform.Payload(m, req.Params)),
		SchemaName: name,
		Schema:     schema,
	})
}

// Image2Text sends the first image inline as a data URI.
func (p *Provider) Image2Text(ctx context.Context, m *model.Model, req *platform.Request) (string, error) {
	uri, err := req.Media[0].DataURI(media.DefaultFormat)
	if err != nil {
		return "", err
	}
	out, err := p.client.Chat(ctx, openaicompat.Message{
		Model:    m.InternalName(),
		System:   req.SystemPrompt(""),
		Prompt:   req.Prompt,
		ImageURL: uri,
		Params:   platform.MergeParams(visionDefaults, platform.Payload(m, req.Params)),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
