// Package lmstudio adapts a local LM Studio server through its
// OpenAI-compatible endpoints.
package lmstudio

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/polymage/internal/openaicompat"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
)

const (
	Name        = "lmstudio"
	DefaultHost = "127.0.0.1:1234"
	// LM Studio ignores the key but the client requires one.
	DefaultAPIKey = "lm-studio"
)

func init() {
	platform.Register(Name, NewFromConfig)
}

func Models() []*model.Model {
	caps := []model.Capability{model.Text2Text, model.Text2Data, model.Image2Text}
	defaults := map[string]any{"temperature": 0.8}
	return []*model.Model{
		model.New("gemma-3-27b", "gemma-3-27b-it-qat", caps, defaults),
		model.New("qwen3-vl-30b", "qwen/qwen3-vl-30b", caps, defaults),
	}
}

type Provider struct {
	client *openaicompat.Client
	models []*model.Model
}

type options struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*options)

// WithBaseURL replaces the http://host/v1 root.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

func WithAPIKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.apiKey = key
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

func New(host string, opts ...Option) *Provider {
	if host == "" {
		host = DefaultHost
	}
	o := options{baseURL: "http://" + host + "/v1", apiKey: DefaultAPIKey}
	for _, opt := range opts {
		opt(&o)
	}
	return &Provider{
		client: openaicompat.New(openaicompat.Config{BaseURL: o.baseURL, APIKey: o.apiKey, HTTPClient: o.httpClient}),
		models: Models(),
	}
}

func NewFromConfig(cfg platform.ProviderConfig) (platform.Provider, error) {
	return New(cfg.Host,
		WithBaseURL(cfg.BaseURL),
		WithAPIKey(cfg.APIKey),
		WithHTTPClient(&http.Client{Timeout: cfg.TimeoutOr(5 * time.Minute)}),
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

func (p *Provider) Text2Data(ctx context.Context, m *model.Model, req *platform.Request) (map[string]any, error) {
	name, schema, err := platform.Schema(req.ResponseModel)
	if err != nil {
		return nil, err
	}
	msg := p.message(m, req)
	msg.SchemaName, msg.Schema = name, schema
	return p.client.ChatJSON(ctx, msg)
}

// Image2Text goes through the responses endpoint, which LM Studio serves for
// vision models.
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
