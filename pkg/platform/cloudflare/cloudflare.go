// Package cloudflare adapts Cloudflare Workers AI image models.
package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/polymage/internal/httpclient"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
)

const (
	Name           = "cloudflare"
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"
)

func init() {
	platform.Register(Name, NewFromConfig)
}

// Models returns the catalogue served by this adapter.
func Models() []*model.Model {
	return []*model.Model{
		model.New("flux-1-schnell", "@cf/black-forest-labs/flux-1-schnell",
			[]model.Capability{model.Text2Image},
			map[string]any{"steps": 8},
			model.WithOutputType(model.OutputBytes),
		),
		model.New("dreamshaper-8-lcm", "@cf/lykon/dreamshaper-8-lcm",
			[]model.Capability{model.Text2Image},
			map[string]any{"num_steps": 20, "height": 1024, "width": 1024, "guidance": 2.0},
			model.WithOutputType(model.OutputBytes),
		),
		model.New("lucid-origin", "@cf/leonardo/lucid-origin",
			[]model.Capability{model.Text2Image},
			map[string]any{"num_steps": 40, "height": 1120, "width": 1120, "guidance": 2.0},
			model.WithOutputType(model.OutputBase64),
		),
	}
}

type Provider struct {
	accountID string
	apiToken  string
	baseURL   string
	client    httpclient.HTTPClient
	models    []*model.Model
}

type Option func(*Provider)

func WithBaseURL(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithHTTPClient(c httpclient.HTTPClient) Option {
	return func(p *Provider) {
		if c != nil {
			p.client = c
		}
	}
}

func New(accountID, apiToken string, opts ...Option) *Provider {
	p := &Provider{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   DefaultBaseURL,
		client:    &http.Client{Timeout: 120 * time.Second},
		models:    Models(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig builds the adapter from a provider config entry.
func NewFromConfig(cfg platform.ProviderConfig) (platform.Provider, error) {
	if cfg.AccountID == "" || cfg.APIKey == "" {
		return nil, domain.InvalidInput("cloudflare requires account_id and api_key")
	}
	return New(cfg.AccountID, cfg.APIKey,
		WithBaseURL(cfg.BaseURL),
		WithHTTPClient(&http.Client{Timeout: cfg.TimeoutOr(120 * time.Second)}),
	), nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Models() []*model.Model { return p.models }

type runResponse struct {
	Result struct {
		Image string `json:"image"`
	} `json:"result"`
	Success bool `json:"success"`
}

func (p *Provider) Text2Image(ctx context.Context, m *model.Model, req *platform.Request) (*media.ImageMedia, error) {
	payload := platform.Payload(m, req.Params)
	payload["prompt"] = req.Prompt

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", p.baseURL, p.accountID, m.InternalName())
	resp, err := httpclient.Do(ctx, p.client, http.MethodPost, url, httpclient.Bearer(p.apiToken), payload)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		media.MetaSoftware:    Name + "/" + m.Name(),
		media.MetaDescription: req.Prompt,
	}

	// some binary models answer with the JSON envelope anyway
	if m.OutputType() == model.OutputBytes && !strings.HasPrefix(resp.ContentType, "application/json") {
		return media.FromBytes(resp.Body, metadata)
	}

	var out runResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode cloudflare response: %v", domain.ErrMalformedOutput, err)
	}
	if out.Result.Image == "" {
		return nil, fmt.Errorf("%w: cloudflare response has no image", domain.ErrMalformedOutput)
	}
	return media.FromBase64(out.Result.Image, metadata)
}
