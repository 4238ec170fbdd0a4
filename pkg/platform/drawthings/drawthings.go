// Package drawthings adapts the local Draw Things HTTP API, which follows
// the AUTOMATIC1111 sdapi routes.
package drawthings

import (
	"context"
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
	Name        = "drawthings"
	DefaultHost = "127.0.0.1:7860"
)

func init() {
	platform.Register(Name, NewFromConfig)
}

func settings(steps int, sampler string, guidance float64, resolutionShift bool, loras []map[string]any) map[string]any {
	s := map[string]any{
		"negative_prompt":            "",
		"steps":                      steps,
		"batch_count":                1,
		"sampler":                    sampler,
		"seed":                       -1,
		"hires_fix":                  false,
		"tiled_decoding":             false,
		"clip_skip":                  1,
		"shift":                      1.0,
		"guidance_scale":             guidance,
		"resolution_dependent_shift": resolutionShift,
	}
	if loras != nil {
		s["loras"] = loras
	}
	return s
}

func lora(file string) []map[string]any {
	return []map[string]any{{"file": file, "weight": 1, "mode": "all"}}
}

// Models returns the presets installed on a default Draw Things setup.
func Models() []*model.Model {
	t2i := []model.Capability{model.Text2Image}
	i2i := []model.Capability{model.Image2Image}
	both := []model.Capability{model.Text2Image, model.Image2Image}
	base64 := model.WithOutputType(model.OutputBase64)

	return []*model.Model{
		model.New("hidream-fast", "hidream_i1_fast_q8p.ckpt", t2i,
			settings(14, "DPM++ 2M Trailing", 1.0, false, nil), base64),
		model.New("flux-kontext", "flux_1_kontext_dev_q8p.ckpt", both,
			settings(8, "DPM++ 2M Trailing", 2.0, true, lora("flux.1_turbo_alpha_lora_f16.ckpt")), base64),
		model.New("qwen-image-edit-4-steps", "qwen_image_edit_2509_q8p.ckpt", i2i,
			settings(5, "DPM++ 2M Trailing", 2.0, true, lora("qwen_image_edit_2509_lightning_4_step_v1.0_lora_f16.ckpt")), base64),
		model.New("qwen-image-edit-8-steps", "qwen_image_edit_2509_q8p.ckpt", i2i,
			settings(8, "DPM++ 2M Trailing", 2.0, true, lora("qwen_image_edit_2509_lightning_8_step_v1.0_lora_f16.ckpt")), base64),
		model.New("zimage-turbo", "z_image_turbo_1.0_q8p.ckpt", t2i,
			settings(10, "UniPC Trailing", 1.0, false, []map[string]any{}), base64),
	}
}

type Provider struct {
	baseURL string
	client  httpclient.HTTPClient
	models  []*model.Model
}

type Option func(*Provider)

// WithBaseURL replaces the http://host root, mainly for tests.
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

func New(host string, opts ...Option) *Provider {
	if host == "" {
		host = DefaultHost
	}
	p := &Provider{
		baseURL: "http://" + host,
		// local generation can take minutes
		client: &http.Client{Timeout: 10 * time.Minute},
		models: Models(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewFromConfig(cfg platform.ProviderConfig) (platform.Provider, error) {
	return New(cfg.Host,
		WithBaseURL(cfg.BaseURL),
		WithHTTPClient(&http.Client{Timeout: cfg.TimeoutOr(10 * time.Minute)}),
	), nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Models() []*model.Model { return p.models }

type sdResponse struct {
	Images []string `json:"images"`
}

func (p *Provider) Text2Image(ctx context.Context, m *model.Model, req *platform.Request) (*media.ImageMedia, error) {
	payload := p.payload(m, req)
	return p.generate(ctx, "/sdapi/v1/txt2img", m, req.Prompt, payload)
}

// Image2Image snaps a copy of the first image to its nearest aspect bucket
// and sends it as the init image at the bucket resolution.
func (p *Provider) Image2Image(ctx context.Context, m *model.Model, req *platform.Request) (*media.ImageMedia, error) {
	src, err := media.New(req.Media[0], nil)
	if err != nil {
		return nil, err
	}
	bucket := src.FitAspect()

	encoded, err := src.ToBase64(media.DefaultFormat)
	if err != nil {
		return nil, err
	}

	payload := p.payload(m, req)
	payload["width"] = bucket.Width
	payload["height"] = bucket.Height
	payload["init_images"] = []string{encoded}

	return p.generate(ctx, "/sdapi/v1/img2img", m, req.Prompt, payload)
}

func (p *Provider) payload(m *model.Model, req *platform.Request) map[string]any {
	payload := platform.Payload(m, req.Params)
	payload["model"] = m.InternalName()
	payload["prompt"] = req.Prompt
	return payload
}

func (p *Provider) generate(ctx context.Context, path string, m *model.Model, prompt string, payload map[string]any) (*media.ImageMedia, error) {
	var out sdResponse
	if err := httpclient.SendRequest(ctx, p.client, http.MethodPost, p.baseURL+path, nil, payload, &out); err != nil {
		return nil, err
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("%w: drawthings returned no images", domain.ErrMalformedOutput)
	}

	return media.FromBase64(out.Images[0], map[string]string{
		media.MetaSoftware:    Name + "/" + m.Name(),
		media.MetaDescription: prompt,
	})
}
