package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/internal/config"
	"github.com/nulzo/polymage/internal/gateway"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type studio struct {
	last *platform.Request
}

func (s *studio) Name() string { return "studio" }

func (s *studio) Models() []*model.Model {
	return []*model.Model{
		model.New("writer", "writer-v1", []model.Capability{model.Text2Text, model.Text2Data}, nil),
		model.New("painter", "painter-v1", []model.Capability{model.Text2Image, model.Image2Image}, nil),
		model.New("eye", "eye-v1", []model.Capability{model.Image2Text}, nil),
	}
}

func (s *studio) Text2Text(_ context.Context, _ *model.Model, req *platform.Request) (string, error) {
	s.last = req
	sys, _ := platform.ParamString(req.Params, platform.ParamSystemPrompt)
	return sys + "|" + req.Prompt, nil
}

func (s *studio) Text2Data(_ context.Context, _ *model.Model, req *platform.Request) (map[string]any, error) {
	s.last = req
	return map[string]any{"answer": req.Prompt}, nil
}

func (s *studio) Text2Image(_ context.Context, m *model.Model, req *platform.Request) (*media.ImageMedia, error) {
	s.last = req
	return media.FromImage(imaging.New(16, 9, color.White), map[string]string{
		media.MetaSoftware:    "studio/" + m.Name(),
		media.MetaDescription: req.Prompt,
	})
}

func (s *studio) Image2Text(_ context.Context, _ *model.Model, req *platform.Request) (string, error) {
	s.last = req
	return "a tiny square", nil
}

func (s *studio) Image2Image(_ context.Context, _ *model.Model, req *platform.Request) (*media.ImageMedia, error) {
	s.last = req
	return req.Media[0], nil
}

func setup(t *testing.T, mutate ...func(*config.Config)) (*Server, *studio) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	for _, m := range mutate {
		m(cfg)
	}

	fake := &studio{}
	svc := gateway.NewService(zap.NewNop())
	require.NoError(t, svc.Register("studio", platform.New(fake, platform.WithLogger(zap.NewNop()))))
	return New(cfg, zap.NewNop(), svc), fake
}

func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img, err := media.FromImage(imaging.New(w, h, color.Black), nil)
	require.NoError(t, err)
	s, err := img.ToBase64(media.DefaultFormat)
	require.NoError(t, err)
	return s
}

func TestHealth(t *testing.T) {
	s, _ := setup(t)
	w, body := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["platforms"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListPlatformsAndModels(t *testing.T) {
	s, _ := setup(t)

	w, body := do(t, s, http.MethodGet, "/v1/platforms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "studio", data[0].(map[string]any)["id"])

	w, body = do(t, s, http.MethodGet, "/v1/models?capability=image2text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "eye", data[0].(map[string]any)["id"])

	w, body = do(t, s, http.MethodGet, "/v1/models?platform=other", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["data"])

	w, body = do(t, s, http.MethodGet, "/v1/models?capability=text2video", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["errors"], "capability")
}

func TestText2Text(t *testing.T) {
	s, fake := setup(t)

	w, body := do(t, s, http.MethodPost, "/v1/text2text", map[string]any{
		"platform":      "studio",
		"model":         "writer",
		"prompt":        "hello",
		"system_prompt": "be brief",
		"params":        map[string]any{"temperature": 0.2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text2text", body["kind"])
	assert.Equal(t, "be brief|hello", body["text"])
	assert.Equal(t, 0.2, fake.last.Params["temperature"])
}

func TestText2Text_WithSchemaReturnsData(t *testing.T) {
	s, fake := setup(t)

	w, body := do(t, s, http.MethodPost, "/v1/text2text", map[string]any{
		"platform": "studio",
		"model":    "writer",
		"prompt":   "42",
		"schema":   map[string]any{"type": "object", "properties": map[string]any{"answer": map[string]any{"type": "string"}}},
		"images":   []string{pngBase64(t, 4, 4)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text2data", body["kind"])
	assert.Equal(t, map[string]any{"answer": "42"}, body["data"])
	assert.IsType(t, json.RawMessage{}, fake.last.ResponseModel)
	assert.Len(t, fake.last.Media, 1)
}

func TestText2Image(t *testing.T) {
	s, _ := setup(t)

	w, body := do(t, s, http.MethodPost, "/v1/text2image", map[string]any{
		"platform": "studio",
		"model":    "painter",
		"prompt":   "a red cube",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text2image", body["kind"])
	assert.Equal(t, float64(16), body["width"])
	assert.Equal(t, "a red cube", body["metadata"].(map[string]any)[media.MetaDescription])

	img, err := media.New(body["image"].(string), nil)
	require.NoError(t, err)
	assert.Equal(t, 9, img.Height())
}

func TestImage2TextAndImage2Image(t *testing.T) {
	s, _ := setup(t)

	w, body := do(t, s, http.MethodPost, "/v1/image2text", map[string]any{
		"platform": "studio",
		"model":    "eye",
		"image":    pngBase64(t, 8, 8),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "a tiny square", body["text"])

	w, body = do(t, s, http.MethodPost, "/v1/image2image", map[string]any{
		"platform": "studio",
		"model":    "painter",
		"prompt":   "make it blue",
		"image":    "data:image/png;base64," + pngBase64(t, 6, 3),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image2image", body["kind"])
	assert.Equal(t, float64(6), body["width"])
}

func TestInvoke_Errors(t *testing.T) {
	s, _ := setup(t)

	cases := []struct {
		name   string
		path   string
		body   map[string]any
		status int
	}{
		{"missing fields", "/v1/text2text", map[string]any{"platform": "studio"}, http.StatusBadRequest},
		{"unknown platform", "/v1/text2text", map[string]any{"platform": "nope", "model": "writer", "prompt": "x"}, http.StatusNotFound},
		{"unknown model", "/v1/text2image", map[string]any{"platform": "studio", "model": "nope", "prompt": "x"}, http.StatusNotFound},
		{"unsupported capability", "/v1/text2image", map[string]any{"platform": "studio", "model": "writer", "prompt": "x"}, http.StatusUnprocessableEntity},
		{"bad image", "/v1/image2text", map[string]any{"platform": "studio", "model": "eye", "image": "not-an-image"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := do(t, s, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, float64(tc.status), body["status"])
		})
	}
}

func TestAuthAndRateLimit(t *testing.T) {
	s, _ := setup(t, func(c *config.Config) {
		c.Server.APIKeys = []string{"k1"}
		c.RateLimit.RequestsPerSecond = 1
		c.RateLimit.Burst = 1
	})

	w, _ := do(t, s, http.MethodGet, "/v1/platforms", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// health stays public
	w, _ = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	authed := func() int {
		req := httptest.NewRequest(http.MethodGet, "/v1/platforms", nil)
		req.Header.Set("Authorization", "Bearer k1")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, authed())
	assert.Equal(t, http.StatusTooManyRequests, authed())
}
