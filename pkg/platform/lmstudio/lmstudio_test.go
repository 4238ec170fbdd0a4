package lmstudio_test

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/platform"
	"github.com/nulzo/polymage/pkg/platform/lmstudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText2Text(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer lm-studio", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Hello!\n"}}]}`))
	}))
	defer server.Close()

	p := platform.New(lmstudio.New("", lmstudio.WithBaseURL(server.URL+"/v1")))
	res, err := p.Text2Text(context.Background(), &platform.Request{Model: "gemma-3-27b", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", res.Text)

	assert.Equal(t, "gemma-3-27b-it-qat", body["model"])
	assert.InDelta(t, 0.8, body["temperature"], 1e-6)
	// no system message without a system prompt
	assert.Len(t, body["messages"], 1)
}

func TestText2Data_MalformedIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{oops"}}]}`))
	}))
	defer server.Close()

	p := platform.New(lmstudio.New("", lmstudio.WithBaseURL(server.URL)))
	_, err := p.Text2Text(context.Background(), &platform.Request{
		Model:         "qwen3-vl-30b",
		Prompt:        "x",
		ResponseModel: map[string]any{"type": "object"},
	})
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestImage2Text_UsesResponsesEndpoint(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"A black square."}]}]}`))
	}))
	defer server.Close()

	img, err := media.FromImage(imaging.New(4, 4, color.Black), nil)
	require.NoError(t, err)

	p := platform.New(lmstudio.New("", lmstudio.WithBaseURL(server.URL+"/v1")))
	text, err := p.Image2Text(context.Background(), &platform.Request{
		Model:  "qwen3-vl-30b",
		Prompt: "Describe the image",
		Media:  []*media.ImageMedia{img},
	})
	require.NoError(t, err)
	assert.Equal(t, "A black square.", text)

	input := body["input"].([]any)[0].(map[string]any)
	content := input["content"].([]any)
	assert.Equal(t, "Describe the image", content[0].(map[string]any)["text"])
	assert.Contains(t, content[1].(map[string]any)["image_url"], "data:image/png;base64,")
}

func TestImage2Text_EmptyMediaFailsBeforeIO(t *testing.T) {
	// unroutable host: a network call would fail with a different error
	p := platform.New(lmstudio.New("127.0.0.1:1"))
	_, err := p.Image2Text(context.Background(), &platform.Request{Model: "gemma-3-27b", Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
