package groq_test

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
	"github.com/nulzo/polymage/pkg/platform/groq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	body map[string]any
}

func (c *capture) messages() []map[string]any {
	var out []map[string]any
	for _, m := range c.body["messages"].([]any) {
		out = append(out, m.(map[string]any))
	}
	return out
}

func chatServer(t *testing.T, c *capture, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestText2Text_DefaultSystemPrompt(t *testing.T) {
	c := &capture{}
	server := chatServer(t, c, "  Paris \n")
	p := platform.New(groq.New("gsk-test", groq.WithBaseURL(server.URL)))

	res, err := p.Text2Text(context.Background(), &platform.Request{Model: "llama-3.3-70b", Prompt: "Capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.Text)

	assert.Equal(t, "llama-3.3-70b-versatile", c.body["model"])
	msgs := c.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, groq.DefaultSystemPrompt, msgs[0]["content"])
	assert.Equal(t, "Capital of France?", msgs[1]["content"])
}

func TestText2Text_CallerSystemPrompt(t *testing.T) {
	c := &capture{}
	server := chatServer(t, c, "ok")
	p := platform.New(groq.New("gsk-test", groq.WithBaseURL(server.URL)))

	_, err := p.Text2Text(context.Background(), &platform.Request{
		Model:  "gpt-oss-20b",
		Prompt: "hi",
		Params: map[string]any{platform.ParamSystemPrompt: "You are a pirate."},
	})
	require.NoError(t, err)
	assert.Equal(t, "You are a pirate.", c.messages()[0]["content"])
	assert.NotContains(t, c.body, platform.ParamSystemPrompt)
}

type UserProfile struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestText2Data(t *testing.T) {
	c := &capture{}
	server := chatServer(t, c, `{"name":"Ada","age":36}`)
	p := platform.New(groq.New("gsk-test", groq.WithBaseURL(server.URL)))

	res, err := p.Text2Text(context.Background(), &platform.Request{
		Model:         "gpt-oss-20b",
		Prompt:        "Ada Lovelace, 36",
		ResponseModel: UserProfile{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.Data["name"])
	assert.EqualValues(t, 36, res.Data["age"])

	assert.InDelta(t, 0.8, c.body["temperature"], 1e-6)
	format := c.body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "UserProfile", format["json_schema"].(map[string]any)["name"])
}

func TestText2Data_UnsupportedModel(t *testing.T) {
	p := platform.New(groq.New("gsk-test"))
	_, err := p.Text2Text(context.Background(), &platform.Request{
		Model:         "llama-3.3-70b",
		ResponseModel: UserProfile{},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCapability)
}

func TestImage2Text(t *testing.T) {
	c := &capture{}
	server := chatServer(t, c, "A white square.")
	p := platform.New(groq.New("gsk-test", groq.WithBaseURL(server.URL)))

	img, err := media.FromImage(imaging.New(4, 4, color.White), nil)
	require.NoError(t, err)

	text, err := p.Image2Text(context.Background(), &platform.Request{
		Model:  "llama-4-scout",
		Prompt: "What is in this image?",
		Media:  []*media.ImageMedia{img},
	})
	require.NoError(t, err)
	assert.Equal(t, "A white square.", text)

	assert.InDelta(t, 1.0, c.body["temperature"], 1e-6)
	assert.InDelta(t, 1.0, c.body["top_p"], 1e-6)
	assert.EqualValues(t, 1024, c.body["max_completion_tokens"])

	msgs := c.messages()
	require.Len(t, msgs, 1)
	parts := msgs[0]["content"].([]any)
	require.Len(t, parts, 2)
	imagePart := parts[1].(map[string]any)
	assert.Equal(t, "image_url", imagePart["type"])
	assert.Contains(t, imagePart["image_url"].(map[string]any)["url"], "data:image/png;base64,")
}

func TestNewFromConfig(t *testing.T) {
	_, err := platform.Build(platform.ProviderConfig{ID: "g", Type: groq.Name})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := platform.Build(platform.ProviderConfig{ID: "g", Type: groq.Name, APIKey: "k"})
	require.NoError(t, err)
	assert.Len(t, p.Models(), 3)
}
