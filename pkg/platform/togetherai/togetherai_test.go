package togetherai_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/platform"
	"github.com/nulzo/polymage/pkg/platform/togetherai"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Recipe struct {
	Title string `json:"title"`
}

// sequenceServer answers chat completions with the given contents in order,
// repeating the last one.
func sequenceServer(t *testing.T, contents ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(contents) {
			n = len(contents) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":%q}}]}`, contents[n])
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newPlatform(url string) *platform.Platform {
	return platform.New(togetherai.New("together-key",
		togetherai.WithBaseURL(url),
		togetherai.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	))
}

func structured() *platform.Request {
	return &platform.Request{Model: "gpt-oss-20b", Prompt: "a soup", ResponseModel: Recipe{}}
}

func TestText2Data_RecoversAfterMalformedAttempts(t *testing.T) {
	server, calls := sequenceServer(t, "not json", `{"title":`, `{"title":"Leek soup"}`)

	res, err := newPlatform(server.URL).Text2Text(context.Background(), structured())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Leek soup"}, res.Data)
	assert.EqualValues(t, 3, calls.Load())
}

func TestText2Data_FailsAfterThreeMalformedAttempts(t *testing.T) {
	server, calls := sequenceServer(t, "still not json")

	_, err := newPlatform(server.URL).Text2Text(context.Background(), structured())
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
	assert.EqualValues(t, togetherai.MaxStructuredAttempts, calls.Load())
}

func TestText2Data_DoesNotRetryProviderErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	_, err := newPlatform(server.URL).Text2Text(context.Background(), structured())

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestText2Text(t *testing.T) {
	server, _ := sequenceServer(t, " plain answer ")

	res, err := newPlatform(server.URL).Text2Text(context.Background(), &platform.Request{Model: "gpt-oss-20b", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", res.Text)
}

func TestCapabilities(t *testing.T) {
	p := newPlatform("http://127.0.0.1:1")

	_, err := p.Text2Text(context.Background(), &platform.Request{Model: "qwen2.5-vl-72b", ResponseModel: Recipe{}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCapability)

	_, err = p.Image2Text(context.Background(), &platform.Request{Model: "gpt-oss-20b"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = p.Text2Image(context.Background(), &platform.Request{Model: "gpt-oss-20b"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCapability)
}
