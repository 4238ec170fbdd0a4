package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest_DecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"prompt":"hi"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	var out struct {
		Result string `json:"result"`
	}
	err := SendRequest(context.Background(), server.Client(), http.MethodPost, server.URL, Bearer("secret"), map[string]string{"prompt": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Result)
}

func TestDo_ReturnsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer server.Close()

	resp, err := Do(context.Background(), server.Client(), http.MethodPost, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, resp.Body)
}

func TestDo_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	_, err := Do(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.HTTPStatus())
	assert.Equal(t, server.URL, upstream.URL)
	assert.Contains(t, upstream.Error(), "slow down")
}

func TestSendRequest_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := SendRequest(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, &out)
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestBearer(t *testing.T) {
	assert.Nil(t, Bearer(""))
	assert.Equal(t, map[string]string{"Authorization": "Bearer k"}, Bearer("k"))
}
