package bench

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AttacksTarget(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("Authorization") != "Bearer k" || string(body) != `{"prompt":"x"}` {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	report, err := Run(context.Background(), Options{
		URL:      srv.URL,
		Body:     []byte(`{"prompt":"x"}`),
		APIKey:   "k",
		Rate:     20,
		Duration: 250 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Positive(t, report.Requests)
	assert.Equal(t, int64(report.Requests), hits.Load())
	assert.Equal(t, 1.0, report.Success)
	assert.Empty(t, report.Errors)
	assert.Equal(t, int(report.Requests), report.StatusCodes["200"])
}

func TestRun_ReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	report, err := Run(context.Background(), Options{URL: srv.URL, Rate: 10, Duration: 200 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Success)
	assert.NotEmpty(t, report.Errors)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "Success:         0.00%")
}

func TestRun_ValidatesOptions(t *testing.T) {
	_, err := Run(context.Background(), Options{Rate: 1, Duration: time.Second})
	assert.Error(t, err)
	_, err = Run(context.Background(), Options{URL: "http://x", Duration: time.Second})
	assert.Error(t, err)
	_, err = Run(context.Background(), Options{URL: "http://x", Rate: 1})
	assert.Error(t, err)
}

func TestUniqueErrors(t *testing.T) {
	got := uniqueErrors([]string{"a", "b", "a", "c", "d", "e", "f"}, 3)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
