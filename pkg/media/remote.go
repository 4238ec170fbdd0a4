package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/polymage/internal/httpclient"
	"github.com/nulzo/polymage/pkg/domain"
)

// FromURL downloads an image over http(s). PNG text chunks in the payload
// are restored as metadata, as with FromFile.
func FromURL(ctx context.Context, client httpclient.HTTPClient, url string) (*ImageMedia, error) {
	if !IsURL(url) {
		return nil, domain.InvalidInput("unsupported image URL %q", url)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := httpclient.Do(ctx, client, http.MethodGet, url, map[string]string{"Accept": "image/*"}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return fromEncoded(resp.Body)
}

// IsURL reports whether s names a remote image rather than a file or
// base64 payload.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
