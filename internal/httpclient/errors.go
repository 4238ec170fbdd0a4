package httpclient

import "fmt"

// UpstreamError represents an error returned by an upstream service
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("upstream error: status %d from %s: %s", e.StatusCode, e.URL, truncate(e.Body, 512))
	}
	return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
}

// HTTPStatus exposes the upstream status to the gateway error mapping.
func (e *UpstreamError) HTTPStatus() int {
	return e.StatusCode
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
