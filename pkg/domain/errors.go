package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by every platform, agent and media operation.
// Callers match these with errors.Is; provider failures are never translated
// into one of these and keep their own concrete types.
var (
	ErrModelNotFound         = errors.New("model not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnsupportedCapability = errors.New("unsupported capability")
	ErrMalformedOutput       = errors.New("malformed structured output")
	ErrPlatformNotFound      = errors.New("platform not found")
)

// InvalidInput wraps ErrInvalidInput with a formatted detail.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// StatusCoder is implemented by upstream errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) Unwrap() error {
	return p.Log
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// NewProblem creates a generic Problem
func NewProblem(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank", // Default as per RFC
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// ValidationProblem creates a rich validation error
func ValidationProblem(validationErrors map[string]string) *Problem {
	return NewProblem(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithExtension("errors", validationErrors),
	)
}

// ProblemFromError maps the error taxonomy onto an HTTP problem.
func ProblemFromError(err error) *Problem {
	var problem *Problem
	if errors.As(err, &problem) {
		return problem
	}

	switch {
	case errors.Is(err, ErrModelNotFound):
		return NewProblem(http.StatusNotFound, "Model Not Found", err.Error(), WithLog(err))
	case errors.Is(err, ErrPlatformNotFound):
		return NewProblem(http.StatusNotFound, "Platform Not Found", err.Error(), WithLog(err))
	case errors.Is(err, ErrInvalidInput):
		return NewProblem(http.StatusBadRequest, "Bad Request", err.Error(), WithLog(err))
	case errors.Is(err, ErrUnsupportedCapability):
		return NewProblem(http.StatusUnprocessableEntity, "Unsupported Capability", err.Error(), WithLog(err))
	case errors.Is(err, ErrMalformedOutput):
		return NewProblem(http.StatusBadGateway, "Malformed Provider Output", err.Error(), WithLog(err))
	}

	var coder StatusCoder
	if errors.As(err, &coder) {
		status := coder.HTTPStatus()
		// only pass through client-side statuses, everything else is a gateway failure
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		return NewProblem(status, "Upstream Provider Error", err.Error(),
			WithExtension("upstream_status", coder.HTTPStatus()),
			WithLog(err),
		)
	}

	return NewProblem(http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred.", WithLog(err))
}
