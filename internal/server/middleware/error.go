package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/pkg/domain"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error as an
// RFC 9457 problem.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		problem := Problem(c.Errors.Last().Err)
		if problem.Instance == "" {
			problem.Instance = c.Request.URL.Path
		}
		if id := c.GetString(RequestIDKey); id != "" {
			if problem.Extensions == nil {
				problem.Extensions = make(map[string]interface{})
			}
			problem.Extensions[RequestIDKey] = id
		}

		if problem.Status >= 500 {
			logger.Error("request failed",
				zap.Int("status", problem.Status),
				zap.String("title", problem.Title),
				zap.Error(problem.Log),
			)
		} else if problem.Log != nil {
			logger.Debug("request rejected", zap.Int("status", problem.Status), zap.Error(problem.Log))
		}

		c.Header("Content-Type", "application/problem+json")
		c.JSON(problem.Status, problem)
		c.Abort()
	}
}

// Problem maps err onto a problem. OpenAI-compatible SDK errors carry the
// upstream status, which is surfaced like any other upstream failure.
func Problem(err error) *domain.Problem {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.ProblemFromError(upstream{err: err, status: apiErr.HTTPStatusCode})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return domain.ProblemFromError(upstream{err: err, status: reqErr.HTTPStatusCode})
	}
	return domain.ProblemFromError(err)
}

type upstream struct {
	err    error
	status int
}

func (u upstream) Error() string   { return u.err.Error() }
func (u upstream) Unwrap() error   { return u.err }
func (u upstream) HTTPStatus() int { return u.status }
