package middleware

import (
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nulzo/polymage/internal/analytics"
	"github.com/nulzo/polymage/internal/store"
)

// Context keys handlers set so Record can attribute the call.
const (
	PlatformKey   = "polymage.platform"
	ModelKey      = "polymage.model"
	CapabilityKey = "polymage.capability"
)

// Record hands one invocation record per request to the ingestor. It runs
// inside ErrorHandler, so the status of a failed call is derived from the
// attached error rather than the writer.
func Record(ingestor analytics.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		capability := c.GetString(CapabilityKey)
		if capability == "" {
			capability = path.Base(c.FullPath())
		}

		inv := &store.Invocation{
			ID:         uuid.NewString(),
			RequestID:  c.GetString(RequestIDKey),
			Platform:   c.GetString(PlatformKey),
			Model:      c.GetString(ModelKey),
			Capability: capability,
			StatusCode: c.Writer.Status(),
			LatencyMS:  time.Since(start).Milliseconds(),
			ClientIP:   c.ClientIP(),
			CreatedAt:  start.UTC(),
		}
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			inv.StatusCode = Problem(err).Status
			inv.Error = err.Error()
		}

		ingestor.Log(inv)
	}
}
