package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/pkg/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket survives without traffic.
const idleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller: the API key an
// authenticated request used, or the client IP otherwise.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	rps       rate.Limit
	burst     int
	logger    *zap.Logger
	now       func() time.Time
}

func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
		now:     time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Len reports how many callers currently hold a bucket.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(ClientKey)
		if key == "" {
			key = c.ClientIP()
		}

		res := rl.limiter(key).Reserve()
		delay := res.Delay()
		if !res.OK() || delay > 0 {
			res.Cancel()

			retry := 1
			if res.OK() {
				retry = max(1, int(math.Ceil(delay.Seconds())))
			}
			rl.logger.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Request.URL.Path),
				zap.Int("retry_after", retry),
			)
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewProblem(
				http.StatusTooManyRequests,
				"Too Many Requests",
				"Rate limit exceeded, retry in "+strconv.Itoa(retry)+"s",
			))
			return
		}

		c.Next()
	}
}
