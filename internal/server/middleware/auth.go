package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/pkg/domain"
)

// ClientKey identifies the API key an authenticated request used, by its
// position in the configured list. The key itself is never stored.
const ClientKey = "polymage.client"

// Auth checks for a Bearer token matching one of keys. With no keys
// configured every request passes.
func Auth(keys []string) gin.HandlerFunc {
	var static [][]byte
	for _, k := range keys {
		if k != "" {
			static = append(static, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(static) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Missing Authorization header")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" {
			unauthorized(c, "Invalid Authorization header format")
			return
		}

		for i, k := range static {
			if subtle.ConstantTimeCompare(k, []byte(token)) == 1 {
				c.Set(ClientKey, "key:"+strconv.Itoa(i))
				c.Next()
				return
			}
		}
		unauthorized(c, "Invalid API Key")
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Bearer realm="polymage"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, domain.NewProblem(http.StatusUnauthorized, "Unauthorized", detail))
}
