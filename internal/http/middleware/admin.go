package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderAdminToken carries the admin API secret.
const HeaderAdminToken = "X-Admin-Token"

// AdminToken guards a route group with a shared secret. An empty token
// disables the group entirely (404), so an unconfigured deployment exposes
// no admin surface.
func AdminToken(token string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(token))
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "not_found",
				"message":    "route not found",
			})
			return
		}
		got := []byte(c.GetHeader(HeaderAdminToken))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    "invalid admin token",
			})
			return
		}
		c.Next()
	}
}
