package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
)

// RequireRole lets the request through when the token's role is one of
// allowed. Must run after RequireAuth. Admins pass every check.
func RequireRole(allowed ...string) gin.HandlerFunc {
	logger := log.WithComponent("rbac")
	need := strings.Join(allowed, " or ")

	return func(c *gin.Context) {
		raw, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Role context missing"})
			return
		}
		role, _ := raw.(string)

		if role == RoleAdmin {
			c.Next()
			return
		}
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}

		subject, _ := c.Get("user_id")
		logger.Warn().
			Interface("user_id", subject).
			Str("role", role).
			Str("path", c.Request.URL.Path).
			Msg("forbidden")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Forbidden: this action needs the " + need + " role.",
		})
	}
}
