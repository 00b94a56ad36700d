package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salescrm/internal/authz"
)

func RequireRoles(allowed ...authz.Role) gin.HandlerFunc {
	allowedSet := map[authz.Role]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, exists := c.Get(CtxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		role, _ := v.(authz.Role)
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
