package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"schoolhub/internal/authz"
)

func roleFromCtx(c *gin.Context) (int, bool) {
	v, exists := c.Get(CtxRoleID)
	if !exists {
		return 0, false
	}
	roleID, ok := v.(int)
	return roleID, ok
}

func RequireRoles(allowed ...int) gin.HandlerFunc {
	allowedSet := map[int]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleID, ok := roleFromCtx(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		if _, ok := allowedSet[roleID]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireAnyPerm lets the request through when the caller's role holds at
// least one of the listed permissions.
func RequireAnyPerm(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, ok := roleFromCtx(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		if !authz.HasAnyPerm(roleID, perms...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this page."})
			return
		}
		c.Next()
	}
}
