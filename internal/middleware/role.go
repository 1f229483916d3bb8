package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/policy"
)

// RequireRole lets the request through only when the caller holds one of roles.
// It must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !policy.HasAnyRole(GetRoles(c), roles...) {
			apierrors.Forbidden(c, "You do not have the required role")
			c.Abort()
			return
		}
		c.Next()
	}
}
