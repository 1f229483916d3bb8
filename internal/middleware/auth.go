package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teamtask/teamtask-api/internal/constants"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/policy"
	"github.com/teamtask/teamtask-api/internal/services"
)

// Authenticator resolves a bearer token to the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *services.TokenClaims, error)
}

// RequireAuth checks the bearer token and stores the caller's identity in the context
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenRevoked):
				apierrors.Unauthorized(c, "Token has been revoked")
			case errors.Is(err, services.ErrInvalidToken):
				apierrors.Unauthorized(c, "Invalid or expired token")
			default:
				apierrors.InternalError(c, "Failed to authenticate")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUserRoles, user.Roles)
		c.Set(constants.ContextKeyTokenClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetRoles retrieves the current user's roles from context
func GetRoles(c *gin.Context) models.Roles {
	roles, _ := c.Get(constants.ContextKeyUserRoles)
	r, _ := roles.(models.Roles)
	return r
}

// GetActor builds the authorization actor for the current request
func GetActor(c *gin.Context) (policy.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return policy.Actor{}, false
	}
	return policy.Actor{ID: userID, Roles: GetRoles(c)}, true
}

// GetTokenClaims retrieves the claims of the token used for this request
func GetTokenClaims(c *gin.Context) (*services.TokenClaims, bool) {
	v, exists := c.Get(constants.ContextKeyTokenClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*services.TokenClaims)
	return claims, ok
}
