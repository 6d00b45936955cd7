package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ttatard/attendance-frontend/internal/auth"
	"github.com/ttatard/attendance-frontend/pkg/response"
)

const (
	// ContextToken is the key for the raw bearer token in gin context.
	ContextToken = "bearer_token"
	// ContextUserEmail is the key for the organizer email in gin context.
	ContextUserEmail = "user_email"
	// ContextUserRole is the key for the organizer role in gin context.
	ContextUserRole = "user_role"
)

// Bearer requires an unexpired organizer token and stores it for forwarding to the backend.
func Bearer(inspector *auth.Inspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				response.Unauthorized(c, "missing authorization header")
			} else {
				response.Unauthorized(c, "invalid authorization header")
			}
			c.Abort()
			return
		}
		claims, err := inspector.Inspect(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				response.Unauthorized(c, "session expired, please log in again")
			} else {
				response.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}
		c.Set(ContextToken, token)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// Token returns the bearer token stored by Bearer.
func Token(c *gin.Context) string {
	return c.GetString(ContextToken)
}
