package middleware

import (
	"slices"
	"strings"

	"accounts-be/internal/apierror"
	"accounts-be/internal/jwt"
	"accounts-be/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie is checked before the Authorization header.
	AccessTokenCookie = "accessToken"

	ContextUserID = "user_id"
	ContextRole   = "role"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates the request from the accessToken cookie or a
// Bearer Authorization header and stores the user id and role in the context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Abort(c, apierror.Unauthorized("Authentication token missing"))
			return
		}

		claims, err := verifier.VerifyAccessToken(token)
		if err != nil {
			response.Abort(c, apierror.Unauthorized("Invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated role is
// in roles. It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" || !slices.Contains(roles, role) {
			response.Abort(c, apierror.Forbidden("You do not have permission to access this resource"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" when the request is anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	// "Bearer <token>": the second space-separated field is the token.
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
