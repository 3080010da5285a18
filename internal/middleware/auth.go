package middleware

import (
	"brand-builder/auth"
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserProvider interface {
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
}

type Auth struct {
	UserService UserProvider
}

// Authenticate resolves a token of the given kind to an active user whose
// token version still matches.
func Authenticate(ctx context.Context, users UserProvider, token string, kind auth.Kind) (*domain.User, *errors.APIError) {
	claims, err := auth.Parse(token, kind)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}
	u, err := users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("Unknown user", err)
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("Account disabled", nil)
	}
	if u.TokenVersion != claims.TokenVersion {
		return nil, errors.Unauthorized("Token has been revoked", nil)
	}
	return u, nil
}

// bearer takes the token from the Authorization header, or from ?token= for
// clients such as EventSource that cannot set headers.
func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleWare requires a valid access token and stores the caller's id
// under "user_id".
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.Error(errors.Unauthorized("Authorization is not found", nil))
			c.Abort()
			return
		}

		u, apiErr := Authenticate(c.Request.Context(), m.UserService, token, auth.KindAccess)
		if apiErr != nil {
			c.Error(apiErr)
			c.Abort()
			return
		}

		c.Set("user_id", u.ID)
		c.Set("user_name", u.Name)
		c.Next()
	}
}
