package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/session"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

// Gin context keys for the verified session and the loaded account.
const (
	claimsCtxKey = "session_claims"
	userCtxKey   = "session_user"
)

// UserFinder loads the account behind a session subject.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// LoadSession verifies the session cookie, if present, and stores its claims
// in the request context. It never rejects a request.
func LoadSession(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := m.FromRequest(c); ok {
			c.Set(claimsCtxKey, claims)
		}
		c.Next()
	}
}

// RequireUser rejects requests without a session whose subject is an existing,
// active user. The user is stored in the context for CurrentUser.
func RequireUser(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		u, err := users.FindUserByID(c.Request.Context(), claims.Subject)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !u.IsActive) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(userCtxKey, u)
		c.Next()
	}
}

// Claims returns the verified session claims, or nil.
func Claims(c *gin.Context) *session.Claims {
	v, _ := c.Get(claimsCtxKey)
	claims, _ := v.(*session.Claims)
	return claims
}

// CurrentUser returns the user loaded by RequireUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, _ := c.Get(userCtxKey)
	u, _ := v.(*models.User)
	return u
}
