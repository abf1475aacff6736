package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/adserve-sdk-service/internal/auth"
	"github.com/PratikDhanave/adserve-sdk-service/internal/config"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/ratelimit"
	"github.com/PratikDhanave/adserve-sdk-service/internal/services"
	"github.com/PratikDhanave/adserve-sdk-service/internal/session"
)

// RegisterAuthRoutes registers the account endpoints. The caller mounts them
// behind the origin guard and the session loader.
//
// POST /auth/register
// POST /auth/login
// POST /auth/logout
// GET  /auth/me
func RegisterAuthRoutes(r gin.IRoutes, svc *services.Auth, sessions *session.Manager, lim *ratelimit.Limiter, rules config.RateLimits) {
	useJSONFieldNames()

	r.POST("/auth/register", lim.Middleware(rules.AuthRegister), func(c *gin.Context) {
		var req models.CredentialsRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}
		u, token, err := svc.Register(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		sessions.SetCookie(c, token)
		c.JSON(http.StatusCreated, gin.H{"user": u.Public()})
	})

	r.POST("/auth/login", lim.Middleware(rules.AuthLogin), func(c *gin.Context) {
		var req models.CredentialsRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}
		u, token, err := svc.Login(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		sessions.SetCookie(c, token)
		c.JSON(http.StatusOK, gin.H{"user": u.Public()})
	})

	r.POST("/auth/logout", func(c *gin.Context) {
		sessions.ClearCookie(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/auth/me", func(c *gin.Context) {
		u, err := svc.CurrentUser(c.Request.Context(), auth.Claims(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if u == nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u.Public()})
	})
}
