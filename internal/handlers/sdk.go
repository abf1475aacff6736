package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/adserve-sdk-service/internal/config"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/ratelimit"
	"github.com/PratikDhanave/adserve-sdk-service/internal/services"
	"github.com/PratikDhanave/adserve-sdk-service/internal/tenant"
)

// RegisterSDKRoutes registers the SDK endpoints.
//
// POST /sdk/init
// POST /sdk/event
// - Unauthenticated; the tenant is the bundle id in the body
// - Limited per client, then per client and bundle once the body is valid
func RegisterSDKRoutes(r gin.IRoutes, svc *services.SDK, lim *ratelimit.Limiter, rules config.RateLimits) {
	useJSONFieldNames()

	r.POST("/sdk/init", lim.Middleware(rules.SDKInit), func(c *gin.Context) {
		var req models.SDKInitRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}
		req.AppVersion = strings.TrimSpace(req.AppVersion)

		if !lim.Enforce(c, rules.SDKInitBundle, ratelimit.ClientKey(c.Request), tenant.NormalizeBundleID(req.BundleID)) {
			return
		}

		resp, err := svc.Init(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})

	r.POST("/sdk/event", lim.Middleware(rules.SDKEvent), func(c *gin.Context) {
		var req models.SDKEventRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}
		req.AdID = strings.TrimSpace(req.AdID)
		req.AppVersion = strings.TrimSpace(req.AppVersion)

		if !lim.Enforce(c, rules.SDKEventBundle, ratelimit.ClientKey(c.Request), tenant.NormalizeBundleID(req.BundleID)) {
			return
		}

		if err := svc.HandleEvent(c.Request.Context(), req); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}
