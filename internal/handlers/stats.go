package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/auth"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/services"
)

// parseRFC3339 parses an RFC3339 timestamp and normalizes it to UTC.
func parseRFC3339(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// RegisterStatsRoutes registers the owner-scoped read endpoints.
//
// GET /apps/:appId/stats
// GET /apps/:appId/events/count?event_type=...&from=...&to=...
// - Requires a session user (auth.RequireUser)
// - Apps of other owners look missing unless the user is SUPER_ADMIN
// - Counts cover the window [from,to)
func RegisterStatsRoutes(r gin.IRoutes, svc *services.Stats) {
	r.GET("/apps/:appId/stats", func(c *gin.Context) {
		s, err := svc.AppStats(c.Request.Context(), auth.CurrentUser(c), c.Param("appId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": s})
	})

	r.GET("/apps/:appId/events/count", func(c *gin.Context) {
		eventType := models.EventType(c.Query("event_type"))
		fromStr := c.Query("from")
		toStr := c.Query("to")

		if eventType == "" || fromStr == "" || toStr == "" {
			writeError(c, apperr.Validation("event_type, from, to are required"))
			return
		}

		from, err := parseRFC3339(fromStr)
		if err != nil {
			writeError(c, apperr.Validation("from must be RFC3339"))
			return
		}
		to, err := parseRFC3339(toStr)
		if err != nil {
			writeError(c, apperr.Validation("to must be RFC3339"))
			return
		}

		count, err := svc.CountEvents(c.Request.Context(), auth.CurrentUser(c), c.Param("appId"), eventType, from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.EventCountResponse{EventType: eventType, Count: count})
	})
}
