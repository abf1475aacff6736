package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/adserve-sdk-service/internal/auth"
	"github.com/PratikDhanave/adserve-sdk-service/internal/config"
	"github.com/PratikDhanave/adserve-sdk-service/internal/handlers"
	"github.com/PratikDhanave/adserve-sdk-service/internal/logging"
	"github.com/PratikDhanave/adserve-sdk-service/internal/metrics"
	"github.com/PratikDhanave/adserve-sdk-service/internal/ratelimit"
	"github.com/PratikDhanave/adserve-sdk-service/internal/security"
	"github.com/PratikDhanave/adserve-sdk-service/internal/services"
	"github.com/PratikDhanave/adserve-sdk-service/internal/session"
	"github.com/PratikDhanave/adserve-sdk-service/internal/stats"
)

// Store is the persistence surface of the whole HTTP API.
type Store interface {
	services.SDKStore
	services.UserStore
	services.StatsStore
	Ping(ctx context.Context) error
}

// Options carries the collaborators NewRouter does not build itself.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter
}

// NewRouter wires public endpoints, SDK endpoints and the account surface.
// Public: /health, /ready, /metrics/prometheus
// SDK (bundle-scoped, unauthenticated): /sdk/init, /sdk/event
// Account (origin-guarded): /auth/*; session required: /apps/:appId/*
func NewRouter(cfg config.Config, st Store, opts Options) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	lim := opts.Limiter
	if lim == nil {
		lim = ratelimit.NewLimiter(ratelimit.NewMemoryStore(0, 0), m)
	}

	sessions, err := session.NewManager(cfg.JWTSecret, cfg.Production())
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log), m.Middleware())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the store is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			log.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics/prometheus", m.Handler())

	recorder := stats.NewRecorder(st, m, log)
	handlers.RegisterSDKRoutes(r, services.NewSDK(st, recorder, m, log), lim, cfg.RateLimits)

	account := r.Group("/")
	account.Use(security.OriginGuard(cfg.AllowedOrigins), auth.LoadSession(sessions))
	handlers.RegisterAuthRoutes(account, services.NewAuth(st, sessions, log), sessions, lim, cfg.RateLimits)

	apps := account.Group("/")
	apps.Use(auth.RequireUser(st))
	handlers.RegisterStatsRoutes(apps, services.NewStats(st))

	return r, nil
}
