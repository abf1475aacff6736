package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/PratikDhanave/adserve-sdk-service/internal/config"
	"github.com/PratikDhanave/adserve-sdk-service/internal/httpserver"
	"github.com/PratikDhanave/adserve-sdk-service/internal/logging"
	"github.com/PratikDhanave/adserve-sdk-service/internal/metrics"
	"github.com/PratikDhanave/adserve-sdk-service/internal/ratelimit"
	"github.com/PratikDhanave/adserve-sdk-service/internal/services"
	"github.com/PratikDhanave/adserve-sdk-service/internal/session"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

type backend interface {
	httpserver.Store
	Close()
}

// main boots the service: config → logger → store → schema → HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Production())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	if cfg.SuperAdminEmail != "" {
		sessions, err := session.NewManager(cfg.JWTSecret, cfg.Production())
		if err != nil {
			logger.Fatal("session manager", zap.Error(err))
		}
		if _, err := services.NewAuth(st, sessions, logger).EnsureSuperAdmin(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
			logger.Fatal("bootstrap super admin", zap.Error(err))
		}
	}

	m := metrics.New()
	router, err := httpserver.NewRouter(cfg, st, httpserver.Options{
		Logger:  logger,
		Metrics: m,
		Limiter: ratelimit.NewLimiter(ratelimit.NewMemoryStore(0, 0), m),
	})
	if err != nil {
		logger.Fatal("build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

// openStore connects to Postgres and applies the schema, or falls back to the
// in-memory store when DB_URL is empty.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, error) {
	if cfg.DBURL == "" {
		if cfg.Production() {
			return nil, errors.New("DB_URL required in production")
		}
		logger.Warn("DB_URL not set, using in-memory store")
		return store.NewMemoryStore(), nil
	}

	db, err := store.NewPostgresStore(ctx, cfg.DBURL)
	if err != nil {
		return nil, err
	}
	// Tables and indexes are created on first boot; the DDL is idempotent.
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
