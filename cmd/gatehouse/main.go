package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/app"
	"github.com/gatehouse-auth/gatehouse/internal/devapi"
	"github.com/gatehouse-auth/gatehouse/internal/guard"
	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/observability"
	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/platform/cache"
	"github.com/gatehouse-auth/gatehouse/internal/platform/db"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
	"github.com/gatehouse-auth/gatehouse/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, migrations.FS); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SigningSecret, cfg.SessionTTL, cfg.IsProduction())
	issuer, err := identity.NewTokenIssuer(cfg.SigningSecret, cfg.BaseURL)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	identityService := identity.NewService(identity.NewRepository(pool), sessionManager, issuer)
	identityHandler := identity.NewHandler(logger, identityService)

	orgService := orgs.NewService(orgs.NewRepository(pool))

	requestGuard := guard.New(identityService, orgService, cfg.SessionCookie, logger)
	devHandler := devapi.NewHandler(logger, requestGuard, identityService, orgService)

	metrics := observability.NewMetrics()
	requestGuard.Instrument(metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Guard:           requestGuard,
		IdentityHandler: identityHandler,
		DevHandler:      devHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
