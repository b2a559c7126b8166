package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/gatehouse-auth/gatehouse/internal/app"
	"github.com/gatehouse-auth/gatehouse/internal/devapi"
	"github.com/gatehouse-auth/gatehouse/internal/guard"
	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/lambdahttp"
	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/platform/cache"
	"github.com/gatehouse-auth/gatehouse/internal/platform/db"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// The function shares cold-start initialization across invocations: the pool,
// session manager and signing key are built once and reused read-only.
func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SigningSecret, cfg.SessionTTL, true)
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

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Guard:           requestGuard,
		IdentityHandler: identityHandler,
		DevHandler:      devHandler,
	})

	adapter := lambdahttp.New(router, lambdahttp.Options{
		TrustedOrigins: cfg.TrustedOrigins,
		SingleCookie:   cfg.SingleCookie,
		Logger:         logger,
	})

	lambda.Start(adapter.Handle)
}
