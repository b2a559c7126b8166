package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/unrolled/secure"

	"github.com/gatehouse-auth/gatehouse/internal/observability"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
// Config must be set; Metrics is optional.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the shared middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	allowed := cfg.Config.TrustedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	stack := []func(http.Handler) http.Handler{
		secureMiddleware.Handler,
		corsMiddleware,
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	return stack
}
