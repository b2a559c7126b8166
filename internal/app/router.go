package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/gatehouse-auth/gatehouse/internal/devapi"
	"github.com/gatehouse-auth/gatehouse/internal/guard"
	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/observability"
	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Guard           *guard.Guard
	IdentityHandler *identity.Handler
	DevHandler      *devapi.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Gatehouse defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	// Last-resort catch-all: a panic becomes a bare 500, never a stack trace
	// in the response.
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Resolves the principal from whichever credential scheme is present and
	// never fails: an anonymous caller gets a JSON null.
	r.Get("/me", func(w http.ResponseWriter, req *http.Request) {
		principal, err := params.Guard.ResolvePrincipal(req)
		if err != nil {
			params.Logger.Error("resolve principal", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if principal == nil {
			httpx.JSON(w, http.StatusOK, nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"user":   principal,
			"scheme": principal.Scheme,
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(20, time.Minute))
		params.IdentityHandler.MountRoutes(r)
	})

	// When the flag is off the prefix is simply not mounted, so every /dev/*
	// request falls through to the default 404 and the surface is
	// indistinguishable from an unknown route.
	if params.Config.DevRoutes {
		r.Route("/dev", func(r chi.Router) {
			r.Use(httprate.LimitByIP(120, time.Minute))
			params.DevHandler.MountRoutes(r)
		})
	}

	if params.Metrics != nil {
		r.Get("/metrics", params.Metrics.Handler().ServeHTTP)
	}

	return r
}
