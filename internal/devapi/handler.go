// Package devapi exposes the administrative operations surface. Every
// operation follows the same shape: authorize, validate input, delegate, map
// the outcome.
package devapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-auth/gatehouse/internal/guard"
	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// Handler serves the /dev/* administrative routes.
type Handler struct {
	logger   *slog.Logger
	guard    *guard.Guard
	identity *identity.Service
	orgs     *orgs.Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, g *guard.Guard, ident *identity.Service, orgSvc *orgs.Service) *Handler {
	return &Handler{
		logger:   logger,
		guard:    g,
		identity: ident,
		orgs:     orgSvc,
		validate: validator.New(),
	}
}

// MountRoutes registers the administrative routes. The caller decides whether
// to mount at all; an unmounted prefix falls through to the router's 404.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/whoami", h.whoami)

	r.Post("/api-keys", h.createAPIKey)
	r.Get("/api-keys", h.listAPIKeys)
	r.Delete("/api-keys/{keyID}", h.deleteAPIKey)

	r.Post("/jwt/issue", h.issueToken)
	// Resource servers fetch the key set without credentials.
	r.Get("/jwks.json", h.jwks)

	r.Post("/orgs", h.createOrg)
	r.Post("/orgs/{orgID}/members", h.addMember)
	r.Patch("/orgs/{orgID}/members/{userID}", h.changeMemberRole)
	r.Get("/orgs/{orgID}/members", h.listMembers)

	r.Get("/admin/users", h.listUsers)
	r.Post("/admin/impersonate", h.impersonate)
}

func (h *Handler) whoami(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireAuthenticated(r)
	if err != nil {
		h.fail(w, r, "whoami", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":   principal,
		"scheme": principal.Scheme,
	})
}

// fail logs the failure with enough context for audit review and writes the
// mapped response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, principal *identity.Principal) {
	attrs := []any{slog.String("op", op), slog.Any("error", err)}
	if principal != nil {
		attrs = append(attrs, slog.Int64("user_id", principal.ID))
	}
	h.logger.Warn("dev operation failed", attrs...)
	httpx.RespondError(w, domainError(err))
}

// domainError translates delegate-layer sentinels into the transport taxonomy.
func domainError(err error) error {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, identity.ErrTokenInvalid):
		return httpx.ErrUnauthorized
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, orgs.ErrSlugTaken):
		return httpx.ErrDuplicate
	case errors.Is(err, orgs.ErrUnknownRole), errors.Is(err, orgs.ErrNameRequired):
		return httpx.ErrValidation
	default:
		return err
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrValidation
	}
	return id, nil
}
