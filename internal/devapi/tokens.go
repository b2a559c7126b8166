package devapi

import (
	"net/http"
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
)

type issueTokenRequest struct {
	UserID     int64    `json:"userId" validate:"omitempty,gt=0"`
	TTLSeconds int      `json:"ttlSeconds" validate:"omitempty,gt=0,lte=86400"`
	Audience   string   `json:"audience" validate:"omitempty,max=255"`
	Scopes     []string `json:"scopes" validate:"omitempty,dive,max=120"`
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireAuthenticated(r)
	if err != nil {
		h.fail(w, r, "issue-token", err, nil)
		return
	}

	var req issueTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "issue-token", httpx.ErrValidation, principal)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, "issue-token", httpx.ErrValidation, principal)
		return
	}

	target := req.UserID
	if target == 0 {
		target = principal.ID
	}
	if target != principal.ID && !principal.IsAdmin() {
		h.fail(w, r, "issue-token", httpx.ErrForbidden, principal)
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	token, expiresAt, err := h.identity.IssueToken(r.Context(), target, req.Audience, req.Scopes, ttl)
	if err != nil {
		h.fail(w, r, "issue-token", err, principal)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) jwks(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.identity.JWKS())
}
