package devapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
)

type createAPIKeyRequest struct {
	UserID        int64  `json:"userId" validate:"omitempty,gt=0"`
	Label         string `json:"label" validate:"omitempty,max=120"`
	ExpiresInDays int    `json:"expiresInDays" validate:"omitempty,gt=0"`
}

func (h *Handler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireAuthenticated(r)
	if err != nil {
		h.fail(w, r, "create-api-key", err, nil)
		return
	}

	var req createAPIKeyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "create-api-key", httpx.ErrValidation, principal)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, "create-api-key", httpx.ErrValidation, principal)
		return
	}

	// Self-access exception: a user may mint keys for themselves; minting for
	// anyone else requires global admin.
	target := req.UserID
	if target == 0 {
		target = principal.ID
	}
	if target != principal.ID && !principal.IsAdmin() {
		h.fail(w, r, "create-api-key", httpx.ErrForbidden, principal)
		return
	}

	raw, key, err := h.identity.MintAPIKey(r.Context(), target, req.Label, req.ExpiresInDays)
	if err != nil {
		h.fail(w, r, "create-api-key", err, principal)
		return
	}

	resp := map[string]any{
		"key":     raw,
		"keyId":   key.ID,
		"ownerId": key.UserID,
	}
	if key.Label != "" {
		resp["label"] = key.Label
	}
	if key.ExpiresAt != nil {
		resp["expiresAt"] = key.ExpiresAt.Format(time.RFC3339)
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireAuthenticated(r)
	if err != nil {
		h.fail(w, r, "list-api-keys", err, nil)
		return
	}

	target := principal.ID
	if raw := r.URL.Query().Get("userId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			h.fail(w, r, "list-api-keys", httpx.ErrValidation, principal)
			return
		}
		target = parsed
	}
	if target != principal.ID && !principal.IsAdmin() {
		h.fail(w, r, "list-api-keys", httpx.ErrForbidden, principal)
		return
	}

	keys, err := h.identity.ListAPIKeys(r.Context(), target)
	if err != nil {
		h.fail(w, r, "list-api-keys", err, principal)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (h *Handler) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireAuthenticated(r)
	if err != nil {
		h.fail(w, r, "revoke-api-key", err, nil)
		return
	}
	keyID, err := pathID(r, "keyID")
	if err != nil {
		h.fail(w, r, "revoke-api-key", err, principal)
		return
	}

	key, err := h.identity.GetAPIKey(r.Context(), keyID)
	if err != nil {
		h.fail(w, r, "revoke-api-key", err, principal)
		return
	}
	if key.UserID != principal.ID && !principal.IsAdmin() {
		h.fail(w, r, "revoke-api-key", httpx.ErrForbidden, principal)
		return
	}

	if err := h.identity.RevokeAPIKey(r.Context(), keyID); err != nil {
		h.fail(w, r, "revoke-api-key", err, principal)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
