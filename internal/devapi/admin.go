package devapi

import (
	"net/http"
	"strconv"

	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
)

const defaultUserListLimit = 50

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireGlobalAdmin(r)
	if err != nil {
		h.fail(w, r, "list-users", err, nil)
		return
	}

	limit := int32(defaultUserListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			h.fail(w, r, "list-users", httpx.ErrValidation, principal)
			return
		}
		limit = int32(parsed)
	}

	users, err := h.identity.ListUsers(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "list-users", err, principal)
		return
	}

	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]any{
			"id":         u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"globalRole": u.GlobalRole,
			"isActive":   u.IsActive,
			"createdAt":  u.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

type impersonateRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Mode   string `json:"mode" validate:"required,oneof=jwt cookie"`
}

func (h *Handler) impersonate(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireGlobalAdmin(r)
	if err != nil {
		h.fail(w, r, "impersonate", err, nil)
		return
	}

	var req impersonateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "impersonate", httpx.ErrValidation, principal)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, "impersonate", httpx.ErrValidation, principal)
		return
	}

	// Resolve the target first so a bad id maps to 404, not a dangling
	// session or token.
	target, err := h.identity.FindUserByID(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, "impersonate", err, principal)
		return
	}

	switch req.Mode {
	case "jwt":
		token, expiresAt, err := h.identity.IssueToken(r.Context(), target.ID, "", nil, 0)
		if err != nil {
			h.fail(w, r, "impersonate", err, principal)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "expiresAt": expiresAt})
	case "cookie":
		sess, err := h.identity.MintSession(r.Context(), target.ID)
		if err != nil {
			h.fail(w, r, "impersonate", err, principal)
			return
		}
		http.SetCookie(w, h.identity.Sessions().Cookie(sess))
		httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
	}

	h.logger.Info("impersonation",
		"admin_id", principal.ID,
		"target_id", target.ID,
		"mode", req.Mode)
}
