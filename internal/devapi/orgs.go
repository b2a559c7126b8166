package devapi

import (
	"net/http"

	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
)

type createOrgRequest struct {
	Name string `json:"name" validate:"required,max=160"`
}

func (h *Handler) createOrg(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.RequireAuthenticated(r)
	if err != nil {
		h.fail(w, r, "create-org", err, nil)
		return
	}

	var req createOrgRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "create-org", httpx.ErrValidation, principal)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, "create-org", httpx.ErrValidation, principal)
		return
	}

	org, err := h.orgs.CreateOrg(r.Context(), req.Name, principal.ID)
	if err != nil {
		h.fail(w, r, "create-org", err, principal)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"org": org})
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=owner admin member"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		h.fail(w, r, "add-member", err, nil)
		return
	}
	principal, _, err := h.guard.RequireOrgRole(r, orgID, orgs.RoleOwner, orgs.RoleAdmin)
	if err != nil {
		h.fail(w, r, "add-member", err, nil)
		return
	}

	var req addMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "add-member", httpx.ErrValidation, principal)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, "add-member", httpx.ErrValidation, principal)
		return
	}

	user, err := h.identity.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, "add-member", err, principal)
		return
	}

	member, err := h.orgs.AddMember(r.Context(), orgID, user.ID, req.Role)
	if err != nil {
		h.fail(w, r, "add-member", err, principal)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"member": member})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin member"`
}

func (h *Handler) changeMemberRole(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		h.fail(w, r, "change-member-role", err, nil)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		h.fail(w, r, "change-member-role", err, nil)
		return
	}
	principal, _, err := h.guard.RequireOrgRole(r, orgID, orgs.RoleOwner, orgs.RoleAdmin)
	if err != nil {
		h.fail(w, r, "change-member-role", err, nil)
		return
	}

	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "change-member-role", httpx.ErrValidation, principal)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, "change-member-role", httpx.ErrValidation, principal)
		return
	}

	member, err := h.orgs.ChangeMemberRole(r.Context(), orgID, userID, req.Role)
	if err != nil {
		h.fail(w, r, "change-member-role", err, principal)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"member": member})
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		h.fail(w, r, "list-members", err, nil)
		return
	}
	principal, _, err := h.guard.RequireOrgRole(r, orgID, orgs.RoleOwner, orgs.RoleAdmin, orgs.RoleMember)
	if err != nil {
		h.fail(w, r, "list-members", err, nil)
		return
	}

	members, err := h.orgs.ListMembers(r.Context(), orgID)
	if err != nil {
		h.fail(w, r, "list-members", err, principal)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}
