// Package orgs owns organizations and per-organization memberships.
package orgs

import "time"

// Membership roles within an organization.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether the role is one of owner/admin/member.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Org is a multi-tenant grouping of users.
type Org struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// Membership ties a user to an organization at a role.
type Membership struct {
	OrgID     int64     `json:"orgId"`
	UserID    int64     `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a membership joined with account display fields for listings.
type Member struct {
	Membership
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
