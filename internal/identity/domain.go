// Package identity owns user accounts, sessions, API keys and signed tokens.
package identity

import (
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/credential"
)

// GlobalRoleAdmin marks a user as a global administrator.
const GlobalRoleAdmin = "admin"

// User represents an account stored in postgres.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	GlobalRole   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the global administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.GlobalRole == GlobalRoleAdmin
}

// Principal is the resolved caller of a request, tagged with the credential
// scheme that proved it.
type Principal struct {
	ID         int64             `json:"id"`
	Email      string            `json:"email"`
	Name       string            `json:"name,omitempty"`
	GlobalRole string            `json:"globalRole,omitempty"`
	Scheme     credential.Scheme `json:"-"`
}

// IsAdmin reports whether the principal holds the global administrator role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.GlobalRole == GlobalRoleAdmin
}

// APIKey is a long-lived service credential. Only the sha256 digest of the
// secret is ever stored.
type APIKey struct {
	ID        int64      `json:"keyId"`
	UserID    int64      `json:"ownerId"`
	Label     string     `json:"label,omitempty"`
	KeyPrefix string     `json:"keyPrefix"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Expired reports whether the key has an expiry in the past.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}
