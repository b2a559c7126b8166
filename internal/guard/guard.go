// Package guard centralizes the authorization checks every protected
// operation goes through: authenticated, global admin, or organization role.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatehouse-auth/gatehouse/internal/credential"
	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// IdentityResolver resolves each credential scheme to a principal.
type IdentityResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*identity.Principal, error)
	ResolveAPIKey(ctx context.Context, rawKey string) (*identity.Principal, error)
	ResolveBearer(ctx context.Context, token string) (*identity.Principal, error)
}

// MembershipDirectory answers organization membership lookups.
type MembershipDirectory interface {
	Membership(ctx context.Context, orgID, userID int64) (*orgs.Membership, error)
}

// FailureRecorder counts authorization failures per credential scheme.
type FailureRecorder interface {
	AuthFailure(scheme string)
}

// Guard composes the identity resolver and membership directory.
type Guard struct {
	identity   IdentityResolver
	directory  MembershipDirectory
	cookieName string
	logger     *slog.Logger
	recorder   FailureRecorder
}

// New constructs a Guard.
func New(resolver IdentityResolver, directory MembershipDirectory, cookieName string, logger *slog.Logger) *Guard {
	return &Guard{identity: resolver, directory: directory, cookieName: cookieName, logger: logger}
}

// Instrument attaches a failure recorder. Optional; a nil guard recorder
// means failures are only logged.
func (g *Guard) Instrument(rec FailureRecorder) {
	g.recorder = rec
}

func (g *Guard) recordFailure(r *http.Request) {
	if g.recorder != nil {
		g.recorder.AuthFailure(string(credential.Detect(r, g.cookieName)))
	}
}

// ResolvePrincipal is the single source of truth for "who is calling". It
// resolves fresh on every request; nothing is cached across requests. A nil
// principal with nil error means no valid credential was presented.
func (g *Guard) ResolvePrincipal(r *http.Request) (*identity.Principal, error) {
	ctx := r.Context()
	var (
		principal *identity.Principal
		err       error
	)
	switch credential.Detect(r, g.cookieName) {
	case credential.SchemeAPIKey:
		principal, err = g.identity.ResolveAPIKey(ctx, credential.APIKey(r))
	case credential.SchemeBearer:
		principal, err = g.identity.ResolveBearer(ctx, credential.BearerToken(r))
	case credential.SchemeCookie:
		cookie, cerr := r.Cookie(g.cookieName)
		if cerr != nil {
			return nil, nil
		}
		principal, err = g.identity.ResolveSession(ctx, cookie.Value)
	default:
		return nil, nil
	}
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, err
	}
	return principal, nil
}

// RequireAuthenticated fails with ErrUnauthorized when no principal resolves.
func (g *Guard) RequireAuthenticated(r *http.Request) (*identity.Principal, error) {
	principal, err := g.ResolvePrincipal(r)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		g.recordFailure(r)
		return nil, httpx.ErrUnauthorized
	}
	return principal, nil
}

// RequireGlobalAdmin fails with ErrUnauthorized when unauthenticated and
// ErrForbidden when the principal is not a global administrator.
func (g *Guard) RequireGlobalAdmin(r *http.Request) (*identity.Principal, error) {
	principal, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		g.logger.Warn("global admin check failed",
			slog.Int64("user_id", principal.ID))
		g.recordFailure(r)
		return nil, httpx.ErrForbidden
	}
	return principal, nil
}

// RequireOrgRole fails with ErrForbidden unless the principal holds one of
// the allowed roles within the organization.
func (g *Guard) RequireOrgRole(r *http.Request, orgID int64, allowed ...string) (*identity.Principal, *orgs.Membership, error) {
	principal, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, nil, err
	}
	membership, err := g.directory.Membership(r.Context(), orgID, principal.ID)
	if err != nil {
		if absent(err) {
			return nil, nil, httpx.ErrForbidden
		}
		return nil, nil, err
	}
	for _, role := range allowed {
		if membership.Role == role {
			return principal, membership, nil
		}
	}
	g.logger.Warn("org role check failed",
		slog.Int64("user_id", principal.ID),
		slog.Int64("org_id", orgID),
		slog.String("role", membership.Role))
	g.recordFailure(r)
	return nil, nil, httpx.ErrForbidden
}

// absent separates "no such principal" outcomes from infrastructure failures.
func absent(err error) bool {
	return errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrInvalidCredentials) ||
		errors.Is(err, identity.ErrTokenInvalid)
}
