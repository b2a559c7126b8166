// Package credential classifies which credential scheme an inbound request
// carries.
package credential

import (
	"net/http"
	"strings"
)

// Scheme identifies how a request proves the caller's identity.
type Scheme string

const (
	// SchemeNone means no recognized credential is present.
	SchemeNone Scheme = "none"
	// SchemeCookie is a session cookie.
	SchemeCookie Scheme = "cookie"
	// SchemeAPIKey is the X-API-Key header.
	SchemeAPIKey Scheme = "api-key"
	// SchemeBearer is an Authorization bearer token.
	SchemeBearer Scheme = "bearer"
)

// APIKeyHeader carries a long-lived service credential.
const APIKeyHeader = "X-API-Key"

// Detect classifies the request's credential scheme. Precedence when several
// are present: API key, then bearer, then cookie. The order is fixed.
func Detect(r *http.Request, cookieName string) Scheme {
	if strings.TrimSpace(r.Header.Get(APIKeyHeader)) != "" {
		return SchemeAPIKey
	}
	if BearerToken(r) != "" {
		return SchemeBearer
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return SchemeCookie
	}
	return SchemeNone
}

// APIKey extracts the raw API key, or "" when absent.
func APIKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}

// BearerToken extracts the bearer token from the Authorization header, or ""
// when the header is absent or uses another authorization type.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
