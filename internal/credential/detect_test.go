package credential

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const cookieName = "gatehouse_session"

func request(mutate func(*http.Request)) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	if mutate != nil {
		mutate(r)
	}
	return r
}

func TestDetectNone(t *testing.T) {
	assert.Equal(t, SchemeNone, Detect(request(nil), cookieName))
}

func TestDetectEachScheme(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*http.Request)
		want   Scheme
	}{
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
		}, SchemeCookie},
		{"api key", func(r *http.Request) {
			r.Header.Set(APIKeyHeader, "gh_secret")
		}, SchemeAPIKey},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer token")
		}, SchemeBearer},
		{"basic auth is not bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		}, SchemeNone},
		{"foreign cookie only", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "other", Value: "abc"})
		}, SchemeNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(request(tc.mutate), cookieName))
		})
	}
}

func TestDetectPrecedence(t *testing.T) {
	// API key wins over bearer, bearer wins over cookie.
	all := request(func(r *http.Request) {
		r.Header.Set(APIKeyHeader, "gh_secret")
		r.Header.Set("Authorization", "Bearer token")
		r.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
	})
	assert.Equal(t, SchemeAPIKey, Detect(all, cookieName))

	bearerAndCookie := request(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer token")
		r.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
	})
	assert.Equal(t, SchemeBearer, Detect(bearerAndCookie, cookieName))
}

func TestBearerToken(t *testing.T) {
	r := request(func(r *http.Request) {
		r.Header.Set("Authorization", "bearer lower-case-type")
	})
	assert.Equal(t, "lower-case-type", BearerToken(r))
	assert.Equal(t, "", BearerToken(request(nil)))
}
