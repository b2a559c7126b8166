package lambdahttp

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAllowOrigin(t *testing.T) {
	trusted := []string{"https://app.example.com", "https://admin.example.com"}

	assert.Equal(t, "https://app.example.com", AllowOrigin(trusted, "https://app.example.com"))
	// Matching is case-insensitive and echoes the caller's spelling.
	assert.Equal(t, "HTTPS://ADMIN.EXAMPLE.COM", AllowOrigin(trusted, "HTTPS://ADMIN.EXAMPLE.COM"))
	// Untrusted origins fall back to the first configured one.
	assert.Equal(t, "https://app.example.com", AllowOrigin(trusted, "https://evil.example.com"))
	assert.Equal(t, "*", AllowOrigin(nil, "https://anywhere.example.com"))
}

func TestPreflightShortCircuits(t *testing.T) {
	handlerCalled := false
	adapter := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}), Options{TrustedOrigins: []string{"https://app.example.com"}, Logger: discardLogger()})

	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "OPTIONS",
		Path:       "/dev/api-keys",
		Headers:    map[string]string{"Origin": "https://app.example.com"},
	})
	require.NoError(t, err)
	assert.False(t, handlerCalled, "preflight must never reach the handler")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "true", resp.Headers["Access-Control-Allow-Credentials"])
	assert.Contains(t, resp.Headers["Access-Control-Allow-Headers"], "X-API-Key")
}

func TestRequestTranslation(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	adapter := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}), Options{Logger: discardLogger()})

	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            "POST",
		Path:                  "/dev/orgs",
		QueryStringParameters: map[string]string{"limit": "5"},
		MultiValueQueryStringParameters: map[string][]string{
			"tag": {"a", "b"},
		},
		Headers: map[string]string{
			"X-API-Key":    "gh_abc",
			"Content-Type": "application/json",
		},
		MultiValueHeaders: map[string][]string{
			// Duplicates of single-value headers must not double up.
			"X-API-Key": {"gh_abc"},
			"Accept":    {"application/json", "text/plain"},
		},
		Body: `{"name":"Acme"}`,
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{SourceIP: "203.0.113.9"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.NotNil(t, got)
	assert.Equal(t, "/dev/orgs", got.URL.Path)
	assert.Equal(t, "5", got.URL.Query().Get("limit"))
	assert.Equal(t, []string{"a", "b"}, got.URL.Query()["tag"])
	assert.Equal(t, []string{"gh_abc"}, got.Header.Values("X-API-Key"))
	assert.Equal(t, []string{"application/json", "text/plain"}, got.Header.Values("Accept"))
	assert.Equal(t, "203.0.113.9:0", got.RemoteAddr)
	assert.JSONEq(t, `{"name":"Acme"}`, string(gotBody))
}

func TestBase64RequestBody(t *testing.T) {
	var gotBody []byte
	adapter := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}), Options{Logger: discardLogger()})

	_, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      "POST",
		Path:            "/auth/signin",
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"email":"a@b.c"}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(gotBody))

	// A corrupt base64 body is a client error, not a crash.
	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      "POST",
		Path:            "/auth/signin",
		Body:            "%%%not-base64%%%",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetCookieSingleMode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "first", Value: "1"})
		http.SetCookie(w, &http.Cookie{Name: "second", Value: "2"})
	})

	single := New(handler, Options{SingleCookie: true, Logger: discardLogger()})
	resp, err := single.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Path:       "/",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Headers["Set-Cookie"], "second=2")
	assert.Nil(t, resp.MultiValueHeaders)

	multi := New(handler, Options{SingleCookie: false, Logger: discardLogger()})
	resp, err = multi.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Path:       "/",
	})
	require.NoError(t, err)
	require.Len(t, resp.MultiValueHeaders["Set-Cookie"], 2)
	assert.Empty(t, resp.Headers["Set-Cookie"])
}

func TestBinaryResponseBody(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff}
	adapter := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}), Options{Logger: discardLogger()})

	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Path:       "/blob",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsBase64Encoded)
	decoded, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestResponseCarriesCORSHeaders(t *testing.T) {
	adapter := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), Options{TrustedOrigins: []string{"https://app.example.com"}, Logger: discardLogger()})

	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Path:       "/",
		Headers:    map[string]string{"origin": "https://app.example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Headers["Access-Control-Allow-Origin"])
}
