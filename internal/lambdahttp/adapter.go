// Package lambdahttp bridges API-Gateway proxy events to the standard
// http.Handler surface and back.
package lambdahttp

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

// Adapter translates proxy events for an http.Handler.
type Adapter struct {
	handler        http.Handler
	trustedOrigins []string
	singleCookie   bool
	logger         *slog.Logger
}

// Options configures the adapter.
type Options struct {
	TrustedOrigins []string
	// SingleCookie keeps at most one Set-Cookie header on the way out, for
	// deployments whose response format has no multi-value extension.
	SingleCookie bool
	Logger       *slog.Logger
}

// New constructs an Adapter around the handler.
func New(handler http.Handler, opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		handler:        handler,
		trustedOrigins: opts.TrustedOrigins,
		singleCookie:   opts.SingleCookie,
		logger:         logger,
	}
}

// AllowOrigin applies the trusted-origin policy: echo the request origin when
// trusted, otherwise fall back to the first configured origin, or "*" when
// none are configured.
func AllowOrigin(trusted []string, origin string) string {
	for _, t := range trusted {
		if strings.EqualFold(t, origin) {
			return origin
		}
	}
	if len(trusted) > 0 {
		return trusted[0]
	}
	return "*"
}

// Handle processes one proxy event.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	origin := headerValue(event, "Origin")

	// Preflight is answered here, never forwarded: it carries no credentials
	// and must not touch authorization logic.
	if strings.EqualFold(event.HTTPMethod, http.MethodOptions) {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusNoContent,
			Headers:    a.corsHeaders(origin),
		}, nil
	}

	req, err := a.toRequest(ctx, event)
	if err != nil {
		a.logger.Error("translate event", slog.Any("error", err))
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    a.corsHeaders(origin),
			Body:       `{"title":"Bad Request","status":400}`,
		}, nil
	}

	rec := newRecorder()
	a.handler.ServeHTTP(rec, req)

	return a.toResponse(rec, origin), nil
}

func (a *Adapter) toRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	u := url.URL{Path: event.Path}
	query := url.Values{}
	for k, v := range event.QueryStringParameters {
		query.Set(k, v)
	}
	for k, vs := range event.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	u.RawQuery = query.Encode()

	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, err
		}
		body = string(decoded)
	}

	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, u.String(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		req.Header.Add(k, v)
	}
	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			if !contains(req.Header.Values(k), v) {
				req.Header.Add(k, v)
			}
		}
	}
	if ip := event.RequestContext.Identity.SourceIP; ip != "" {
		req.RemoteAddr = ip + ":0"
	}
	return req, nil
}

func (a *Adapter) toResponse(rec *recorder, origin string) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode:        rec.status,
		Headers:           map[string]string{},
		MultiValueHeaders: map[string][]string{},
	}

	for name, values := range rec.header {
		if len(values) == 0 {
			continue
		}
		// Set-Cookie values are independent and must never be comma-joined.
		if http.CanonicalHeaderKey(name) == "Set-Cookie" {
			switch {
			case len(values) == 1:
				resp.Headers[name] = values[0]
			case a.singleCookie:
				// Single-cookie mode: the most recently set cookie wins.
				resp.Headers[name] = values[len(values)-1]
			default:
				resp.MultiValueHeaders[name] = values
			}
			continue
		}
		if len(values) == 1 {
			resp.Headers[name] = values[0]
		} else {
			resp.MultiValueHeaders[name] = values
		}
	}

	for k, v := range a.corsHeaders(origin) {
		resp.Headers[k] = v
	}

	body := rec.body.Bytes()
	if utf8.Valid(body) {
		resp.Body = string(body)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(body)
		resp.IsBase64Encoded = true
	}
	if len(resp.MultiValueHeaders) == 0 {
		resp.MultiValueHeaders = nil
	}
	return resp
}

func (a *Adapter) corsHeaders(origin string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":      AllowOrigin(a.trustedOrigins, origin),
		"Access-Control-Allow-Methods":     "GET, POST, PATCH, DELETE, OPTIONS",
		"Access-Control-Allow-Headers":     "Accept, Authorization, Content-Type, X-API-Key",
		"Access-Control-Allow-Credentials": "true",
	}
}

func headerValue(event events.APIGatewayProxyRequest, name string) string {
	for k, v := range event.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vs := range event.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
