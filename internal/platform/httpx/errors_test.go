package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
)

func TestRespondErrorRelaysDelegateStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, &httpx.DelegateError{
		Status:  http.StatusServiceUnavailable,
		Message: "session store unavailable",
		Err:     errors.New("dial tcp: connection refused"),
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "session store unavailable")
	// The upstream cause never reaches the caller.
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestRespondErrorClampsBogusDelegateStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, &httpx.DelegateError{Status: 200, Message: "confused upstream"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, errors.New("pq: column does not exist"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
