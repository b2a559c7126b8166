package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	removed int64
	err     error
	calls   int
}

func (p *fakePurger) PurgeExpiredAPIKeys(context.Context) (int64, error) {
	p.calls++
	return p.removed, p.err
}

func TestCredentialPurgeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := NewMetrics(prometheus.NewRegistry())

	purger := &fakePurger{removed: 3}
	handler := CredentialPurgeHandler(purger, logger, metrics)
	require.NoError(t, handler(context.Background(), NewCredentialPurgeTask()))
	assert.Equal(t, 1, purger.calls)

	failing := &fakePurger{err: errors.New("db down")}
	handler = CredentialPurgeHandler(failing, logger, metrics)
	assert.Error(t, handler(context.Background(), NewCredentialPurgeTask()))
}

func TestTrackerPassesErrorThrough(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	cause := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("cleanup").End(cause), cause)
	assert.NoError(t, metrics.Track("cleanup").End(nil))

	// A nil metrics receiver still returns the error untouched.
	var none *Metrics
	assert.ErrorIs(t, none.Track("cleanup").End(cause), cause)
}
