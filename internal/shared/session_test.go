package shared_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
	_ "github.com/gatehouse-auth/gatehouse/testing"
)

func newManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "gatehouse_session", "0123456789abcdef0123456789abcdef", time.Hour, false), mr
}

func TestLookupUnknownIDYieldsFreshSession(t *testing.T) {
	sm, _ := newManager(t)

	sess, err := sm.Lookup(context.Background(), "no-such-session")
	require.NoError(t, err)
	assert.True(t, sess.IsNew())
	assert.Empty(t, sess.User())
}

func TestStoreOutageClassifiedAsDelegateFailure(t *testing.T) {
	sm, mr := newManager(t)

	sess, err := sm.Mint(context.Background(), "42")
	require.NoError(t, err)

	mr.Close()

	var delegate *httpx.DelegateError
	_, err = sm.Lookup(context.Background(), sess.ID)
	require.ErrorAs(t, err, &delegate)
	assert.Equal(t, http.StatusServiceUnavailable, delegate.Status)

	err = sm.Persist(context.Background(), sess)
	assert.ErrorAs(t, err, &delegate)
}
