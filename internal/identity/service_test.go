package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-auth/gatehouse/internal/credential"
	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
	"github.com/gatehouse-auth/gatehouse/internal/testutil"
	_ "github.com/gatehouse-auth/gatehouse/testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) (*identity.Service, *testutil.MemIdentityStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "gatehouse_session", testSecret, time.Hour, false)
	issuer, err := identity.NewTokenIssuer(testSecret, "https://auth.test.local")
	require.NoError(t, err)
	store := testutil.NewMemIdentityStore()
	return identity.NewService(store, sessions, issuer), store
}

func TestSignUpAndAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "Alice@Test.Local", "Alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@test.local", user.Email)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice@test.local", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@test.local", "wrong-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignUpRejectsBadInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "", "hunter2hunter2")
	assert.Error(t, err)

	_, err = svc.SignUp(ctx, "short@test.local", "", "short")
	assert.Error(t, err)

	_, err = svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestMintAPIKeyOwnershipAndExpiry(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	require.NoError(t, err)

	raw, key, err := svc.MintAPIKey(ctx, user.ID, "ci", 90)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "gh_"))
	assert.Equal(t, user.ID, key.UserID)
	require.NotNil(t, key.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 90), *key.ExpiresAt, time.Minute)

	principal, err := svc.ResolveAPIKey(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, credential.SchemeAPIKey, principal.Scheme)
}

func TestRevokedKeyStopsResolving(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	require.NoError(t, err)
	raw, key, err := svc.MintAPIKey(ctx, user.ID, "", 0)
	require.NoError(t, err)

	keys, err := svc.ListAPIKeys(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	require.NoError(t, svc.RevokeAPIKey(ctx, key.ID))

	keys, err = svc.ListAPIKeys(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = svc.ResolveAPIKey(ctx, raw)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExpiredKeyNeverResolves(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	require.NoError(t, err)

	raw, key, err := svc.MintAPIKey(ctx, user.ID, "", 1)
	require.NoError(t, err)
	store.ExpireAPIKey(key.ID, time.Now().Add(-time.Hour))

	_, err = svc.ResolveAPIKey(ctx, raw)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	removed, err := svc.PurgeExpiredAPIKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestSessionRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	require.NoError(t, err)

	sess, err := svc.MintSession(ctx, user.ID)
	require.NoError(t, err)

	principal, err := svc.ResolveSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, credential.SchemeCookie, principal.Scheme)

	_, err = svc.ResolveSession(ctx, "no-such-session")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBearerRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "alice@test.local", "", "hunter2hunter2")
	require.NoError(t, err)

	token, _, err := svc.IssueToken(ctx, user.ID, "orders-api", []string{"orders:read"}, 0)
	require.NoError(t, err)

	principal, err := svc.ResolveBearer(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, credential.SchemeBearer, principal.Scheme)

	_, err = svc.ResolveBearer(ctx, "garbage")
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}
