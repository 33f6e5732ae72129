package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisRevocationStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, domain.RevocationRecord{
		TokenID:   "jti-1",
		Reason:    domain.RevocationLogout,
		RevokedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, "logout", mustGet(t, mr, revokedKeyPrefix+"jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "record is pruned once the token would have expired")
}

func TestRedisRevocationStoreSkipsExpiredTokens(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisRevocationStore(client)

	require.NoError(t, store.Revoke(context.Background(), domain.RevocationRecord{
		TokenID:   "old",
		ExpiresAt: time.Now().Add(-time.Second),
	}))
	assert.False(t, mr.Exists(revokedKeyPrefix+"old"))
}

func TestRedisRevocationStoreUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisRevocationStore(client)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

func TestLoginAttemptStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewLoginAttemptStore(client, time.Minute)
	ctx := context.Background()

	n, err := store.Failures(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 1; i <= 3; i++ {
		n, err = store.RecordFailure(ctx, "alice@example.com ")
		require.NoError(t, err)
		assert.EqualValues(t, i, n)
	}

	n, err = store.Failures(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	ttl := mr.TTL(loginFailuresPrefix + "alice@example.com")
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute + time.Second)
	n, err = store.Failures(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.RecordFailure(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx, "alice@example.com"))
	n, err = store.Failures(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	val, err := mr.Get(key)
	require.NoError(t, err)
	return val
}
