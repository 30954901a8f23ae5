package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ""), mr
}

func TestRedisStore_RoundTripsSession(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	created := time.Unix(1700000000, 0).UTC()
	in := &Session{
		ID:          "s1",
		Subject:     "auth0|u1",
		AccessToken: "at",
		User:        map[string]any{"email": "user01@example.com"},
		CreatedAt:   created,
		ExpiresAt:   created.Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, in, time.Hour))
	assert.True(t, mr.Exists("console:session:s1"))

	out, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "auth0|u1", out.Subject)
	assert.Equal(t, "at", out.AccessToken)
	assert.Equal(t, "user01@example.com", out.User["email"])
	assert.True(t, out.CreatedAt.Equal(created))
}

func TestRedisStore_TTLExpiresSession(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Save(ctx, &Session{ID: "s1"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_DeleteRemovesSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Save(ctx, &Session{ID: "s1"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TakeTransactionOnce(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.PutTransaction(ctx, Transaction{State: "st", CodeVerifier: "v", ReturnTo: "/me"}, time.Minute))

	txn, err := store.TakeTransaction(ctx, "st")
	require.NoError(t, err)
	assert.Equal(t, "/me", txn.ReturnTo)

	_, err = store.TakeTransaction(ctx, "st")
	assert.ErrorIs(t, err, ErrNotFound)
}
