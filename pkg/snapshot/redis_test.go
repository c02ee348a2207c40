package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestRedisStore(t)
	runStoreContract(t, store)
}

func TestRedisStore_PrefixIsolatesKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, WithPrefix("app:"))

	require.NoError(t, mr.Set("other:stray", "x"))
	require.NoError(t, store.Put(ctx, "home", []byte("<p>hi</p>")))

	got, err := mr.Get("app:home")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", got)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, keys)
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, WithTTL(time.Minute))

	require.NoError(t, store.Put(ctx, "home", []byte("<p>hi</p>")))
	assert.Equal(t, time.Minute, mr.TTL(DefaultRedisPrefix+"home"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "home")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_NoTTLByDefault(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, store.Put(context.Background(), "home", []byte("x")))
	assert.Equal(t, time.Duration(0), mr.TTL(DefaultRedisPrefix+"home"))
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	mr.Close()
	assert.Error(t, store.Ping(ctx))
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := Open(Config{Backend: "redis", RedisAddr: mr.Addr(), RedisPrefix: "cfg:", TTL: time.Hour})
	require.NoError(t, err)
	defer Close(store)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "home", []byte("x")))
	assert.True(t, mr.Exists("cfg:home"))
	assert.Equal(t, time.Hour, mr.TTL("cfg:home"))
}
