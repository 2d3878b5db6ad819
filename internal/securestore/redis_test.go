package securestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

type mockRedis struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMockRedis() *mockRedis {
	return &mockRedis{data: make(map[string]string)}
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewStringCmd(ctx, "get", key)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewStatusCmd(ctx, "set", key)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.data[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewIntCmd(ctx, "del")
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedis()

	store, err := newRedisStore(mock, RedisOptions{Prefix: "gate", DeviceID: "kiosk-1", Passphrase: "pw"})
	require.NoError(t, err)

	_, err = store.Get(ctx, "user_token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "user_token", "tok"))
	raw, ok := mock.data["gate:kiosk-1:user_token"]
	require.True(t, ok, "keys are namespaced by prefix and device")
	assert.NotEqual(t, "tok", raw)

	got, err := store.Get(ctx, "user_token")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, store.Delete(ctx, "user_token"))
	_, err = store.Get(ctx, "user_token")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Close())
}

func TestRedisStore_DevicesIsolated(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedis()

	a, err := newRedisStore(mock, RedisOptions{DeviceID: "a", Passphrase: "pw"})
	require.NoError(t, err)
	b, err := newRedisStore(mock, RedisOptions{DeviceID: "b", Passphrase: "pw"})
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "user_token", "tok-a"))
	_, err = b.Get(ctx, "user_token")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, mock.data, "progate:a:user_token")
}

func TestRedisStore_BackendError(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedis()
	mock.err = errors.New("connection reset")

	store, err := newRedisStore(mock, RedisOptions{DeviceID: "a", Passphrase: "pw"})
	require.NoError(t, err)

	_, err = store.Get(ctx, "user_token")
	assert.True(t, gerrors.HasCode(err, gerrors.ErrCodeStoreBackend))
	assert.True(t, gerrors.HasCode(store.Set(ctx, "k", "v"), gerrors.ErrCodeStoreBackend))
	assert.True(t, gerrors.HasCode(store.Delete(ctx, "k"), gerrors.ErrCodeStoreBackend))
}
