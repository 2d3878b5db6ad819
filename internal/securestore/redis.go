package securestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

// redisKV is the subset of *redis.Client used by RedisStore.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DeviceID   string
	Passphrase string
}

// RedisStore keeps encrypted values in a Redis instance shared by gate
// kiosks. Keys are namespaced as <prefix>:<device>:<key> so devices never
// see each other's sessions.
type RedisStore struct {
	client    redisKV
	closer    func() error
	namespace string
	sealer    *sealer
}

// NewRedisStore dials Redis and verifies connectivity.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, gerrors.NewStoreUnavailableError(BackendRedis, err)
	}

	store, err := newRedisStore(client, opts)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	store.closer = client.Close
	return store, nil
}

func newRedisStore(client redisKV, opts RedisOptions) (*RedisStore, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "progate"
	}
	device := opts.DeviceID
	if device == "" {
		device = DeviceID()
	}
	passphrase := opts.Passphrase
	if passphrase == "" {
		passphrase = DeviceFingerprint()
	}

	namespace := prefix + ":" + device
	// Redis has nowhere to keep a per-store salt, so derive it from the namespace.
	salt := blake3.Sum256([]byte(namespace))
	s, err := newSealer(deriveKey(passphrase, salt[:saltSize]))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}

	return &RedisStore{client: client, namespace: namespace, sealer: s}, nil
}

func (r *RedisStore) key(k string) string {
	return r.namespace + ":" + k
}

// Get returns the decrypted value or ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	encoded, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", gerrors.Wrap(gerrors.ErrCodeStoreBackend, fmt.Sprintf("redis get %q", key), err)
	}

	value, err := r.sealer.open(key, encoded)
	if err != nil {
		return "", gerrors.Wrap(gerrors.ErrCodeStoreDecrypt, fmt.Sprintf("failed to decrypt %q", key), err)
	}
	return value, nil
}

// Set encrypts and stores value without expiry.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	encoded, err := r.sealer.seal(key, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), encoded, 0).Err(); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStoreBackend, fmt.Sprintf("redis set %q", key), err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStoreBackend, fmt.Sprintf("redis del %q", key), err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *RedisStore) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
