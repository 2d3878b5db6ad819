// Package securestore provides the device-scoped secure key-value capability
// the session layer persists into. Backends: in-memory, encrypted file,
// Redis (shared gate kiosks) and HashiCorp Vault KV v2.
package securestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("securestore: key not found")

// Store is a string key-value store. Implementations must be safe for
// concurrent use. Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by backends holding network resources.
type Closer interface {
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendVault  = "vault"
)
