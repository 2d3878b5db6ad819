package securestore

import (
	"context"
	"fmt"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Path       string
	Passphrase string
	Redis      RedisOptions
	Vault      VaultOptions
}

// Open constructs the backend named by opts.Backend. An empty backend
// selects the encrypted file store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Path, opts.Passphrase)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		redisOpts := opts.Redis
		if redisOpts.Passphrase == "" {
			redisOpts.Passphrase = opts.Passphrase
		}
		return NewRedisStore(ctx, redisOpts)
	case BackendVault:
		return NewVaultStore(opts.Vault)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Close releases backend resources if the store holds any.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
