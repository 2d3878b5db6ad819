package securestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

const fileFormatVersion = 1

type fileContents struct {
	Version int               `json:"version"`
	Salt    string            `json:"salt"`
	Entries map[string]string `json:"entries"`
}

// FileStore persists AES-GCM encrypted values in a single JSON file with
// 0600 permissions. The encryption key is derived from a passphrase with
// PBKDF2-SHA256 and a random per-file salt.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	salt    []byte
	sealer  *sealer
	entries map[string]string
}

// NewFileStore opens (or prepares) the store at path. An empty passphrase
// falls back to the device fingerprint.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if passphrase == "" {
		passphrase = DeviceFingerprint()
	}

	store := &FileStore{
		path:    path,
		entries: make(map[string]string),
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeStoreDecrypt, fmt.Sprintf("failed to load secure store %s", path), err).
				WithSuggestion(fmt.Sprintf("Remove %s to start with an empty store (you will need to log in again)", path))
		}
	} else {
		salt, err := newSalt()
		if err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		store.salt = salt
	}

	s, err := newSealer(deriveKey(passphrase, store.salt))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}
	store.sealer = s

	return store, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get decrypts and returns the value for key.
func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	f.mu.RLock()
	encoded, ok := f.entries[key]
	f.mu.RUnlock()

	if !ok {
		return "", ErrNotFound
	}

	value, err := f.sealer.open(key, encoded)
	if err != nil {
		return "", gerrors.Wrap(gerrors.ErrCodeStoreDecrypt, fmt.Sprintf("failed to decrypt %q", key), err)
	}
	return value, nil
}

// Set encrypts value and writes the file.
func (f *FileStore) Set(_ context.Context, key, value string) error {
	encoded, err := f.sealer.seal(key, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.copyEntries()
	next[key] = encoded
	if err := f.save(next); err != nil {
		return err
	}
	f.entries = next
	return nil
}

// Delete removes key and writes the file.
func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[key]; !ok {
		return nil
	}
	next := f.copyEntries()
	delete(next, key)
	if err := f.save(next); err != nil {
		return err
	}
	f.entries = next
	return nil
}

// copyEntries returns a copy of the committed entries. Callers hold f.mu.
func (f *FileStore) copyEntries() map[string]string {
	next := make(map[string]string, len(f.entries)+1)
	for k, v := range f.entries {
		next[k] = v
	}
	return next
}

// save writes entries through a temp file and rename. Callers hold f.mu and
// commit entries only when save succeeds.
func (f *FileStore) save(entries map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileContents{
		Version: fileFormatVersion,
		Salt:    base64.StdEncoding.EncodeToString(f.salt),
		Entries: entries,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".secure-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

func (f *FileStore) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return err
	}
	if contents.Version != fileFormatVersion {
		return fmt.Errorf("unsupported store version %d", contents.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(contents.Salt)
	if err != nil || len(salt) == 0 {
		return fmt.Errorf("invalid salt")
	}

	f.salt = salt
	if contents.Entries != nil {
		f.entries = contents.Entries
	}
	return nil
}
