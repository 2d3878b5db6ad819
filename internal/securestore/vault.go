package securestore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

// VaultOptions configures a VaultStore.
type VaultOptions struct {
	// Address is the Vault server address, e.g. https://vault.example.com:8200
	Address string

	// Token is the Vault token; falls back to VAULT_TOKEN
	Token string

	// MountPath is the KV v2 mount (default "secret")
	MountPath string

	// Path is the prefix under the mount (default "progate/<device id>")
	Path string

	// Namespace is the Vault Enterprise namespace (optional)
	Namespace string

	// HTTPClient overrides the default client (tests)
	HTTPClient *http.Client
}

// VaultStore keeps each key as a KV v2 secret at <mount>/data/<path>/<key>
// with a single "value" field. Vault provides encryption at rest, so values
// are stored as-is.
type VaultStore struct {
	address    string
	token      string
	mountPath  string
	path       string
	namespace  string
	httpClient *http.Client
}

type vaultSecret struct {
	Data struct {
		Data map[string]interface{} `json:"data"`
	} `json:"data"`
}

// NewVaultStore validates options and returns a store.
func NewVaultStore(opts VaultOptions) (*VaultStore, error) {
	if opts.Address == "" {
		return nil, gerrors.NewConfigInvalidError("store.vault.address is required for the vault backend")
	}

	token := opts.Token
	if token == "" {
		token = os.Getenv("VAULT_TOKEN")
	}
	if token == "" {
		return nil, gerrors.NewConfigInvalidError("vault token is required (store.vault.token or VAULT_TOKEN)")
	}

	mount := opts.MountPath
	if mount == "" {
		mount = "secret"
	}
	path := strings.Trim(opts.Path, "/")
	if path == "" {
		path = "progate/" + DeviceID()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12}},
			Timeout:   30 * time.Second,
		}
	}

	return &VaultStore{
		address:    strings.TrimRight(opts.Address, "/"),
		token:      token,
		mountPath:  strings.Trim(mount, "/"),
		path:       path,
		namespace:  opts.Namespace,
		httpClient: httpClient,
	}, nil
}

func (v *VaultStore) url(kind, key string) string {
	return fmt.Sprintf("%s/v1/%s/%s/%s/%s", v.address, v.mountPath, kind, v.path, url.PathEscape(key))
}

func (v *VaultStore) addHeaders(req *http.Request) {
	req.Header.Set("X-Vault-Token", v.token)
	req.Header.Set("Content-Type", "application/json")
	if v.namespace != "" {
		req.Header.Set("X-Vault-Namespace", v.namespace)
	}
}

func (v *VaultStore) do(req *http.Request) (*http.Response, error) {
	v.addHeaders(req)
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, gerrors.NewStoreUnavailableError(BackendVault, err)
	}
	return resp, nil
}

// Get reads the latest version of the secret for key.
func (v *VaultStore) Get(ctx context.Context, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url("data", key), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", gerrors.New(gerrors.ErrCodeStoreBackend, fmt.Sprintf("failed to read secret %q (status %d): %s", key, resp.StatusCode, string(body)))
	}

	var secret vaultSecret
	if err := json.NewDecoder(resp.Body).Decode(&secret); err != nil {
		return "", gerrors.Wrap(gerrors.ErrCodeStoreBackend, "failed to decode secret response", err)
	}

	value, ok := secret.Data.Data["value"].(string)
	if !ok {
		// soft-deleted versions come back with null data
		return "", ErrNotFound
	}
	return value, nil
}

// Set writes a new version of the secret for key.
func (v *VaultStore) Set(ctx context.Context, key, value string) error {
	body, err := json.Marshal(map[string]interface{}{
		"data": map[string]string{"value": value},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal secret data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url("data", key), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return gerrors.New(gerrors.ErrCodeStoreBackend, fmt.Sprintf("failed to write secret %q (status %d): %s", key, resp.StatusCode, string(respBody)))
	}
	return nil
}

// Delete removes the secret and all its versions via the metadata endpoint.
func (v *VaultStore) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, v.url("metadata", key), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return gerrors.New(gerrors.ErrCodeStoreBackend, fmt.Sprintf("failed to delete secret %q (status %d): %s", key, resp.StatusCode, string(respBody)))
	}
}
