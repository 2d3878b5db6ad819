// Package config loads progate settings from flags, PROGATE_* environment
// variables, an optional .env file and ~/.progate/config.yaml using Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/securestore"
)

// EnvPrefix is the prefix of environment overrides (PROGATE_API_BASE_URL).
const EnvPrefix = "PROGATE"

// Config holds the effective configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api" yaml:"api" json:"api"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store" json:"store"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output" json:"output"`

	file string
}

// APIConfig configures the gateway client.
type APIConfig struct {
	BaseURL               string        `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Timeout               time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	RefreshOnUnauthorized bool          `mapstructure:"refresh_on_unauthorized" yaml:"refresh_on_unauthorized" json:"refresh_on_unauthorized"`
	ValidateResponses     string        `mapstructure:"validate_responses" yaml:"validate_responses" json:"validate_responses"`
}

// StoreConfig selects the secure store backend.
type StoreConfig struct {
	Backend    string      `mapstructure:"backend" yaml:"backend" json:"backend"`
	Path       string      `mapstructure:"path" yaml:"path" json:"path"`
	Passphrase string      `mapstructure:"passphrase" yaml:"passphrase" json:"passphrase"`
	Redis      RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`
	Vault      VaultConfig `mapstructure:"vault" yaml:"vault" json:"vault"`
}

// RedisConfig configures the shared kiosk store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string `mapstructure:"password" yaml:"password" json:"password"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

// VaultConfig configures the Vault KV v2 store.
type VaultConfig struct {
	Address   string `mapstructure:"address" yaml:"address" json:"address"`
	Token     string `mapstructure:"token" yaml:"token" json:"token"`
	Mount     string `mapstructure:"mount" yaml:"mount" json:"mount"`
	Path      string `mapstructure:"path" yaml:"path" json:"path"`
	Namespace string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`
}

// LogConfig configures internal/log.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure" json:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" json:"sample_rate"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

// OutputConfig configures command output.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config file; it must exist when set.
	ConfigFile string

	// EnvFile is loaded into the environment before reading (default ".env").
	// Variables already set win.
	EnvFile string

	// Flags maps config keys to command-line flags that override them.
	Flags map[string]*pflag.Flag
}

// Dir returns the progate home directory ($PROGATE_HOME or ~/.progate).
func Dir() string {
	if dir := os.Getenv("PROGATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".progate"
	}
	return filepath.Join(home, ".progate")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.progatehq.com/api/v1")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("api.refresh_on_unauthorized", true)
	v.SetDefault("api.validate_responses", "warn")

	v.SetDefault("store.backend", securestore.BackendFile)
	v.SetDefault("store.path", filepath.Join(Dir(), "secure.json"))
	v.SetDefault("store.passphrase", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "progate")
	v.SetDefault("store.vault.address", "")
	v.SetDefault("store.vault.token", "")
	v.SetDefault("store.vault.mount", "secret")
	v.SetDefault("store.vault.path", "")
	v.SetDefault("store.vault.namespace", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_rate", 1.0)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("output.format", "text")
}

// Load builds the effective configuration. Precedence: flags, environment,
// config file, defaults.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, gerrors.Wrap(gerrors.ErrCodeConfigInvalid, fmt.Sprintf("failed to read %s", envFile), err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeConfigNotFound, fmt.Sprintf("config file %s not found", opts.ConfigFile), err).
				WithSuggestion("Check the --config path or remove the flag to use " + filepath.Join(Dir(), "config.yaml"))
		}
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, gerrors.Wrap(gerrors.ErrCodeConfigInvalid, "failed to read config file", err)
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeConfigInvalid, "failed to decode configuration", err)
	}
	cfg.file = v.ConfigFileUsed()
	cfg.Store.Path = expandHome(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file that was read, or "".
func (c *Config) File() string {
	return c.file
}

// Validate checks enumerations and URLs.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return gerrors.NewConfigInvalidError(fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		return gerrors.NewConfigInvalidError("api.timeout must not be negative")
	}
	if !oneOf(strings.ToLower(c.API.ValidateResponses), "off", "warn", "strict") {
		return gerrors.NewConfigInvalidError(fmt.Sprintf("api.validate_responses %q must be off, warn or strict", c.API.ValidateResponses))
	}

	switch c.Store.Backend {
	case securestore.BackendFile:
		if c.Store.Path == "" {
			return gerrors.NewConfigInvalidError("store.path is required for the file backend")
		}
	case securestore.BackendMemory:
	case securestore.BackendRedis:
		if c.Store.Redis.Addr == "" {
			return gerrors.NewConfigInvalidError("store.redis.addr is required for the redis backend")
		}
	case securestore.BackendVault:
		if c.Store.Vault.Address == "" {
			return gerrors.NewConfigInvalidError("store.vault.address is required for the vault backend")
		}
	default:
		return gerrors.NewConfigInvalidError(fmt.Sprintf("store.backend %q must be file, memory, redis or vault", c.Store.Backend))
	}

	if !oneOf(strings.ToLower(c.Log.Level), "debug", "info", "warn", "warning", "error") {
		return gerrors.NewConfigInvalidError(fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}
	if !oneOf(strings.ToLower(c.Log.Format), "text", "json") {
		return gerrors.NewConfigInvalidError(fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if !oneOf(c.Output.Format, "text", "json", "yaml") {
		return gerrors.NewConfigInvalidError(fmt.Sprintf("output.format %q must be text, json or yaml", c.Output.Format))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return gerrors.NewConfigInvalidError("telemetry.sample_rate must be between 0 and 1")
	}
	return nil
}

// StoreOptions converts the store section for securestore.Open.
func (c *Config) StoreOptions() securestore.Options {
	return securestore.Options{
		Backend:    c.Store.Backend,
		Path:       c.Store.Path,
		Passphrase: c.Store.Passphrase,
		Redis: securestore.RedisOptions{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
		},
		Vault: securestore.VaultOptions{
			Address:   c.Store.Vault.Address,
			Token:     c.Store.Vault.Token,
			MountPath: c.Store.Vault.Mount,
			Path:      c.Store.Vault.Path,
			Namespace: c.Store.Vault.Namespace,
		},
	}
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.Store.Passphrase = mask(out.Store.Passphrase)
	out.Store.Redis.Password = mask(out.Store.Redis.Password)
	out.Store.Vault.Token = mask(out.Store.Vault.Token)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
