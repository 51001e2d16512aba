package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/manwonyori/cafe24-auth/internal/auth"
	"github.com/manwonyori/cafe24-auth/internal/keysource"
	"github.com/manwonyori/cafe24-auth/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// KeySourceType represents the different origins supported for the
// encryption key.
type KeySourceType string

const (
	KeySourceTypeEnv     KeySourceType = "env"
	KeySourceTypeFile    KeySourceType = "file"
	KeySourceTypeKeyring KeySourceType = "keyring"
)

// KeyringService identifies this application's entries in the OS keyring.
const KeyringService = "cafe24-auth"

// Default configuration values
const (
	DefaultConfigLogFormat    = LogFormatText
	DefaultConfigKeySource    = KeySourceTypeEnv
	DefaultConfigKeyEnv       = "CAFE24_ENCRYPTION_KEY"
	DefaultConfigNamespace    = tokenstore.DefaultNamespace
	DefaultConfigProbeTimeout = tokenstore.DefaultProbeTimeout
	DefaultConfigAPITimeout   = auth.DefaultHTTPTimeout
	DefaultConfigAccessTTL    = auth.DefaultAccessTokenTTL
	DefaultConfigRefreshTTL   = auth.DefaultRefreshTokenTTL
	DefaultConfigExpiryLeeway = auth.DefaultExpiryLeeway
)

// APIConfig holds the Cafe24 OAuth client settings for one app
// installation.
type APIConfig struct {
	// MallID is the Cafe24 mall identifier; the API base URL derives from
	// it unless BaseURL overrides it.
	MallID string `json:"mall_id,omitempty"`

	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`

	// BaseURL overrides the mall-derived Admin API base URL. Mainly for
	// pointing the manager at a stand-in authorization server.
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// RedirectURI must match a redirect URI registered for the app.
	RedirectURI string `json:"redirect_uri" validate:"required,url"`

	// Scopes to request on authorization (empty uses the scopes configured
	// at app registration).
	Scopes []string `json:"scopes,omitempty"`

	// Timeout bounds each exchange with the authorization server.
	Timeout time.Duration `json:"timeout"`
}

// SecurityConfig describes where the symmetric encryption key comes from.
// The key itself never appears in the configuration tree.
type SecurityConfig struct {
	// KeySource selects where the key is read from.
	KeySource KeySourceType `json:"key_source" validate:"required,oneof=env file keyring"`

	// Source-specific settings (mutually exclusive based on KeySource)
	KeyEnv      string `json:"key_env,omitempty"`      // For env source: environment variable name
	KeyFile     string `json:"key_file,omitempty"`     // For file source: path to key file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring source: user identifier
}

// NewKeySource creates a key Source from the security configuration.
func (s *SecurityConfig) NewKeySource() (keysource.Source, error) {
	switch s.KeySource {
	case KeySourceTypeEnv:
		return keysource.NewEnvSource(s.KeyEnv)
	case KeySourceTypeFile:
		return keysource.NewFileSource(s.KeyFile)
	case KeySourceTypeKeyring:
		return keysource.NewKeyringSource(KeyringService, s.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported key source: %s", s.KeySource)
	}
}

// StoreConfig holds token storage settings.
type StoreConfig struct {
	// RedisURL selects the shared cache backend when set. An unreachable
	// server at startup falls back to the encrypted file backend.
	RedisURL string `json:"redis_url,omitempty"`

	// File is the encrypted token file location, also used as the cache
	// fallback.
	File string `json:"file,omitempty"`

	// Namespace prefixes cache keys.
	Namespace string `json:"namespace"`

	// ProbeTimeout bounds the startup reachability check of the cache.
	ProbeTimeout time.Duration `json:"probe_timeout"`
}

// TokensConfig tunes credential lifetimes.
type TokensConfig struct {
	// AccessTTLDefault applies when a token response omits expires_in.
	AccessTTLDefault time.Duration `json:"access_ttl_default"`

	// RefreshTTL is the persisted lifetime of rotated refresh tokens.
	RefreshTTL time.Duration `json:"refresh_ttl"`

	// ExpiryLeeway treats access tokens this close to expiry as already
	// expired.
	ExpiryLeeway time.Duration `json:"expiry_leeway"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level     `json:"log_level"`
	LogFormat LogFormat      `json:"log_format" validate:"oneof=text json"`
	API       APIConfig      `json:"api"`
	Security  SecurityConfig `json:"security"`
	Store     StoreConfig    `json:"store"`
	Tokens    TokensConfig   `json:"tokens"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.BaseURL == "" && c.API.MallID != "" {
		c.API.BaseURL = auth.BaseURL(c.API.MallID)
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.Security.KeySource == "" {
		c.Security.KeySource = DefaultConfigKeySource
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = DefaultConfigNamespace
	}
	if c.Store.ProbeTimeout == 0 {
		c.Store.ProbeTimeout = DefaultConfigProbeTimeout
	}
	if c.Tokens.AccessTTLDefault == 0 {
		c.Tokens.AccessTTLDefault = DefaultConfigAccessTTL
	}
	if c.Tokens.RefreshTTL == 0 {
		c.Tokens.RefreshTTL = DefaultConfigRefreshTTL
	}
	if c.Tokens.ExpiryLeeway == 0 {
		c.Tokens.ExpiryLeeway = DefaultConfigExpiryLeeway
	}

	// Dynamic defaults based on key source
	switch c.Security.KeySource {
	case KeySourceTypeEnv:
		if c.Security.KeyEnv == "" {
			c.Security.KeyEnv = DefaultConfigKeyEnv
		}
	case KeySourceTypeKeyring:
		if c.Security.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("security.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Security.KeyringUser = currentUser.Username
		}
	case KeySourceTypeFile:
		// key_file must be explicitly configured (no sensible default)
	}

	if c.Store.File == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("store.file required (auto-detect failed: %w)", err)
		}
		c.Store.File = filepath.Join(configDir, "cafe24-auth", "tokens.enc")
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// The API base URL is derived from mall_id in ApplyDefaults; by
	// validation time one of the two must have produced it.
	if c.API.BaseURL == "" {
		return errors.New("api.mall_id or api.base_url required")
	}

	switch c.Security.KeySource {
	case KeySourceTypeEnv:
		if c.Security.KeyEnv == "" {
			return errors.New("key_env required for env key source")
		}
	case KeySourceTypeFile:
		if c.Security.KeyFile == "" {
			return errors.New("key_file required for file key source")
		}
	case KeySourceTypeKeyring:
		if c.Security.KeyringUser == "" {
			return errors.New("keyring_user required for keyring key source")
		}
	}

	if c.Store.File == "" {
		return errors.New("store.file required")
	}

	return nil
}
