package app

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a minimal configuration that passes validation after
// defaults are applied.
func validConfig() *Config {
	return &Config{
		API: APIConfig{
			MallID:       "exampleshop",
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "https://example.com/callback",
		},
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}

	if cfg.LogFormat != LogFormatText {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
	if cfg.API.BaseURL != "https://exampleshop.cafe24api.com/api/v2" {
		t.Errorf("BaseURL = %q, want mall-derived URL", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Security.KeySource != KeySourceTypeEnv {
		t.Errorf("KeySource = %q, want env", cfg.Security.KeySource)
	}
	if cfg.Security.KeyEnv != "CAFE24_ENCRYPTION_KEY" {
		t.Errorf("KeyEnv = %q, want CAFE24_ENCRYPTION_KEY", cfg.Security.KeyEnv)
	}
	if cfg.Store.Namespace != "cafe24" {
		t.Errorf("Namespace = %q, want cafe24", cfg.Store.Namespace)
	}
	if cfg.Store.File == "" || !strings.Contains(cfg.Store.File, "cafe24-auth") {
		t.Errorf("Store.File = %q, want a path under the user config dir", cfg.Store.File)
	}
	if cfg.Store.ProbeTimeout != 5*time.Second {
		t.Errorf("ProbeTimeout = %v, want 5s", cfg.Store.ProbeTimeout)
	}
	if cfg.Tokens.AccessTTLDefault != 2*time.Hour {
		t.Errorf("AccessTTLDefault = %v, want 2h", cfg.Tokens.AccessTTLDefault)
	}
	if cfg.Tokens.RefreshTTL != 30*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 720h", cfg.Tokens.RefreshTTL)
	}
	if cfg.Tokens.ExpiryLeeway != 5*time.Minute {
		t.Errorf("ExpiryLeeway = %v, want 5m", cfg.Tokens.ExpiryLeeway)
	}
}

func TestConfigBaseURLOverridesMallID(t *testing.T) {
	cfg := validConfig()
	cfg.API.BaseURL = "https://stub.example.com/api/v2"

	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}
	if cfg.API.BaseURL != "https://stub.example.com/api/v2" {
		t.Errorf("BaseURL = %q, want the explicit override", cfg.API.BaseURL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing client id", func(c *Config) { c.API.ClientID = "" }, true},
		{"missing client secret", func(c *Config) { c.API.ClientSecret = "" }, true},
		{"missing mall and base url", func(c *Config) {
			c.API.MallID = ""
			c.API.BaseURL = ""
		}, true},
		{"missing redirect uri", func(c *Config) { c.API.RedirectURI = "" }, true},
		{"malformed redirect uri", func(c *Config) { c.API.RedirectURI = "not a url" }, true},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"unknown key source", func(c *Config) { c.Security.KeySource = "vault" }, true},
		{"file key source without path", func(c *Config) {
			c.Security.KeySource = KeySourceTypeFile
			c.Security.KeyFile = ""
		}, true},
		{"file key source with path", func(c *Config) {
			c.Security.KeySource = KeySourceTypeFile
			c.Security.KeyFile = "/tmp/keyfile"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if err := cfg.ApplyDefaults(); err != nil {
				t.Fatalf("ApplyDefaults() error = %v", err)
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestConfigNewKeySource(t *testing.T) {
	t.Setenv("CAFE24_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	cfg := validConfig()
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}

	src, err := cfg.Security.NewKeySource()
	if err != nil {
		t.Fatalf("NewKeySource() error = %v", err)
	}
	if src == nil {
		t.Fatal("NewKeySource() returned nil source")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.Security.KeySource != KeySourceTypeEnv {
		t.Errorf("Default() key source = %q, want env", cfg.Security.KeySource)
	}
	// Defaults alone cannot pass validation; client credentials have no
	// sensible default.
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() on bare defaults succeeded, want error")
	}
}
