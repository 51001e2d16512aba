// Package app wires configuration into the credential manager's components
// and owns their lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/manwonyori/cafe24-auth/internal/auth"
	"github.com/manwonyori/cafe24-auth/internal/security"
	"github.com/manwonyori/cafe24-auth/internal/tokenstore"
)

// App holds the wired components: cipher, token store, and auth manager.
type App struct {
	cfg     *Config
	store   *tokenstore.Store
	manager *auth.Manager
}

// New creates a new App instance. The token store's backend probe runs
// here, so construction takes a context and performs I/O.
func New(ctx context.Context, cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ciph, err := newCipher(ctx, cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	store, err := tokenstore.New(ctx, ciph, tokenstore.Config{
		RedisURL:     cfg.Store.RedisURL,
		FilePath:     cfg.Store.File,
		Namespace:    cfg.Store.Namespace,
		ProbeTimeout: cfg.Store.ProbeTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	manager, err := auth.NewManager(auth.Config{
		ClientID:     cfg.API.ClientID,
		ClientSecret: cfg.API.ClientSecret,
		BaseURL:      cfg.API.BaseURL,
		RedirectURI:  cfg.API.RedirectURI,
		Scopes:       cfg.API.Scopes,
	}, store,
		auth.WithTimeout(cfg.API.Timeout),
		auth.WithAccessTokenTTL(cfg.Tokens.AccessTTLDefault),
		auth.WithRefreshTokenTTL(cfg.Tokens.RefreshTTL),
		auth.WithExpiryLeeway(cfg.Tokens.ExpiryLeeway),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create auth manager: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   store,
		manager: manager,
	}, nil
}

// newCipher resolves key material from the configured source and validates
// it. Key problems are fatal: the process must not run with a cipher it
// cannot trust.
func newCipher(ctx context.Context, cfg SecurityConfig) (*security.Cipher, error) {
	source, err := cfg.NewKeySource()
	if err != nil {
		return nil, fmt.Errorf("failed to create key source: %w", err)
	}

	material, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}

	key, err := security.ParseKey(string(material))
	if err != nil {
		return nil, err
	}
	return security.New(key)
}

// Manager returns the wired auth manager.
func (a *App) Manager() *auth.Manager {
	return a.manager
}

// Close releases held resources (the cache backend's connection pool).
func (a *App) Close() error {
	return a.store.Close()
}
