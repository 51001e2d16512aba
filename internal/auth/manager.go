package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/manwonyori/cafe24-auth/internal/tokenstore"
)

// Default grant-handling parameters.
const (
	// DefaultAccessTokenTTL applies when the token response carries no
	// expires_in field. Cafe24 issues access tokens for two hours.
	DefaultAccessTokenTTL = 7200 * time.Second

	// DefaultRefreshTokenTTL is the persisted lifetime of a rotated
	// refresh token. Cafe24 refresh tokens live for 30 days.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// DefaultExpiryLeeway treats an access token this close to expiry as
	// already expired, so callers never receive a token that dies
	// mid-request.
	DefaultExpiryLeeway = 5 * time.Minute

	// DefaultHTTPTimeout bounds each exchange with the authorization
	// server.
	DefaultHTTPTimeout = 30 * time.Second
)

// refreshFlightKey groups concurrent refresh attempts in the single-flight
// group. There is one credential pair, so one key.
const refreshFlightKey = "refresh"

// Config holds the OAuth2 client settings for one Cafe24 app installation.
type Config struct {
	ClientID     string
	ClientSecret string

	// BaseURL is the mall's Admin API base, e.g.
	// https://example.cafe24api.com/api/v2. The OAuth endpoints live
	// beneath it.
	BaseURL string

	// RedirectURI must match one of the redirect URIs registered for the
	// app; the authorization server rejects grants otherwise.
	RedirectURI string

	// Scopes to request on authorization. Empty means the scopes
	// configured at app registration.
	Scopes []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for token-endpoint exchanges.
// The caller keeps responsibility for bounding it with a timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.client = client }
}

// WithTimeout bounds each token-endpoint exchange (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithExpiryLeeway sets how early an access token counts as expired
// (default 5m).
func WithExpiryLeeway(d time.Duration) Option {
	return func(m *Manager) { m.leeway = d }
}

// WithAccessTokenTTL sets the assumed access-token lifetime when the token
// response omits expires_in (default 2h).
func WithAccessTokenTTL(d time.Duration) Option {
	return func(m *Manager) { m.accessTTL = d }
}

// WithRefreshTokenTTL sets the persisted refresh-token lifetime
// (default 30 days).
func WithRefreshTokenTTL(d time.Duration) Option {
	return func(m *Manager) { m.refreshTTL = d }
}

// Manager orchestrates the OAuth2 grants and the token store behind a
// single operation: produce a currently valid access token. All methods
// are safe for concurrent use.
type Manager struct {
	oauth  oauth2.Config
	store  *tokenstore.Store
	client *http.Client

	timeout    time.Duration
	leeway     time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration

	flight singleflight.Group
}

// NewManager creates a Manager on top of a token store. The store must
// outlive the Manager.
func NewManager(cfg Config, store *tokenstore.Store, opts ...Option) (*Manager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("missing client credentials")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing API base URL")
	}
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}

	m := &Manager{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     Endpoint(cfg.BaseURL),
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
		},
		store:      store,
		timeout:    DefaultHTTPTimeout,
		leeway:     DefaultExpiryLeeway,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.timeout <= 0 {
		return nil, fmt.Errorf("non-positive exchange timeout %v", m.timeout)
	}
	if m.leeway < 0 {
		return nil, fmt.Errorf("negative expiry leeway %v", m.leeway)
	}
	if m.accessTTL <= 0 || m.refreshTTL <= 0 {
		return nil, fmt.Errorf("non-positive token lifetime")
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: m.timeout}
	}

	return m, nil
}

// AuthorizeURL returns the authorize-endpoint URL the operator visits to
// obtain an authorization code. Pure URL construction, no I/O. A non-empty
// state is carried through the redirect for CSRF correlation; empty omits
// the parameter.
func (m *Manager) AuthorizeURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// GetAccessToken returns a currently valid access token.
//
// With a non-empty authorizationCode it always performs the
// authorization-code grant: an explicit re-login that bypasses every cached
// credential. With an empty code it serves the cached access token while
// fresh and otherwise refreshes using the cached refresh token; concurrent
// callers share a single refresh exchange.
//
// Fails with ErrAuthRequired when no refresh path exists and with
// *NetworkError when the authorization server cannot be reached or fails.
func (m *Manager) GetAccessToken(ctx context.Context, authorizationCode string) (string, error) {
	if authorizationCode != "" {
		return m.login(ctx, authorizationCode)
	}

	tok, err := m.store.Get(ctx, tokenstore.TypeAccess)
	switch {
	case err == nil && m.fresh(tok):
		return tok.Value, nil
	case err != nil && !errors.Is(err, tokenstore.ErrNotFound):
		return "", err
	}

	value, err, _ := m.flight.Do(refreshFlightKey, func() (any, error) {
		// The flight outlives any single caller: its result is shared, so
		// one impatient caller must not cancel an exchange others wait on.
		// The exchange timeout keeps the detached context bounded.
		return m.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// login performs the authorization-code grant and persists the granted
// tokens.
func (m *Manager) login(ctx context.Context, code string) (string, error) {
	tok, err := m.exchange(ctx, "", func(ctx context.Context) (*oauth2.Token, error) {
		return m.oauth.Exchange(ctx, code)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "authorization code exchanged", "expires_at", tok.Expiry)
	return tok.AccessToken, nil
}

// refresh runs inside the single-flight group.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	// A caller that queued behind a completed refresh finds the fresh
	// token already stored and skips the exchange entirely.
	if tok, err := m.store.Get(ctx, tokenstore.TypeAccess); err == nil && m.fresh(tok) {
		return tok.Value, nil
	}

	rt, err := m.store.Get(ctx, tokenstore.TypeRefresh)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return "", fmt.Errorf("%w: no refresh token stored", ErrAuthRequired)
	}
	if err != nil {
		return "", err
	}

	tok, err := m.exchange(ctx, rt.Value, func(ctx context.Context) (*oauth2.Token, error) {
		// A single-use token source per refresh: rotation state lives in
		// the store, not in oauth2's internals.
		return m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: rt.Value}).Token()
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "access token refreshed", "expires_at", tok.Expiry)
	return tok.AccessToken, nil
}

// grantFunc runs one concrete grant against the token endpoint.
type grantFunc func(ctx context.Context) (*oauth2.Token, error)

// exchange runs a grant with the manager's HTTP client on a bounded,
// cancel-detached context, normalizes failures into the package's error
// taxonomy, and persists the granted tokens before returning. previousRT
// is the refresh token the grant was made with, used to detect rotation.
func (m *Manager) exchange(ctx context.Context, previousRT string, grant grantFunc) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	// The oauth2 package picks up custom HTTP clients from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)

	tok, err := grant(ctx)
	if err != nil {
		return nil, wrapGrantError(err)
	}

	if tok.Expiry.IsZero() {
		// Token endpoints occasionally omit expires_in; assume the
		// documented lifetime rather than treating the token as immortal.
		tok.Expiry = time.Now().Add(m.accessTTL)
	}

	if err := m.persist(ctx, tok, previousRT); err != nil {
		return nil, err
	}
	return tok, nil
}

// persist writes granted credentials through the store: the access token
// for its remaining lifetime, and the refresh token when the server rotated
// it. Write failures propagate; returning a token whose rotated refresh
// token was lost would trade an error now for ErrAuthRequired later.
func (m *Manager) persist(ctx context.Context, tok *oauth2.Token, previousRT string) error {
	ttl := time.Until(tok.Expiry)
	if ttl <= 0 {
		return fmt.Errorf("token endpoint returned an already expired token (expiry %s)", tok.Expiry)
	}
	if err := m.store.Put(ctx, tokenstore.TypeAccess, tok.AccessToken, ttl); err != nil {
		return err
	}

	if tok.RefreshToken != "" && tok.RefreshToken != previousRT {
		if err := m.store.Put(ctx, tokenstore.TypeRefresh, tok.RefreshToken, m.refreshTTL); err != nil {
			return err
		}
	}
	return nil
}

// fresh reports whether a cached access token still has at least the
// configured leeway of lifetime left.
func (m *Manager) fresh(tok tokenstore.Token) bool {
	return time.Now().Add(m.leeway).Before(tok.ExpiresAt)
}

// Logout discards every cached credential. The next GetAccessToken without
// an authorization code fails with ErrAuthRequired.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing stored tokens: %w", err)
	}
	slog.InfoContext(ctx, "stored credentials cleared")
	return nil
}

// TokenStatus describes one stored credential without exposing its value.
type TokenStatus struct {
	Present   bool
	Expired   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Status reports the storage backend in use and the state of both stored
// credentials, expired records included. Introspection only: no decryption,
// no network.
type Status struct {
	Backend string
	Access  TokenStatus
	Refresh TokenStatus
}

// Status returns the current credential status.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	st := Status{Backend: m.store.Backend()}

	for _, typ := range tokenstore.Types {
		rec, err := m.store.Stat(ctx, typ)
		if errors.Is(err, tokenstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return Status{}, err
		}

		ts := TokenStatus{
			Present:   true,
			Expired:   rec.Expired(time.Now()),
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
		}
		switch typ {
		case tokenstore.TypeAccess:
			st.Access = ts
		case tokenstore.TypeRefresh:
			st.Refresh = ts
		}
	}

	return st, nil
}
