package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/manwonyori/cafe24-auth/internal/security"
)

// Default storage settings.
const (
	// DefaultNamespace prefixes cache keys so several applications can
	// share one Redis instance.
	DefaultNamespace = "cafe24"

	// DefaultProbeTimeout bounds the construction-time reachability check
	// of the cache backend.
	DefaultProbeTimeout = 5 * time.Second
)

// Config holds storage settings for a Store.
type Config struct {
	// RedisURL selects the shared cache backend when set ("redis://...").
	// Construction probes the server once; an unreachable server selects
	// the file backend for the Store's whole lifetime.
	RedisURL string

	// FilePath locates the encrypted file backend. Required: it is also
	// the fallback when the cache probe fails.
	FilePath string

	// Namespace prefixes cache keys (default "cafe24").
	Namespace string

	// ProbeTimeout bounds the cache reachability check (default 5s).
	ProbeTimeout time.Duration
}

// backend persists serialized records. Implementations never see plaintext
// and never interpret expiry; the Store owns both.
type backend interface {
	name() string
	load(ctx context.Context, typ Type) (Record, bool, error)
	store(ctx context.Context, rec Record, ttl time.Duration) error
	clear(ctx context.Context) error
}

// Store keeps encrypted credential records in one backend chosen at
// construction time. All methods are safe for concurrent use.
type Store struct {
	cipher  *security.Cipher
	backend backend
}

// New creates a Store. When cfg.RedisURL is set the cache backend is probed
// once: a reachable server is used for the Store's lifetime, an unreachable
// one logs a warning and selects the encrypted file backend instead. A
// malformed Redis URL is a configuration error, not a probe failure, and
// fails construction.
func New(ctx context.Context, ciph *security.Cipher, cfg Config) (*Store, error) {
	if ciph == nil {
		return nil, fmt.Errorf("cipher cannot be nil")
	}
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}

	s := &Store{cipher: ciph}

	if cfg.RedisURL != "" {
		rb, err := newRedisBackend(ctx, cfg)
		switch {
		case err == nil:
			s.backend = rb
			slog.InfoContext(ctx, "token store ready", "backend", rb.name())
			return s, nil
		case errors.Is(err, errBackendUnavailable):
			slog.WarnContext(ctx, "cache backend unreachable, falling back to file storage",
				"error", err, "file", cfg.FilePath)
		default:
			return nil, err
		}
	}

	fb, err := newFileBackend(cfg.FilePath, ciph)
	if err != nil {
		return nil, err
	}
	s.backend = fb
	slog.InfoContext(ctx, "token store ready", "backend", fb.name(), "file", cfg.FilePath)
	return s, nil
}

// Get returns the decrypted token for typ. Expired records are treated as
// absent (lazy expiry). Backend read failures and undecryptable records are
// logged and also reported as ErrNotFound: the caller's recovery for all of
// them is to re-acquire the credential, and a storage fault must never be
// mistaken for a valid token.
func (s *Store) Get(ctx context.Context, typ Type) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}
	if !typ.valid() {
		return Token{}, fmt.Errorf("unknown token type %q", typ)
	}

	rec, ok, err := s.backend.load(ctx, typ)
	if err != nil {
		slog.WarnContext(ctx, "token read failed, treating as absent",
			"type", typ, "backend", s.backend.name(), "error", err)
		return Token{}, ErrNotFound
	}
	if !ok {
		return Token{}, ErrNotFound
	}
	if err := rec.validate(); err != nil {
		slog.WarnContext(ctx, "stored token record invalid, treating as absent",
			"type", typ, "backend", s.backend.name(), "error", err)
		return Token{}, ErrNotFound
	}
	if rec.Expired(time.Now()) {
		return Token{}, ErrNotFound
	}

	plaintext, err := s.cipher.Decrypt(rec.Token)
	if err != nil {
		slog.WarnContext(ctx, "stored token cannot be decrypted, treating as absent",
			"type", typ, "backend", s.backend.name(), "error", err)
		return Token{}, ErrNotFound
	}

	return Token{
		Value:     string(plaintext),
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Put encrypts rawToken and writes its record, overwriting any previous
// record for typ. The record expires ttl from now; the cache backend
// additionally receives ttl as its native expiry. Unlike reads, write
// failures propagate: losing a freshly rotated credential must be loud.
func (s *Store) Put(ctx context.Context, typ Type, rawToken string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !typ.valid() {
		return fmt.Errorf("unknown token type %q", typ)
	}
	if rawToken == "" {
		return fmt.Errorf("empty %s token", typ)
	}
	if ttl <= 0 {
		return fmt.Errorf("non-positive ttl %v for %s token", ttl, typ)
	}

	ciphertext, err := s.cipher.Encrypt([]byte(rawToken))
	if err != nil {
		return fmt.Errorf("encrypting %s token: %w", typ, err)
	}

	now := time.Now().UTC()
	rec := Record{
		Type:      typ,
		Token:     ciphertext,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.backend.store(ctx, rec, ttl); err != nil {
		return fmt.Errorf("storing %s token: %w", typ, err)
	}
	return nil
}

// Stat returns the stored record for typ with its ciphertext stripped,
// expired records included. Introspection only; Get remains the single
// path to a usable token.
func (s *Store) Stat(ctx context.Context, typ Type) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if !typ.valid() {
		return Record{}, fmt.Errorf("unknown token type %q", typ)
	}

	rec, ok, err := s.backend.load(ctx, typ)
	if err != nil {
		return Record{}, fmt.Errorf("loading %s record: %w", typ, err)
	}
	if !ok {
		return Record{}, ErrNotFound
	}

	rec.Token = nil
	return rec, nil
}

// Clear removes every stored credential.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.clear(ctx)
}

// Backend names the selected backend ("redis" or "file").
func (s *Store) Backend() string {
	return s.backend.name()
}

// Close releases backend resources (the cache client's connection pool).
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
