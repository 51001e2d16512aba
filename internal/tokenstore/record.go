package tokenstore

import (
	"errors"
	"fmt"
	"time"
)

// Type identifies which credential a record holds. Storage keys derive from
// it, so the set is closed: free-form strings never reach a backend.
type Type string

const (
	// TypeAccess is the short-lived credential presented on API calls.
	TypeAccess Type = "access"

	// TypeRefresh is the long-lived credential used to mint new access
	// tokens without operator interaction.
	TypeRefresh Type = "refresh"
)

// Types lists every credential type a Store manages.
var Types = []Type{TypeAccess, TypeRefresh}

func (t Type) valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

// ErrNotFound reports that no usable record exists for a token type:
// nothing is stored, the record has expired, or its ciphertext could not be
// decrypted. Callers re-acquire the credential in all three cases.
var ErrNotFound = errors.New("token not found")

// errBackendUnavailable signals a failed cache-backend probe during
// construction. It never escapes New; it only selects the file fallback.
var errBackendUnavailable = errors.New("backend unavailable")

// Record is the serialized form of one stored credential. Token holds
// ciphertext; the raw credential never reaches a backend.
type Record struct {
	Type      Type      `json:"type"`
	Token     []byte    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record's lifetime has passed at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r Record) validate() error {
	if !r.Type.valid() {
		return fmt.Errorf("unknown token type %q", r.Type)
	}
	if len(r.Token) == 0 {
		return fmt.Errorf("empty ciphertext for %s token", r.Type)
	}
	if r.ExpiresAt.IsZero() || !r.CreatedAt.Before(r.ExpiresAt) {
		return fmt.Errorf("invalid lifetime for %s token: created %s, expires %s", r.Type, r.CreatedAt, r.ExpiresAt)
	}
	return nil
}

// Token is a decrypted credential as returned to callers.
type Token struct {
	Value     string
	CreatedAt time.Time
	ExpiresAt time.Time
}
