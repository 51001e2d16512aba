package keysource

import "context"

// Source yields encryption key material from a configured origin.
//
// All sources are read-only from the application's point of view; the
// keyring source additionally supports provisioning via Store.
type Source interface {
	// Load returns the key material. Returns error if the origin is
	// unreachable or holds no key.
	Load(ctx context.Context) ([]byte, error)
}
