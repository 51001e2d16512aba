package keysource

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringSource reads key material from OS-native credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringSource struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringSource implements Source
var _ Source = (*KeyringSource)(nil)

// NewKeyringSource creates a KeyringSource for the OS-native credential
// storage using the given service and user identifiers.
func NewKeyringSource(service, user string) (*KeyringSource, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringSource{
		service: service,
		user:    user,
	}, nil
}

// Load returns the key material from the system keyring. Returns error if
// not found or empty.
func (k *KeyringSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := keyring.Get(k.service, k.user)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return nil, fmt.Errorf("empty key in keyring for service %s, user %s", k.service, k.user)
	}

	return []byte(key), nil
}

// Store provisions key material into the system keyring, overwriting any
// existing value. The keyring is the only writable source; env and file
// keys are provisioned outside the process.
func (k *KeyringSource) Store(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(key) == 0 {
		return fmt.Errorf("key material cannot be empty")
	}

	return keyring.Set(k.service, k.user, string(key))
}
