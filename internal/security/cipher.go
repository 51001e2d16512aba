// Package security implements the authenticated encryption applied to token
// material before it reaches any storage backend.
//
// Encryption is AES-GCM with a fresh random nonce per call, so ciphertexts
// are opaque nonce-prefixed byte strings and identical plaintexts encrypt
// to different bytes. Decryption authenticates before returning plaintext:
// a truncated or tampered ciphertext, or one produced under a different
// key, fails with ErrDecryptFailed instead of yielding garbage.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrInvalidKey reports key material that cannot back an AES cipher.
	// Construction fails with it; a process holding tokens must not run
	// with a key it cannot fully validate.
	ErrInvalidKey = errors.New("invalid encryption key")

	// ErrDecryptFailed reports ciphertext that does not authenticate under
	// the configured key: wrong key, truncation, or bit corruption. The
	// protected token must be treated as absent and re-acquired.
	ErrDecryptFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts opaque byte payloads. It holds only the key
// schedule; it knows nothing about token semantics or where ciphertexts are
// stored.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from raw key bytes. The key must be 16, 24, or 32
// bytes long (AES-128/192/256); anything else fails with ErrInvalidKey.
func New(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d bytes, want 16, 24, or 32", ErrInvalidKey, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// ParseKey decodes configured key material into raw key bytes. Printable
// renderings are tried in a fixed order (hex, then standard and URL-safe
// base64) before the input is taken as raw bytes, so a 64-hex-character key
// and a raw 32-character key both work. The decoded result must be a valid
// AES key length or ParseKey fails with ErrInvalidKey.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty key material", ErrInvalidKey)
	}

	if len(s)%2 == 0 {
		if key, err := hex.DecodeString(s); err == nil && validKeyLength(key) {
			return key, nil
		}
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && validKeyLength(key) {
		return key, nil
	}
	if key, err := base64.URLEncoding.DecodeString(s); err == nil && validKeyLength(key) {
		return key, nil
	}
	if key := []byte(s); validKeyLength(key) {
		return key, nil
	}

	return nil, fmt.Errorf("%w: %d characters decode to no valid AES key length", ErrInvalidKey, len(s))
}

// GenerateKey returns a fresh random 32-byte key (AES-256).
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh random nonce. The output layout is
// nonce || ciphertext; calling Encrypt twice with identical input produces
// different bytes.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Every integrity failure
// surfaces as ErrDecryptFailed; incorrect plaintext is never returned.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", ErrDecryptFailed)
	}

	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plaintext, nil
}

func validKeyLength(key []byte) bool {
	switch len(key) {
	case 16, 24, 32:
		return true
	default:
		return false
	}
}
