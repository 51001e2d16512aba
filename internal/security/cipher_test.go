package security

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	c, err := New(key)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	large := make([]byte, 4096)
	if _, err := rand.Read(large); err != nil {
		t.Fatalf("generating payload: %v", err)
	}

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short token", []byte("at-7f2c9e")},
		{"json payload", []byte(`{"access":{"token":"abc","expires_at":"2026-01-01T00:00:00Z"}}`)},
		{"binary", large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := c.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.plaintext) > 0 && bytes.Contains(sealed, tt.plaintext) {
				t.Error("ciphertext contains plaintext")
			}

			opened, err := c.Decrypt(sealed)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(opened, tt.plaintext) {
				t.Errorf("Decrypt() = %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c := newTestCipher(t)

	first, err := c.Encrypt([]byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	second, err := c.Encrypt([]byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt([]byte("refresh-token-value"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// Flip one bit in the nonce, the body, and the auth tag respectively.
	for _, pos := range []int{0, len(sealed) / 2, len(sealed) - 1} {
		tampered := bytes.Clone(sealed)
		tampered[pos] ^= 0x01

		if _, err := c.Decrypt(tampered); !errors.Is(err, ErrDecryptFailed) {
			t.Errorf("Decrypt(tampered at %d) error = %v, want ErrDecryptFailed", pos, err)
		}
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	tests := []struct {
		name       string
		ciphertext []byte
	}{
		{"empty", nil},
		{"shorter than nonce", sealed[:4]},
		{"nonce only", sealed[:12]},
		{"missing tag", sealed[:len(sealed)-8]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decrypt(tt.ciphertext); !errors.Is(err, ErrDecryptFailed) {
				t.Errorf("Decrypt() error = %v, want ErrDecryptFailed", err)
			}
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := newTestCipher(t).Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := newTestCipher(t).Decrypt(sealed); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Decrypt() with different key error = %v, want ErrDecryptFailed", err)
	}
}

func TestNewRejectsInvalidKeyLengths(t *testing.T) {
	for _, n := range []int{0, 1, 15, 17, 31, 33, 64} {
		if _, err := New(make([]byte, n)); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("New(%d-byte key) error = %v, want ErrInvalidKey", n, err)
		}
	}
	for _, n := range []int{16, 24, 32} {
		if _, err := New(make([]byte, n)); err != nil {
			t.Errorf("New(%d-byte key) error = %v, want nil", n, err)
		}
	}
}

func TestParseKey(t *testing.T) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("generating key: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"hex", hex.EncodeToString(raw), raw},
		{"standard base64", base64.StdEncoding.EncodeToString(raw), raw},
		{"url-safe base64", base64.URLEncoding.EncodeToString(raw), raw},
		{"raw 32 characters", "A#x!q9$Lm@2zW&7pR*4vT^8nB%3cD(6e", []byte("A#x!q9$Lm@2zW&7pR*4vT^8nB%3cD(6e")},
		{"surrounding whitespace", "  " + hex.EncodeToString(raw) + "\n", raw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.input)
			if err != nil {
				t.Fatalf("ParseKey() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ParseKey() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestParseKeyHexPrecedence(t *testing.T) {
	// 32 characters that are all hex digits decode as hex first, yielding a
	// 16-byte AES-128 key rather than the raw 32 ASCII bytes.
	got, err := ParseKey("00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatalf("ParseKey() error = %v", err)
	}
	if len(got) != 16 {
		t.Errorf("ParseKey() yielded %d bytes, want 16 (hex decoding)", len(got))
	}
}

func TestParseKeyRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too short", "short"},
		{"unusable length", "this string is 26 chars aa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseKey(tt.input); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ParseKey(%q) error = %v, want ErrInvalidKey", tt.input, err)
			}
		})
	}
}

func TestGenerateKey(t *testing.T) {
	first, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(first) != 32 {
		t.Errorf("GenerateKey() length = %d, want 32", len(first))
	}

	second, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two generated keys are identical")
	}

	if _, err := New(first); err != nil {
		t.Errorf("New(GenerateKey()) error = %v", err)
	}
}
