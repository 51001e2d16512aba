package keysource

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestEnvSource(t *testing.T) {
	t.Setenv("TEST_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	src, err := NewEnvSource("TEST_ENCRYPTION_KEY")
	if err != nil {
		t.Fatalf("NewEnvSource() error = %v", err)
	}

	key, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(key) != "0123456789abcdef0123456789abcdef" {
		t.Errorf("Load() = %q, want the variable's value", key)
	}
}

func TestEnvSourceUnsetVariable(t *testing.T) {
	if _, err := NewEnvSource("DEFINITELY_NOT_SET_KEY_VAR"); err == nil {
		t.Error("NewEnvSource() with unset variable succeeded, want error")
	}
}

func TestEnvSourceEmptyValue(t *testing.T) {
	t.Setenv("TEST_EMPTY_KEY", "")

	src, err := NewEnvSource("TEST_EMPTY_KEY")
	if err != nil {
		t.Fatalf("NewEnvSource() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() with empty variable succeeded, want error")
	}
}

func TestEnvSourceEmptyName(t *testing.T) {
	if _, err := NewEnvSource(""); err == nil {
		t.Error("NewEnvSource(\"\") succeeded, want error")
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  "+"0123456789abcdef0123456789abcdef"+"\n"), 0600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}

	key, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(key, []byte("0123456789abcdef0123456789abcdef")) {
		t.Errorf("Load() = %q, want trimmed file contents", key)
	}
}

func TestFileSourceInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("some-key-material-32-bytes-long!"), 0644); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() with 0644 permissions succeeded, want error")
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() with missing file succeeded, want error")
	}
}

func TestFileSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("\n\t "), 0600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() with whitespace-only file succeeded, want error")
	}
}

func TestKeyringSourceRoundTrip(t *testing.T) {
	keyring.MockInit()

	src, err := NewKeyringSource("cafe24-auth-test", "tester")
	if err != nil {
		t.Fatalf("NewKeyringSource() error = %v", err)
	}

	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() before Store() succeeded, want error")
	}

	if err := src.Store(context.Background(), []byte("stored-key-material")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	key, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(key) != "stored-key-material" {
		t.Errorf("Load() = %q, want stored material", key)
	}
}

func TestKeyringSourceValidation(t *testing.T) {
	if _, err := NewKeyringSource("", "user"); err == nil {
		t.Error("NewKeyringSource with empty service succeeded, want error")
	}
	if _, err := NewKeyringSource("service", ""); err == nil {
		t.Error("NewKeyringSource with empty user succeeded, want error")
	}
}

func TestSourceContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Setenv("TEST_CTX_KEY", "value")
	src, err := NewEnvSource("TEST_CTX_KEY")
	if err != nil {
		t.Fatalf("NewEnvSource() error = %v", err)
	}
	if _, err := src.Load(ctx); err == nil {
		t.Error("Load() with cancelled context succeeded, want error")
	}
}
