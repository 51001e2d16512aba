package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/manwonyori/cafe24-auth/internal/security"
)

// fileBackend persists all records as one encrypted blob: the record
// mapping is marshaled to JSON and encrypted as a unit, so token types,
// timestamps, and ciphertexts are all opaque on disk. Writes use temp file
// + rename for crash safety.
type fileBackend struct {
	filePath string
	cipher   *security.Cipher

	// Serializes read-modify-write cycles within this process. Cross-process
	// writers race at the granularity of whole-file swaps, which the atomic
	// rename keeps consistent.
	mu sync.Mutex
}

// Compile-time check to ensure fileBackend implements backend
var _ backend = (*fileBackend)(nil)

// newFileBackend creates a fileBackend for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func newFileBackend(filePath string, ciph *security.Cipher) (*fileBackend, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &fileBackend{
		filePath: filePath,
		cipher:   ciph,
	}, nil
}

func (f *fileBackend) name() string { return "file" }

func (f *fileBackend) load(ctx context.Context, typ Type) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.loadAll(ctx)[typ]
	return rec, ok, nil
}

func (f *fileBackend) store(ctx context.Context, rec Record, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.loadAll(ctx)
	records[rec.Type] = rec
	return f.saveAll(records)
}

func (f *fileBackend) clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadAll reads and decrypts the whole record mapping. A missing file is an
// empty mapping; so is an unreadable, undecryptable, or corrupt one (logged,
// never fatal). All of them mean the same thing to callers: no tokens
// cached yet, tokens must be re-acquired.
func (f *fileBackend) loadAll(ctx context.Context) map[Type]Record {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "token file unreadable, starting empty", "file", f.filePath, "error", err)
		}
		return map[Type]Record{}
	}
	if len(data) == 0 {
		return map[Type]Record{}
	}

	plaintext, err := f.cipher.Decrypt(data)
	if err != nil {
		slog.WarnContext(ctx, "token file cannot be decrypted, starting empty", "file", f.filePath, "error", err)
		return map[Type]Record{}
	}

	var records map[Type]Record
	if err := json.Unmarshal(plaintext, &records); err != nil {
		slog.WarnContext(ctx, "token file corrupt, starting empty", "file", f.filePath, "error", err)
		return map[Type]Record{}
	}
	if records == nil {
		records = map[Type]Record{}
	}
	return records
}

// saveAll encrypts the record mapping and writes it atomically. The
// rename either installs the complete new blob or leaves the previous one
// in place; a crash mid-write can't leave a truncated file.
func (f *fileBackend) saveAll(records map[Type]Record) error {
	plaintext, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	blob, err := f.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypting records: %w", err)
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(blob); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final location
	if err := os.Rename(tempName, f.filePath); err != nil {
		return err
	}

	// Set secure file permissions (0600 = rw-------)
	if err := os.Chmod(f.filePath, 0600); err != nil {
		return err
	}

	return nil
}
