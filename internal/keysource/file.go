package keysource

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// FileSource reads key material from a local file and refuses files with
// permissions broader than owner read/write.
type FileSource struct {
	filePath string
}

// Compile-time check to ensure FileSource implements Source
var _ Source = (*FileSource)(nil)

// NewFileSource creates a FileSource for the given path.
func NewFileSource(filePath string) (*FileSource, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	return &FileSource{
		filePath: filePath,
	}, nil
}

// Load returns the key material after trimming whitespace. Returns error if
// the file doesn't exist, is empty, or has insecure permissions.
func (f *FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Check file permissions before reading
	info, err := os.Stat(f.filePath)
	if err != nil {
		return nil, err
	}
	if info.Mode().Perm() != 0600 {
		return nil, fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.filePath, info.Mode().Perm())
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return nil, err
	}

	key := bytes.TrimSpace(data)
	if len(key) == 0 {
		return nil, fmt.Errorf("empty key file %s", f.filePath)
	}
	return key, nil
}
