package digestfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

// Writer stores the digest as indented JSON at a fixed path.
type Writer struct {
	path string
}

var _ ports.DigestWriter = (*Writer)(nil)

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path is the destination file.
func (w *Writer) Path() string { return w.path }

// Write replaces the previous document atomically via a temp file and rename.
func (w *Writer) Write(ctx context.Context, digest domain.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".digest-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace digest: %w", err)
	}
	return nil
}
