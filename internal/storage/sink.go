// Package storage persists finished transcripts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyTranscript is returned when there is nothing to save.
var ErrEmptyTranscript = errors.New("transcript is empty")

// ErrInvalidName is returned for names that would leave the sink's directory.
var ErrInvalidName = errors.New("invalid transcript name")

// Sink stores a transcript under a name.
type Sink interface {
	Save(ctx context.Context, name, content string) error
}

// prepare trims trailing whitespace and rejects empty content.
func prepare(content string) (string, error) {
	content = strings.TrimRight(content, " \t\r\n")
	if content == "" {
		return "", ErrEmptyTranscript
	}
	return content, nil
}

// FileSink writes transcripts as UTF-8 text files under Dir. Names must be
// local paths: absolute paths and paths escaping Dir are rejected.
type FileSink struct {
	Dir string
}

// Save writes content to name, creating parent directories.
func (f FileSink) Save(_ context.Context, name, content string) error {
	content, err := prepare(content)
	if err != nil {
		return err
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(f.Dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
