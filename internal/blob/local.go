package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Local writes blobs into a directory on disk.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal returns a store rooted at dir. When baseURL is empty, file:// URLs are returned.
func NewLocal(dir, baseURL string) (*Local, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("local storage directory is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory: %w", err)
	}

	return &Local{dir: abs, baseURL: strings.TrimSpace(baseURL)}, nil
}

// Store writes data under a random name and returns its URL.
func (l *Local) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	key := newKey("", contentType)
	path := filepath.Join(l.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	if l.baseURL != "" {
		return joinURL(l.baseURL, key), nil
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}
