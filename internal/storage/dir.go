package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirStorage writes snapshots below a local directory. It is used when no
// bucket is configured.
type DirStorage struct {
	root string
}

// NewDirStorage returns a DirStorage rooted at root, creating it if needed.
func NewDirStorage(root string) (*DirStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("dir storage: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DirStorage{root: root}, nil
}

// Save writes r to name below the root and returns the file path.
func (d *DirStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(name, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("dir storage: invalid name %q", name)
	}
	target := filepath.Join(d.root, rel)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("move snapshot: %w", err)
	}
	return target, nil
}
