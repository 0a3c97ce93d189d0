package external

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemConnection reads state dumps from a local directory tree,
// used in single-node test networks and local development in place of
// a real bucket.
type FilesystemConnection struct {
	root string
}

// NewFilesystemConnection roots a connection at dir.
func NewFilesystemConnection(dir string) *FilesystemConnection {
	return &FilesystemConnection{root: dir}
}

func (c *FilesystemConnection) GetFile(ctx context.Context, key string) ([]byte, error) {
	path := filepath.Join(c.root, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("external: read %s: %w", path, err)
	}
	return data, nil
}
