package external

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemConnectionGetFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chain/1/shard_0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chain/1/shard_0/state_header"), []byte("hdr"), 0o644))

	conn := NewFilesystemConnection(dir)
	data, err := conn.GetFile(context.Background(), "chain/1/shard_0/state_header")
	require.NoError(t, err)
	assert.Equal(t, "hdr", string(data))
}

func TestFilesystemConnectionNotFound(t *testing.T) {
	conn := NewFilesystemConnection(t.TempDir())
	_, err := conn.GetFile(context.Background(), "missing/key")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
