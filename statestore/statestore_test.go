package statestore

import (
	"testing"

	ds "github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/statesync/types"
)

func TestOpenEmptyStoreRestoresNothing(t *testing.T) {
	_, restored, err := Open(nil)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestPutAndRestore(t *testing.T) {
	backing := ds.NewMapDatastore()

	store, _, err := Open(backing)
	require.NoError(t, err)

	st := Status{ShardId: types.ShardId(7), SyncHash: types.Hash{1, 2, 3}, State: "DownloadParts"}
	require.NoError(t, store.Put(st))

	_, restored, err := Open(backing)
	require.NoError(t, err)
	require.Contains(t, restored, types.ShardId(7))
	assert.Equal(t, st, restored[types.ShardId(7)])
}

func TestDeleteRemovesEntry(t *testing.T) {
	backing := ds.NewMapDatastore()
	store, _, err := Open(backing)
	require.NoError(t, err)

	st := Status{ShardId: types.ShardId(1), State: "StateSyncDone"}
	require.NoError(t, store.Put(st))
	require.NoError(t, store.Delete(types.ShardId(1)))

	_, restored, err := Open(backing)
	require.NoError(t, err)
	assert.NotContains(t, restored, types.ShardId(1))
}
