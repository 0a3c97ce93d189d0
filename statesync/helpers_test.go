package statesync

import (
	"context"
	"errors"

	"github.com/meridianchain/statesync/types"
	"github.com/meridianchain/statesync/wire"
)

func headerWithRoot(shard types.ShardId, syncHash types.Hash, numParts uint64) *wire.ShardStateSyncResponseHeader {
	return &wire.ShardStateSyncResponseHeader{
		ShardId:       shard,
		SyncHash:      syncHash,
		NumStateParts: numParts,
		StateRoot:     types.Hash{0xAB},
	}
}

// stubConnection is a trivial external.Connection that always returns
// the same bytes, or an error when configured to.
type stubConnection struct {
	data []byte
	err  error
}

func (c *stubConnection) GetFile(ctx context.Context, key string) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

var errStub = errors.New("stub connection error")
