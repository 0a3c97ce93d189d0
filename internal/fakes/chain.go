// Package fakes provides in-memory implementations of the collab
// interfaces, used by tests in this module and by the statesyncctl
// smoke-test subcommands.
package fakes

import (
	"fmt"
	"sync"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
	"github.com/meridianchain/statesync/wire"
)

type statePartKey struct {
	shard    types.ShardId
	syncHash types.Hash
	idx      uint64
}

// Chain is an in-memory stand-in for the blockchain chain store.
type Chain struct {
	mu sync.Mutex

	headers  map[types.Hash]*collab.BlockHeader
	stateHdr map[[2]interface{}]*wire.ShardStateSyncResponseHeader
	parts    map[statePartKey][]byte

	// ApplyScheduleErr, when set, is returned by ScheduleApplyStateParts
	// instead of enqueueing, to exercise S5 (apply failure resets shard).
	ApplyScheduleErr error

	// SetStateFinalizeErr, when set, is returned by SetStateFinalize.
	SetStateFinalizeErr error

	FlatStorageCreated []types.ShardUid
}

// NewChain constructs an empty fake chain.
func NewChain() *Chain {
	return &Chain{
		headers:  make(map[types.Hash]*collab.BlockHeader),
		stateHdr: make(map[[2]interface{}]*wire.ShardStateSyncResponseHeader),
		parts:    make(map[statePartKey][]byte),
	}
}

// PutHeader registers a block header for GetBlockHeader to return.
func (c *Chain) PutHeader(h *collab.BlockHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[h.Hash] = h
}

func (c *Chain) GetBlockHeader(hash types.Hash) (*collab.BlockHeader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.headers[hash]
	if !ok {
		return nil, fmt.Errorf("fakes: no header for %s", hash)
	}
	return h, nil
}

func stateHdrKey(shard types.ShardId, syncHash types.Hash) [2]interface{} {
	return [2]interface{}{shard, syncHash}
}

func (c *Chain) GetStateHeader(shard types.ShardId, syncHash types.Hash) (*wire.ShardStateSyncResponseHeader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.stateHdr[stateHdrKey(shard, syncHash)]
	if !ok {
		return nil, fmt.Errorf("fakes: no state header for shard %s at %s", shard, syncHash)
	}
	return h, nil
}

func (c *Chain) SetStateHeader(shard types.ShardId, syncHash types.Hash, header *wire.ShardStateSyncResponseHeader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateHdr[stateHdrKey(shard, syncHash)] = header
	return nil
}

// SetStatePart persists the part bytes. Writing the same key twice
// with the same bytes is a no-op success, per spec.md §8's
// idempotence property.
func (c *Chain) SetStatePart(shard types.ShardId, syncHash types.Hash, part types.PartId, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := statePartKey{shard: shard, syncHash: syncHash, idx: part.Idx}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.parts[k] = cp
	return nil
}

// GetStatePart is a test accessor, not part of collab.Chain.
func (c *Chain) GetStatePart(shard types.ShardId, syncHash types.Hash, idx uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.parts[statePartKey{shard: shard, syncHash: syncHash, idx: idx}]
	return b, ok
}

func (c *Chain) ScheduleApplyStateParts(shard types.ShardId, syncHash types.Hash, numParts uint64, sched collab.ApplySender) error {
	if c.ApplyScheduleErr != nil {
		return c.ApplyScheduleErr
	}
	return sched.Send(collab.ApplyStatePartsRequest{ShardId: shard, SyncHash: syncHash, NumParts: numParts})
}

func (c *Chain) ScheduleLoadMemtrie(uid types.ShardUid, syncHash types.Hash, chunk wire.ChunkRef, sched collab.MemtrieSender) {
	sched.Send(collab.LoadMemtrieRequest{ShardUid: uid, SyncHash: syncHash, Chunk: chunk})
}

func (c *Chain) CreateFlatStorageForShard(uid types.ShardUid, chunk wire.ChunkRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FlatStorageCreated = append(c.FlatStorageCreated, uid)
	return nil
}

func (c *Chain) SetStateFinalize(shard types.ShardId, syncHash types.Hash) error {
	return c.SetStateFinalizeErr
}

func (c *Chain) ClearDownloadedParts(shard types.ShardId, syncHash types.Hash, numParts uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := uint64(0); i < numParts; i++ {
		delete(c.parts, statePartKey{shard: shard, syncHash: syncHash, idx: i})
	}
	return nil
}
