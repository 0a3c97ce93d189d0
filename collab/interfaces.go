// Package collab declares the narrow interfaces the state sync core
// consumes from its external collaborators (§6 of the specification):
// the chain store, the runtime adapter, the epoch manager, and the
// network adapter. None of these are implemented here — production
// implementations live in the enclosing node; this module only needs
// to compile and test against the shapes below.
package collab

import (
	"context"

	"github.com/meridianchain/statesync/types"
	"github.com/meridianchain/statesync/wire"
)

// ShardLayout is an opaque comparable value representing how shards
// are laid out in an epoch. Two layouts are equal iff they assign the
// same shards.
type ShardLayout interface {
	Equal(other ShardLayout) bool
}

// EpochInfo exposes the handful of epoch-level facts the sync core
// needs.
type EpochInfo interface {
	EpochHeight() types.EpochHeight
}

// BlockHeader is the minimal block header surface the sync core reads.
type BlockHeader struct {
	Hash     types.Hash
	PrevHash types.Hash
	EpochId  types.EpochId
}

// ApplyStatePartsRequest is enqueued onto the apply-parts scheduler
// when a shard has finished downloading every part.
type ApplyStatePartsRequest struct {
	ShardId  types.ShardId
	SyncHash types.Hash
	NumParts uint64
}

// LoadMemtrieRequest is enqueued onto the memtrie scheduler once a
// shard's parts have been applied and flat storage (if any) created.
type LoadMemtrieRequest struct {
	ShardUid types.ShardUid
	SyncHash types.Hash
	Chunk    wire.ChunkRef
}

// ApplySender schedules an ApplyStatePartsRequest with some external
// worker pool; it returns an error only if the request could not be
// enqueued (the pool is full, shutting down, etc).
type ApplySender interface {
	Send(req ApplyStatePartsRequest) error
}

// MemtrieSender schedules a LoadMemtrieRequest. Unlike ApplySender,
// enqueue failure is not modeled: the original design treats memtrie
// scheduling as infallible (the task itself can still fail and report
// through Syncer.SetLoadMemtrieResult).
type MemtrieSender interface {
	Send(req LoadMemtrieRequest)
}

// Chain is the subset of the blockchain chain store the sync core
// reads and writes.
type Chain interface {
	GetBlockHeader(hash types.Hash) (*BlockHeader, error)
	GetStateHeader(shard types.ShardId, syncHash types.Hash) (*wire.ShardStateSyncResponseHeader, error)
	SetStateHeader(shard types.ShardId, syncHash types.Hash, header *wire.ShardStateSyncResponseHeader) error
	SetStatePart(shard types.ShardId, syncHash types.Hash, part types.PartId, data []byte) error
	ScheduleApplyStateParts(shard types.ShardId, syncHash types.Hash, numParts uint64, sched ApplySender) error
	ScheduleLoadMemtrie(uid types.ShardUid, syncHash types.Hash, chunk wire.ChunkRef, sched MemtrieSender)
	CreateFlatStorageForShard(uid types.ShardUid, chunk wire.ChunkRef) error
	SetStateFinalize(shard types.ShardId, syncHash types.Hash) error
	ClearDownloadedParts(shard types.ShardId, syncHash types.Hash, numParts uint64) error
}

// RuntimeAdapter validates downloaded state parts against the
// expected state root.
type RuntimeAdapter interface {
	ValidateStatePart(root types.StateRoot, part types.PartId, data []byte) bool
}

// EpochManager resolves shard layout and shard identity facts for a
// given epoch.
type EpochManager interface {
	GetShardLayout(epoch types.EpochId) (ShardLayout, error)
	GetEpochInfo(epoch types.EpochId) (EpochInfo, error)
	ShardIDToUID(shard types.ShardId, epoch types.EpochId) (types.ShardUid, error)
	WillShardLayoutChange(prevHash types.Hash) (bool, error)
}

// NetworkResponseKind classifies an outbound network request's
// outcome, mirroring spec.md §4.5's RouteNotFound handling.
type NetworkResponseKind int

const (
	// NetworkResponseRouteNotFound means the peer manager could not
	// route the request to the target peer; the slot should be
	// re-armed for retry.
	NetworkResponseRouteNotFound NetworkResponseKind = iota
	// NetworkResponseOK means the request was delivered; any actual
	// header/part payload arrives later via
	// Syncer.UpdateDownloadOnStateResponse, not through this channel.
	NetworkResponseOK
)

// HighestHeightPeer is a peer known to be at or near the chain tip,
// and therefore a plausible target for state requests.
type HighestHeightPeer struct {
	PeerId        types.PeerId
	TrackedShards []types.ShardId
}

// NetworkAdapter sends outbound state sync requests and publishes
// part-received events.
type NetworkAdapter interface {
	SendStateRequestHeader(ctx context.Context, shard types.ShardId, syncHash types.Hash, peer types.PeerId) <-chan NetworkResponseKind
	SendStateRequestPart(ctx context.Context, shard types.ShardId, syncHash, syncPrevPrevHash types.Hash, partIdx uint64, peer types.PeerId) <-chan NetworkResponseKind
	PublishStatePartReceived(shard types.ShardId, partIdx uint64)
}

// StateResponsePart carries a single part delivered by a peer through
// whatever transport the network adapter uses; ingestion happens via
// Syncer.UpdateDownloadOnStateResponse (§4.6).
type StateResponsePart struct {
	PartIdx uint64
	Data    []byte
}

// StateResponse is the payload of an inbound peer response to a state
// request: either a header, a part, or neither (the peer could not
// generate a response).
type StateResponse struct {
	Header *wire.ShardStateSyncResponseHeader
	Part   *StateResponsePart
}
