package statesync

import (
	"context"

	"github.com/meridianchain/statesync/external"
	"github.com/meridianchain/statesync/types"
	"github.com/meridianchain/statesync/wire"
)

// completionKind distinguishes the two external-storage artifacts
// that complete asynchronously and are folded back into shard state
// by the driver loop, never by the fetch goroutine itself.
type completionKind int

const (
	completionHeader completionKind = iota
	completionPart
)

// completion is posted onto Syncer.completionCh by an external-fetch
// goroutine once it has a final answer (success or failure) for one
// slot; it is the module's multi-producer-single-consumer channel,
// mirroring how async state part tasks report back in the system this
// core is modeled on.
type completion struct {
	kind     completionKind
	shard    types.ShardId
	syncHash types.Hash
	partIdx  uint64
	numParts uint64
	data     []byte
	slot     *DownloadSlot
	err      error
}

// fetchHeaderExternal downloads a shard's state header from external
// storage, parses it, and hands the result to the driver loop over
// completionCh. The slot was already marked armed-and-claimed by the
// caller (dispatchHeader); this goroutine only fetches, parses, and
// reports.
func (s *Syncer) fetchHeaderExternal(ctx context.Context, shard types.ShardId, syncHash types.Hash, slot *DownloadSlot) {
	slot.StateRequestsCount++

	key := s.externalLocation(shard, external.FileRef{Kind: external.FileKindHeader, ShardId: shard, SyncHash: syncHash})
	data, err := s.external.GetFile(ctx, key)
	if err != nil {
		s.completionCh <- completion{kind: completionHeader, shard: shard, syncHash: syncHash, slot: slot, err: err}
		return
	}

	if _, err := wire.HeaderFromBytes(data); err != nil {
		s.completionCh <- completion{kind: completionHeader, shard: shard, syncHash: syncHash, slot: slot, err: err}
		return
	}

	s.completionCh <- completion{kind: completionHeader, shard: shard, syncHash: syncHash, data: data, slot: slot}
}

// fetchPartExternal downloads one state part from external storage,
// validates it against the shard's state root, and reports the
// outcome. The caller acquires the fetch-concurrency permit before
// spawning this goroutine; it is released here once the GET (and
// validation) concludes.
func (s *Syncer) fetchPartExternal(ctx context.Context, shard types.ShardId, syncHash types.Hash, partIdx int, numParts uint64, slot *DownloadSlot) {
	defer s.throttlerFor(shard).Release()

	slot.StateRequestsCount++

	key := s.externalLocation(shard, external.FileRef{
		Kind: external.FileKindPart, ShardId: shard, SyncHash: syncHash,
		PartIdx: uint64(partIdx), NumParts: numParts,
	})
	data, err := s.external.GetFile(ctx, key)
	if err != nil {
		s.metrics.ExternalPartsFailed.WithLabelValues(shard.String()).Inc()
		s.completionCh <- completion{kind: completionPart, shard: shard, syncHash: syncHash, partIdx: uint64(partIdx), numParts: numParts, slot: slot, err: err}
		return
	}

	header, err := s.chain.GetStateHeader(shard, syncHash)
	if err != nil {
		s.completionCh <- completion{kind: completionPart, shard: shard, syncHash: syncHash, partIdx: uint64(partIdx), numParts: numParts, slot: slot, err: err}
		return
	}
	if !s.runtime.ValidateStatePart(header.StateRoot, types.PartId{Idx: uint64(partIdx), Total: numParts}, data) {
		s.metrics.ExternalPartsFailed.WithLabelValues(shard.String()).Inc()
		s.completionCh <- completion{kind: completionPart, shard: shard, syncHash: syncHash, partIdx: uint64(partIdx), numParts: numParts, slot: slot, err: errInvalidPart}
		return
	}

	s.metrics.ExternalPartsDone.WithLabelValues(shard.String()).Inc()
	s.metrics.ExternalPartsSizeBytes.WithLabelValues(shard.String()).Add(float64(len(data)))
	s.completionCh <- completion{kind: completionPart, shard: shard, syncHash: syncHash, partIdx: uint64(partIdx), numParts: numParts, data: data, slot: slot}
}

// externalLocation resolves the chain id and current epoch height for
// syncHash and builds the object key external storage serves the
// artifact under.
func (s *Syncer) externalLocation(shard types.ShardId, ref external.FileRef) string {
	epochHeight := uint64(0)
	if header, err := s.chain.GetBlockHeader(ref.SyncHash); err == nil {
		if info, err := s.epochMgr.GetEpochInfo(header.EpochId); err == nil {
			epochHeight = uint64(info.EpochHeight())
		}
	}
	return external.Location(s.externalChainId, epochHeight, ref)
}
