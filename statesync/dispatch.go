package statesync

import (
	"context"
	"math/rand"

	"golang.org/x/exp/slices"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
)

// MaxStatePartRequest bounds how many outbound peer part requests a
// shard issues on a single dispatch pass; the rest of the armed parts
// wait for the next tick rather than flooding the peer set.
const MaxStatePartRequest = 16

// dispatchShard issues whatever requests a shard's current stage
// needs: a single header request, or a batch of part requests split
// between peers and external storage.
func (s *Syncer) dispatchShard(ctx context.Context, shard types.ShardId, syncHash types.Hash, d *ShardSyncDownload, peers []types.PeerId) {
	switch d.Status {
	case StatusDownloadHeader:
		s.dispatchHeader(ctx, shard, syncHash, d, peers)
	case StatusDownloadParts:
		s.dispatchParts(ctx, shard, syncHash, d, peers)
	}
}

// dispatchHeader implements request_shard_header: external storage,
// when configured, always serves the header; otherwise one of the
// known peers is chosen at random.
func (s *Syncer) dispatchHeader(ctx context.Context, shard types.ShardId, syncHash types.Hash, d *ShardSyncDownload, peers []types.PeerId) {
	slot := d.Downloads[0]
	if !slot.TryArm() {
		return
	}

	if s.external != nil {
		go s.fetchHeaderExternal(ctx, shard, syncHash, slot)
		return
	}

	if len(peers) == 0 {
		slot.Rearm()
		return
	}
	peer := peers[rand.Intn(len(peers))]
	slot.StateRequestsCount++
	slot.LastTarget = &peer

	go s.fetchHeaderFromPeer(ctx, shard, syncHash, peer, slot)
}

// dispatchParts implements request_shard_parts: armed parts route to
// a peer until the shard's per-part retry count crosses the external
// fallback threshold, at which point they route to external storage
// instead (subject to the fetch-concurrency throttle). At most
// MaxStatePartRequest peer requests are issued per call.
func (s *Syncer) dispatchParts(ctx context.Context, shard types.ShardId, syncHash types.Hash, d *ShardSyncDownload, peers []types.PeerId) {
	peerRequestsSent := 0
	syncPrevPrevHash := s.syncPrevPrevHash(syncHash)

	indices := armedPartIndices(d)
	for _, idx := range indices {
		slot := d.Downloads[idx]

		useExternal := s.external != nil && slot.StateRequestsCount >= s.peerAttemptsThreshold
		if useExternal {
			if !s.throttlerFor(shard).TryAcquire() {
				continue
			}
			if !slot.TryArm() {
				s.throttlerFor(shard).Release()
				continue
			}
			slot.LastTarget = nil
			go s.fetchPartExternal(ctx, shard, syncHash, idx, uint64(len(d.Downloads)), slot)
			continue
		}

		if peerRequestsSent >= MaxStatePartRequest {
			continue
		}
		if len(peers) == 0 {
			continue
		}
		if !slot.TryArm() {
			continue
		}
		peer := peers[rand.Intn(len(peers))]
		slot.StateRequestsCount++
		slot.LastTarget = &peer
		peerRequestsSent++

		go s.fetchPartFromPeer(ctx, shard, syncHash, syncPrevPrevHash, peer, idx, slot)
	}
}

// syncPrevPrevHash resolves the block two hops before syncHash, the
// anchor a part request's proof is verified against. A lookup failure
// here falls back to syncHash itself rather than blocking dispatch;
// the peer simply fails to produce a valid part and the slot retries.
func (s *Syncer) syncPrevPrevHash(syncHash types.Hash) types.Hash {
	header, err := s.chain.GetBlockHeader(syncHash)
	if err != nil {
		return syncHash
	}
	prevHeader, err := s.chain.GetBlockHeader(header.PrevHash)
	if err != nil {
		return syncHash
	}
	return prevHeader.PrevHash
}

// armedPartIndices returns the indices of parts ready to be
// (re-)requested, in ascending order to match part_id ordering.
func armedPartIndices(d *ShardSyncDownload) []int {
	var out []int
	for i, slot := range d.Downloads {
		if !slot.Done && slot.RunMe() {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}

func (s *Syncer) throttlerFor(shard types.ShardId) *Throttler {
	if s.catchingUp(shard) {
		return s.catchupThrottler
	}
	return s.freshThrottler
}

func (s *Syncer) catchingUp(shard types.ShardId) bool {
	return s.catchupShards[shard]
}

// collectPeerTargets narrows the highest-height peer set down to
// peers tracking the given shard.
func collectPeerTargets(shard types.ShardId, peers []collab.HighestHeightPeer) []types.PeerId {
	var out []types.PeerId
	for _, p := range peers {
		if slices.Contains(p.TrackedShards, shard) {
			out = append(out, p.PeerId)
		}
	}
	return out
}
