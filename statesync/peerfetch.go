package statesync

import (
	"context"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
)

// fetchHeaderFromPeer sends the outbound header request and, if the
// network layer could not route it at all, rearms the slot so the
// dispatcher retries on the next tick. A routed request's actual
// payload (or lack thereof) arrives later via
// Syncer.UpdateDownloadOnStateResponse, not through this call.
func (s *Syncer) fetchHeaderFromPeer(ctx context.Context, shard types.ShardId, syncHash types.Hash, peer types.PeerId, slot *DownloadSlot) {
	respCh := s.network.SendStateRequestHeader(ctx, shard, syncHash, peer)
	resp, ok := <-respCh
	if ok && resp == collab.NetworkResponseRouteNotFound {
		slot.Rearm()
	}
}

// fetchPartFromPeer is the part analogue of fetchHeaderFromPeer.
// syncPrevPrevHash is the block two hops before syncHash, computed
// once per dispatch pass by the caller.
func (s *Syncer) fetchPartFromPeer(ctx context.Context, shard types.ShardId, syncHash, syncPrevPrevHash types.Hash, peer types.PeerId, partIdx int, slot *DownloadSlot) {
	respCh := s.network.SendStateRequestPart(ctx, shard, syncHash, syncPrevPrevHash, uint64(partIdx), peer)
	resp, ok := <-respCh
	if ok && resp == collab.NetworkResponseRouteNotFound {
		slot.Rearm()
	}
}
