package statesync

import (
	"errors"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
	"github.com/meridianchain/statesync/wire"
)

// errInvalidPart is reported when a part fetched from external
// storage fails runtime validation against the expected state root.
var errInvalidPart = errors.New("statesync: external part failed validation")

// drainCompletions folds every pending external-fetch result into the
// corresponding shard's download state. It never blocks: once
// completionCh has no more buffered results, it returns.
func (s *Syncer) drainCompletions() {
	for {
		select {
		case c := <-s.completionCh:
			s.applyCompletion(c)
		default:
			return
		}
	}
}

func (s *Syncer) applyCompletion(c completion) {
	if !s.isCurrentSyncHash(c.syncHash) {
		log.Debugf("statesync: dropping stale completion for shard %s at %s", c.shard, c.syncHash)
		return
	}

	switch c.kind {
	case completionHeader:
		if c.err != nil {
			c.slot.Error = true
			return
		}
		header, err := wire.HeaderFromBytes(c.data)
		if err != nil {
			c.slot.Error = true
			return
		}
		if err := s.chain.SetStateHeader(c.shard, c.syncHash, header); err != nil {
			c.slot.Error = true
			return
		}
		c.slot.Done = true

	case completionPart:
		if c.err != nil {
			c.slot.Error = true
			return
		}
		part := types.PartId{Idx: c.partIdx, Total: c.numParts}
		if err := s.chain.SetStatePart(c.shard, c.syncHash, part, c.data); err != nil {
			c.slot.Error = true
			return
		}
		c.slot.Done = true
		s.network.PublishStatePartReceived(c.shard, c.partIdx)
	}
}

// UpdateDownloadOnStateResponse folds an inbound peer response
// (header or part) into the shard's download state; this is the
// direct-ingestion path, distinct from the external-storage
// completion channel, since peer responses arrive as individual
// network messages rather than through a shared async task.
func (s *Syncer) UpdateDownloadOnStateResponse(shard types.ShardId, syncHash types.Hash, d *ShardSyncDownload, resp collab.StateResponse) {
	if !s.isCurrentSyncHash(syncHash) {
		log.Debugf("statesync: dropping stale response for shard %s at %s", shard, syncHash)
		return
	}

	switch d.Status {
	case StatusDownloadHeader:
		slot := d.Downloads[0]
		if resp.Header != nil {
			if !slot.Done {
				if err := s.chain.SetStateHeader(shard, syncHash, resp.Header); err != nil {
					slot.Error = true
				} else {
					slot.Done = true
				}
			}
		} else if !slot.Done {
			slot.Error = true
		}

	case StatusDownloadParts:
		if resp.Part == nil {
			return
		}
		numParts := uint64(len(d.Downloads))
		if resp.Part.PartIdx >= numParts {
			return
		}
		slot := d.Downloads[resp.Part.PartIdx]
		if slot.Done {
			return
		}
		part := types.PartId{Idx: resp.Part.PartIdx, Total: numParts}
		if err := s.chain.SetStatePart(shard, syncHash, part, resp.Part.Data); err != nil {
			slot.Error = true
			return
		}
		slot.Done = true
		s.network.PublishStatePartReceived(shard, resp.Part.PartIdx)
	}
}
