package statesync

import (
	"fmt"
	"time"

	"github.com/meridianchain/statesync/types"
)

// advanceOutcome reports what a single transition step learned: does
// the shard need a fresh dispatch pass this tick, and did it just
// finish entirely.
type advanceOutcome struct {
	downloadTimeout bool
	runShardDownload bool
	done             bool
}

// advanceShard runs the transition function for whatever status the
// shard is currently in, mutating d in place and returning the
// outcome the driver folds into its per-tick summary.
func (s *Syncer) advanceShard(shard types.ShardId, syncHash types.Hash, d *ShardSyncDownload, now time.Time) (advanceOutcome, error) {
	switch d.Status {
	case StatusDownloadHeader:
		timeout, runMe, err := s.advanceDownloadHeader(shard, d, syncHash, now)
		return advanceOutcome{downloadTimeout: timeout, runShardDownload: runMe}, err

	case StatusDownloadParts:
		timeout, runMe := s.advanceDownloadParts(shard, d, now)
		return advanceOutcome{downloadTimeout: timeout, runShardDownload: runMe}, nil

	case StatusApplyScheduling:
		err := s.advanceApplyScheduling(shard, d, syncHash, now)
		return advanceOutcome{}, err

	case StatusApplyInProgress:
		err := s.advanceApplyInProgress(shard, d, syncHash)
		return advanceOutcome{}, err

	case StatusApplyFinalizing:
		done, err := s.advanceApplyFinalizing(shard, d, syncHash, now)
		return advanceOutcome{done: done}, err

	case StatusReshardingScheduling, StatusReshardingApplying:
		return advanceOutcome{}, &FatalError{Shard: shard.String(), Reason: "resharding is not supported by this sync core"}

	case StatusStateSyncDone:
		return advanceOutcome{done: true}, nil

	default:
		return advanceOutcome{}, fmt.Errorf("statesync: shard %s in unknown status %d", shard, d.Status)
	}
}

// advanceDownloadHeader implements sync_shards_download_header_status:
// once the single header slot is marked done, the shard advances to
// DownloadParts; otherwise timed-out or errored slots are rearmed.
func (s *Syncer) advanceDownloadHeader(shard types.ShardId, d *ShardSyncDownload, syncHash types.Hash, now time.Time) (timedOut, runMe bool, err error) {
	slot := d.Downloads[0]

	if slot.Done {
		header, err := s.chain.GetStateHeader(shard, syncHash)
		if err != nil {
			return false, false, err
		}
		d.Status = StatusDownloadParts
		d.Downloads = make([]*DownloadSlot, header.NumStateParts)
		for i := range d.Downloads {
			d.Downloads[i] = NewDownloadSlot(now)
		}
		return false, true, nil
	}

	timedOut = now.Sub(slot.PrevUpdateTime) > s.timeout
	if timedOut {
		s.metrics.HeaderTimeout.WithLabelValues(shard.String()).Inc()
	}
	if slot.Error {
		s.metrics.HeaderError.WithLabelValues(shard.String()).Inc()
	}
	if timedOut || slot.Error {
		slot.Rearm()
		slot.Error = false
		slot.PrevUpdateTime = now
	}
	return timedOut, slot.RunMe(), nil
}

// advanceDownloadParts implements sync_shards_download_parts_status:
// each undone part slot is retried on timeout or error, and once every
// slot is done the shard advances to ApplyScheduling.
func (s *Syncer) advanceDownloadParts(shard types.ShardId, d *ShardSyncDownload, now time.Time) (timedOut, runMe bool) {
	allDone := true
	var numDone int64

	for _, slot := range d.Downloads {
		if !slot.Done {
			allDone = false
			partTimeout := now.Sub(slot.PrevUpdateTime) > s.timeout
			if partTimeout || slot.Error {
				timedOut = timedOut || partTimeout
				if partTimeout || slot.LastTarget != nil {
					s.metrics.RetryPart.WithLabelValues(shard.String()).Inc()
					slot.Rearm()
					slot.Error = false
					slot.PrevUpdateTime = now
				}
			}
			if slot.RunMe() {
				runMe = true
			}
		} else {
			numDone++
		}
	}

	s.metrics.PartsDone.WithLabelValues(shard.String()).Set(float64(numDone))
	s.metrics.PartsTotal.WithLabelValues(shard.String()).Set(float64(len(d.Downloads)))

	if allDone {
		d.Status = StatusApplyScheduling
		d.Downloads = nil
	}
	return timedOut, runMe
}

// advanceApplyScheduling implements sync_shards_apply_scheduling_status:
// schedule the apply-parts task, or reset the shard to DownloadHeader
// if scheduling itself fails (the downloaded state cannot be trusted
// to still be valid once retried from scratch).
func (s *Syncer) advanceApplyScheduling(shard types.ShardId, d *ShardSyncDownload, syncHash types.Hash, now time.Time) error {
	header, err := s.chain.GetStateHeader(shard, syncHash)
	if err != nil {
		return err
	}

	scheduleErr := s.chain.ScheduleApplyStateParts(shard, syncHash, header.NumStateParts, s.applySender)
	if scheduleErr == nil {
		d.Status = StatusApplyInProgress
		d.Downloads = nil
		return nil
	}

	s.metrics.DiscardParts.WithLabelValues(shard.String()).Inc()
	d.Reset(now)
	return s.chain.ClearDownloadedParts(shard, syncHash, header.NumStateParts)
}

// advanceApplyInProgress implements sync_shards_apply_status: wait for
// the apply-parts worker pool to report a result, then create flat
// storage (if the shard isn't at genesis) and schedule the memtrie
// load.
func (s *Syncer) advanceApplyInProgress(shard types.ShardId, d *ShardSyncDownload, syncHash types.Hash) error {
	applyErr, ok := s.takeApplyResult(shard)
	if !ok {
		return nil
	}
	if applyErr != nil {
		return applyErr
	}

	blockHeader, err := s.chain.GetBlockHeader(syncHash)
	if err != nil {
		return err
	}
	shardUid, err := s.epochMgr.ShardIDToUID(shard, blockHeader.EpochId)
	if err != nil {
		return err
	}
	header, err := s.chain.GetStateHeader(shard, syncHash)
	if err != nil {
		return err
	}

	if !header.Chunk.PrevBlockHash.IsDefault() {
		if err := s.chain.CreateFlatStorageForShard(shardUid, header.Chunk); err != nil {
			return err
		}
	}
	s.chain.ScheduleLoadMemtrie(shardUid, syncHash, header.Chunk, s.memtrieSender)

	d.Status = StatusApplyFinalizing
	d.Downloads = nil
	return nil
}

// advanceApplyFinalizing implements sync_shards_apply_finalizing_status:
// wait for the memtrie load result, finalize the shard's state, and
// either move to resharding (unsupported, and therefore fatal here) or
// StateSyncDone. On any error the shard resets to DownloadHeader and
// its downloaded parts are cleared so a retry starts clean.
func (s *Syncer) advanceApplyFinalizing(shard types.ShardId, d *ShardSyncDownload, syncHash types.Hash, now time.Time) (done bool, err error) {
	blockHeader, err := s.chain.GetBlockHeader(syncHash)
	if err != nil {
		return false, err
	}
	shardUid, err := s.epochMgr.ShardIDToUID(shard, blockHeader.EpochId)
	if err != nil {
		return false, err
	}

	memtrieErr, ok := s.takeMemtrieResult(shardUid)
	if !ok {
		return false, nil
	}

	result := s.finalizeShard(shard, shardUid, syncHash, blockHeader.PrevHash, memtrieErr, d)
	if result != nil {
		s.metrics.DiscardParts.WithLabelValues(shard.String()).Inc()
		d.Reset(now)
		if header, hErr := s.chain.GetStateHeader(shard, syncHash); hErr == nil {
			_ = s.chain.ClearDownloadedParts(shard, syncHash, header.NumStateParts)
		}
		return false, result
	}
	return d.Status == StatusStateSyncDone, nil
}

func (s *Syncer) finalizeShard(shard types.ShardId, shardUid types.ShardUid, syncHash, prevHash types.Hash, memtrieErr error, d *ShardSyncDownload) error {
	if memtrieErr != nil {
		return memtrieErr
	}
	if err := s.chain.SetStateFinalize(shard, syncHash); err != nil {
		return err
	}

	needReshard, err := s.epochMgr.WillShardLayoutChange(prevHash)
	if err != nil {
		return err
	}
	if needReshard {
		d.Status = StatusReshardingScheduling
		d.Downloads = nil
		return nil
	}
	d.Status = StatusStateSyncDone
	d.Downloads = nil
	return nil
}
