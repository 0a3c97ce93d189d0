package statesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/internal/fakes"
	"github.com/meridianchain/statesync/types"
	"github.com/meridianchain/statesync/wire"
)

func newTestSyncer(chain *fakes.Chain, epochMgr *fakes.EpochManager) *Syncer {
	return New(Config{
		Chain:         chain,
		Runtime:       fakes.NewRuntimeAdapter(),
		EpochMgr:      epochMgr,
		Network:       fakes.NewNetwork(),
		ApplySender:   fakes.NewApplyScheduler(),
		MemtrieSender: fakes.NewMemtrieScheduler(),
	})
}

func TestAdvanceDownloadHeaderTransitionsToParts(t *testing.T) {
	chain := fakes.NewChain()
	shard := types.ShardId(1)
	syncHash := types.Hash{1}

	require.NoError(t, chain.SetStateHeader(shard, syncHash, &wire.ShardStateSyncResponseHeader{
		ShardId:       shard,
		SyncHash:      syncHash,
		NumStateParts: 4,
	}))

	s := newTestSyncer(chain, fakes.NewEpochManager())
	d := NewShardSyncDownload(time.Now())
	d.Downloads[0].Done = true

	outcome, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.True(t, outcome.runShardDownload)
	assert.Equal(t, StatusDownloadParts, d.Status)
	assert.Len(t, d.Downloads, 4)
	for _, slot := range d.Downloads {
		assert.True(t, slot.RunMe())
	}
}

func TestAdvanceDownloadHeaderTimesOutAndRearms(t *testing.T) {
	chain := fakes.NewChain()
	shard := types.ShardId(1)
	syncHash := types.Hash{1}
	s := newTestSyncer(chain, fakes.NewEpochManager())

	past := time.Now().Add(-2 * s.timeout)
	d := &ShardSyncDownload{Status: StatusDownloadHeader, Downloads: []*DownloadSlot{{
		StartTime:      past,
		PrevUpdateTime: past,
	}}}

	outcome, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.True(t, outcome.downloadTimeout)
	assert.True(t, d.Downloads[0].RunMe())
}

func TestAdvanceDownloadPartsTransitionsOnceAllDone(t *testing.T) {
	chain := fakes.NewChain()
	shard := types.ShardId(2)
	syncHash := types.Hash{2}
	s := newTestSyncer(chain, fakes.NewEpochManager())

	d := &ShardSyncDownload{Status: StatusDownloadParts}
	for i := 0; i < 3; i++ {
		slot := NewDownloadSlot(time.Now())
		slot.Done = true
		d.Downloads = append(d.Downloads, slot)
	}

	outcome, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.False(t, outcome.runShardDownload)
	assert.Equal(t, StatusApplyScheduling, d.Status)
	assert.Empty(t, d.Downloads)
}

func TestAdvanceApplySchedulingResetsOnFailure(t *testing.T) {
	chain := fakes.NewChain()
	chain.ApplyScheduleErr = assertErr
	shard := types.ShardId(3)
	syncHash := types.Hash{3}

	require.NoError(t, chain.SetStateHeader(shard, syncHash, &wire.ShardStateSyncResponseHeader{
		ShardId: shard, SyncHash: syncHash, NumStateParts: 2,
	}))

	s := newTestSyncer(chain, fakes.NewEpochManager())
	d := &ShardSyncDownload{Status: StatusApplyScheduling}

	outcome, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.False(t, outcome.done)
	assert.Equal(t, StatusDownloadHeader, d.Status)
}

func TestAdvanceApplySchedulingSucceeds(t *testing.T) {
	chain := fakes.NewChain()
	shard := types.ShardId(4)
	syncHash := types.Hash{4}

	require.NoError(t, chain.SetStateHeader(shard, syncHash, &wire.ShardStateSyncResponseHeader{
		ShardId: shard, SyncHash: syncHash, NumStateParts: 2,
	}))

	s := newTestSyncer(chain, fakes.NewEpochManager())
	d := &ShardSyncDownload{Status: StatusApplyScheduling}

	_, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusApplyInProgress, d.Status)
}

func TestFullLifecycleReachesStateSyncDone(t *testing.T) {
	chain := fakes.NewChain()
	epochMgr := fakes.NewEpochManager()

	shard := types.ShardId(5)
	syncHash := types.Hash{5}
	epoch := types.EpochId{5}
	uid := types.ShardUid{ShardId: 5, Version: 0}

	chain.PutHeader(&collab.BlockHeader{Hash: syncHash, PrevHash: types.Hash{}, EpochId: epoch})
	epochMgr.Uids[shard] = uid
	epochMgr.LayoutChangesAt[types.Hash{}] = false

	require.NoError(t, chain.SetStateHeader(shard, syncHash, &wire.ShardStateSyncResponseHeader{
		ShardId: shard, SyncHash: syncHash, NumStateParts: 1,
		Chunk: wire.ChunkRef{PrevBlockHash: types.Hash{}}, // genesis: no flat storage creation
	}))

	s := newTestSyncer(chain, epochMgr)
	d := &ShardSyncDownload{Status: StatusApplyInProgress}

	s.SetApplyResult(shard, nil)
	_, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusApplyFinalizing, d.Status)

	s.SetLoadMemtrieResult(uid, nil)
	outcome, err := s.advanceShard(shard, syncHash, d, time.Now())
	require.NoError(t, err)
	assert.True(t, outcome.done)
	assert.Equal(t, StatusStateSyncDone, d.Status)
}

func TestReshardingStatusIsFatal(t *testing.T) {
	chain := fakes.NewChain()
	s := newTestSyncer(chain, fakes.NewEpochManager())
	d := &ShardSyncDownload{Status: StatusReshardingScheduling}

	_, err := s.advanceShard(types.ShardId(1), types.Hash{}, d, time.Now())
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
}

// assertErr is a sentinel used only to force ScheduleApplyStateParts
// to fail in tests.
var assertErr = fakesErr("scheduling rejected")

type fakesErr string

func (e fakesErr) Error() string { return string(e) }
