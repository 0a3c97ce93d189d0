package statesync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/internal/fakes"
	"github.com/meridianchain/statesync/types"
)

// TestDispatchHeaderAsksOnePeer mirrors the header-request scenario: a
// freshly armed header slot, dispatched against a single known peer,
// ends up claimed (run_me=false) with a recorded target and an
// incremented request count.
func TestDispatchHeaderAsksOnePeer(t *testing.T) {
	chain := fakes.NewChain()
	network := fakes.NewNetwork()
	network.Response = func(types.ShardId) collab.NetworkResponseKind { return collab.NetworkResponseOK }

	s := New(Config{
		Chain:    chain,
		Runtime:  fakes.NewRuntimeAdapter(),
		EpochMgr: fakes.NewEpochManager(),
		Network:  network,
	})

	shard := types.ShardId(1)
	syncHash := types.Hash{1}
	d := NewShardSyncDownload(time.Now())
	peer := types.PeerId("peer-1")

	s.dispatchShard(context.Background(), shard, syncHash, d, []types.PeerId{peer})

	require.Eventually(t, func() bool {
		return network.HeaderRequestCount() == 1
	}, time.Second, time.Millisecond)

	slot := d.Downloads[0]
	assert.False(t, slot.RunMe())
	assert.EqualValues(t, 1, slot.StateRequestsCount)
	require.NotNil(t, slot.LastTarget)
	assert.Equal(t, peer, *slot.LastTarget)
}

// TestDispatchHeaderWithNoPeersLeavesSlotArmed asserts that with no
// possible targets the slot stays armed for the next tick instead of
// being claimed and stranded.
func TestDispatchHeaderWithNoPeersLeavesSlotArmed(t *testing.T) {
	chain := fakes.NewChain()
	network := fakes.NewNetwork()
	s := New(Config{
		Chain:    chain,
		Runtime:  fakes.NewRuntimeAdapter(),
		EpochMgr: fakes.NewEpochManager(),
		Network:  network,
	})

	d := NewShardSyncDownload(time.Now())
	s.dispatchShard(context.Background(), types.ShardId(1), types.Hash{1}, d, nil)

	assert.True(t, d.Downloads[0].RunMe())
	assert.Equal(t, 0, network.HeaderRequestCount())
}

// TestDispatchPartsRespectsMaxStatePartRequest asserts the peer
// dispatch batch never exceeds MaxStatePartRequest per call, even
// when more parts are armed.
func TestDispatchPartsRespectsMaxStatePartRequest(t *testing.T) {
	chain := fakes.NewChain()
	network := fakes.NewNetwork()
	network.Response = func(types.ShardId) collab.NetworkResponseKind { return collab.NetworkResponseOK }

	s := New(Config{
		Chain:    chain,
		Runtime:  fakes.NewRuntimeAdapter(),
		EpochMgr: fakes.NewEpochManager(),
		Network:  network,
	})

	d := &ShardSyncDownload{Status: StatusDownloadParts}
	for i := 0; i < MaxStatePartRequest+5; i++ {
		d.Downloads = append(d.Downloads, NewDownloadSlot(time.Now()))
	}

	s.dispatchShard(context.Background(), types.ShardId(1), types.Hash{1}, d, []types.PeerId{"p1", "p2"})

	require.Eventually(t, func() bool {
		return network.PartRequestCount() == MaxStatePartRequest
	}, time.Second, time.Millisecond)
}

// TestDispatchPartsFallsBackToExternalAfterThreshold confirms a part
// whose retry count has crossed the threshold routes to external
// storage instead of a peer, once external storage is configured.
func TestDispatchPartsFallsBackToExternalAfterThreshold(t *testing.T) {
	chain := fakes.NewChain()
	shard := types.ShardId(1)
	syncHash := types.Hash{1}

	require.NoError(t, chain.SetStateHeader(shard, syncHash, headerWithRoot(shard, syncHash, 1)))

	conn := &stubConnection{data: []byte("part-bytes")}
	s := New(Config{
		Chain:                 chain,
		Runtime:               fakes.NewRuntimeAdapter(),
		EpochMgr:              fakes.NewEpochManager(),
		Network:               fakes.NewNetwork(),
		External:              conn,
		ExternalChainId:       "test-chain",
		PeerAttemptsThreshold: 2,
	})

	d := &ShardSyncDownload{Status: StatusDownloadParts}
	slot := NewDownloadSlot(time.Now())
	slot.StateRequestsCount = 2
	d.Downloads = append(d.Downloads, slot)

	s.dispatchShard(context.Background(), shard, syncHash, d, nil)

	require.Eventually(t, func() bool {
		s.drainCompletions()
		return slot.Done
	}, time.Second, time.Millisecond)

	data, ok := chain.GetStatePart(shard, syncHash, 0)
	require.True(t, ok)
	assert.Equal(t, "part-bytes", string(data))
}
