package fakes

import (
	"fmt"
	"sync"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
)

// ShardLayout is a simple list-of-shards layout; two layouts are equal
// when they list the same shard ids in the same order.
type ShardLayout struct {
	Shards []types.ShardId
}

func (l ShardLayout) Equal(other collab.ShardLayout) bool {
	o, ok := other.(ShardLayout)
	if !ok || len(l.Shards) != len(o.Shards) {
		return false
	}
	for i, s := range l.Shards {
		if o.Shards[i] != s {
			return false
		}
	}
	return true
}

// EpochInfo carries only the epoch height the sync core reads.
type EpochInfo struct {
	Height types.EpochHeight
}

func (e EpochInfo) EpochHeight() types.EpochHeight { return e.Height }

// EpochManager is an in-memory stand-in for epoch/shard-layout
// resolution.
type EpochManager struct {
	mu sync.Mutex

	Layouts         map[types.EpochId]ShardLayout
	Infos           map[types.EpochId]EpochInfo
	Uids            map[types.ShardId]types.ShardUid
	LayoutChangesAt map[types.Hash]bool
}

// NewEpochManager constructs an empty fake epoch manager.
func NewEpochManager() *EpochManager {
	return &EpochManager{
		Layouts:         make(map[types.EpochId]ShardLayout),
		Infos:           make(map[types.EpochId]EpochInfo),
		Uids:            make(map[types.ShardId]types.ShardUid),
		LayoutChangesAt: make(map[types.Hash]bool),
	}
}

func (m *EpochManager) GetShardLayout(epoch types.EpochId) (collab.ShardLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Layouts[epoch]
	if !ok {
		return nil, fmt.Errorf("fakes: no shard layout for epoch %s", epoch)
	}
	return l, nil
}

func (m *EpochManager) GetEpochInfo(epoch types.EpochId) (collab.EpochInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.Infos[epoch]
	if !ok {
		return nil, fmt.Errorf("fakes: no epoch info for epoch %s", epoch)
	}
	return info, nil
}

func (m *EpochManager) ShardIDToUID(shard types.ShardId, epoch types.EpochId) (types.ShardUid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.Uids[shard]
	if !ok {
		return types.ShardUid{}, fmt.Errorf("fakes: no shard uid for shard %s", shard)
	}
	return uid, nil
}

func (m *EpochManager) WillShardLayoutChange(prevHash types.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LayoutChangesAt[prevHash], nil
}
