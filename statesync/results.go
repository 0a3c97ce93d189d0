package statesync

import (
	"sync"

	"github.com/meridianchain/statesync/types"
)

// resultBox holds the three one-way result maps that external
// schedulers (the apply-parts worker pool, the memtrie loader, and
// the resharding scheduler) deliver into and the driver loop drains
// out of. A shard's entry is removed the moment it is read, so a
// result can only ever be consumed once.
type resultBox struct {
	mu sync.Mutex

	applyResult     map[types.ShardId]error
	memtrieResult   map[types.ShardUid]error
	reshardResult   map[types.ShardUid]error
}

func newResultBox() *resultBox {
	return &resultBox{
		applyResult:   make(map[types.ShardId]error),
		memtrieResult: make(map[types.ShardUid]error),
		reshardResult: make(map[types.ShardUid]error),
	}
}

// SetApplyResult is called by the apply-parts worker pool when a
// shard's state parts have finished applying (err is nil on success).
func (s *Syncer) SetApplyResult(shard types.ShardId, err error) {
	s.results.mu.Lock()
	defer s.results.mu.Unlock()
	s.results.applyResult[shard] = err
}

func (s *Syncer) takeApplyResult(shard types.ShardId) (error, bool) {
	s.results.mu.Lock()
	defer s.results.mu.Unlock()
	err, ok := s.results.applyResult[shard]
	if ok {
		delete(s.results.applyResult, shard)
	}
	return err, ok
}

// SetLoadMemtrieResult is called by the memtrie loader once it has
// finished loading (or failed to load) a shard's in-memory trie.
func (s *Syncer) SetLoadMemtrieResult(shard types.ShardUid, err error) {
	s.results.mu.Lock()
	defer s.results.mu.Unlock()
	s.results.memtrieResult[shard] = err
}

func (s *Syncer) takeMemtrieResult(shard types.ShardUid) (error, bool) {
	s.results.mu.Lock()
	defer s.results.mu.Unlock()
	err, ok := s.results.memtrieResult[shard]
	if ok {
		delete(s.results.memtrieResult, shard)
	}
	return err, ok
}

// SetReshardResult is called by the resharding scheduler. Resharding
// itself is out of scope here (§ Non-goals): the result is only
// recorded, nothing in this package reads it, and a shard in
// ReshardingScheduling/Applying is still reported as a FatalError.
func (s *Syncer) SetReshardResult(shard types.ShardUid, err error) {
	s.results.mu.Lock()
	defer s.results.mu.Unlock()
	s.results.reshardResult[shard] = err
}
