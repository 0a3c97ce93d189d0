// Package statestore persists per-shard sync status across restarts,
// the same way a crash-resilient shard registry would: a namespaced
// datastore, a key per shard, a JSON blob per value, restored in full
// at construction time and overwritten after every status change.
//
// Persistence is optional. Callers that pass a nil datastore get an
// in-memory map that does not survive a restart, matching how a
// single-node test network runs without any durable state behind it.
package statestore

import (
	"encoding/json"
	"fmt"
	"sync"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/ipfs/go-datastore/query"
	dssync "github.com/ipfs/go-datastore/sync"

	"github.com/meridianchain/statesync/types"
)

// Namespace is the prefix every shard status key is stored under.
const Namespace = "/statesync/v1/shard"

// Status is the persisted snapshot of one shard's sync progress: just
// enough to resume without replaying the whole download-header step
// after a restart mid-ApplyInProgress.
type Status struct {
	ShardId  types.ShardId `json:"shard_id"`
	SyncHash types.Hash    `json:"sync_hash"`
	State    string        `json:"state"`
}

// Store persists Status records keyed by shard id.
type Store struct {
	mu sync.Mutex
	ds ds.Datastore
}

// Open wraps backing, or an in-memory datastore if backing is nil,
// and restores any previously persisted statuses.
func Open(backing ds.Datastore) (*Store, map[types.ShardId]Status, error) {
	if backing == nil {
		backing = dssync.MutexWrap(ds.NewMapDatastore())
	}
	s := &Store{ds: namespace.Wrap(backing, ds.NewKey(Namespace))}

	restored, err := s.restore()
	if err != nil {
		return nil, nil, err
	}
	return s, restored, nil
}

func shardKey(shard types.ShardId) ds.Key {
	return ds.NewKey(fmt.Sprintf("/%d", uint64(shard)))
}

func (s *Store) restore() (map[types.ShardId]Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.ds.Query(query.Query{})
	if err != nil {
		return nil, fmt.Errorf("statestore: restore query: %w", err)
	}
	defer results.Close()

	out := make(map[types.ShardId]Status)
	for {
		res, ok := results.NextSync()
		if !ok {
			break
		}
		var st Status
		if err := json.Unmarshal(res.Value, &st); err != nil {
			return nil, fmt.Errorf("statestore: restore %s: %w", res.Key, err)
		}
		out[st.ShardId] = st
	}
	return out, nil
}

// Put persists the status of one shard, overwriting any prior value.
func (s *Store) Put(st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("statestore: marshal shard %s: %w", st.ShardId, err)
	}
	if err := s.ds.Put(shardKey(st.ShardId), data); err != nil {
		return fmt.Errorf("statestore: put shard %s: %w", st.ShardId, err)
	}
	return nil
}

// Delete removes a shard's persisted status, once it leaves sync
// entirely (state applied and the shard is caught up by other means).
func (s *Store) Delete(shard types.ShardId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ds.Delete(shardKey(shard)); err != nil {
		return fmt.Errorf("statestore: delete shard %s: %w", shard, err)
	}
	return nil
}
