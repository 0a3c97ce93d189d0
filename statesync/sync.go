// Package statesync drives a sharded chain's state sync: downloading
// a consistent state snapshot for every shard a node needs to track
// as of a given sync hash, from peers and/or external storage, and
// handing the result off to the runtime to apply.
package statesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/external"
	"github.com/meridianchain/statesync/types"
)

var log = logging.Logger("statesync")

// DefaultTimeout is how long a download slot waits for a response
// before it is considered timed out and retried.
const DefaultTimeout = 60 * time.Second

// DefaultPeerAttemptsThreshold is how many peer requests a part is
// given before falling back to external storage, when external
// storage is configured at all.
const DefaultPeerAttemptsThreshold = 5

// Result reports whether a Run call finished every tracked shard or
// left at least one still in progress.
type Result int

const (
	ResultInProgress Result = iota
	ResultCompleted
)

// Config configures a Syncer. Chain, Runtime, EpochMgr, and Network
// are required; everything else has a workable zero value.
type Config struct {
	Chain    collab.Chain
	Runtime  collab.RuntimeAdapter
	EpochMgr collab.EpochManager
	Network  collab.NetworkAdapter

	ApplySender   collab.ApplySender
	MemtrieSender collab.MemtrieSender

	// External, when non-nil, is consulted for headers unconditionally
	// and for parts once PeerAttemptsThreshold peer attempts have been
	// made.
	External        external.Connection
	ExternalChainId string

	Timeout                time.Duration
	PeerAttemptsThreshold  uint64
	FreshFetchConcurrency  int64
	CatchupFetchConcurrency int64

	Registerer prometheus.Registerer
}

// Syncer is the process-wide state sync driver: one instance tracks
// every shard a node is currently downloading state for, at a single
// sync hash per call to Run.
type Syncer struct {
	chain    collab.Chain
	runtime  collab.RuntimeAdapter
	epochMgr collab.EpochManager
	network  collab.NetworkAdapter

	applySender   collab.ApplySender
	memtrieSender collab.MemtrieSender

	external        external.Connection
	externalChainId string

	timeout               time.Duration
	peerAttemptsThreshold uint64

	freshThrottler   *Throttler
	catchupThrottler *Throttler

	metrics *Metrics
	results *resultBox

	completionCh chan completion

	mu              sync.Mutex
	shards          map[types.ShardId]*ShardSyncDownload
	catchupShards   map[types.ShardId]bool
	currentSyncHash types.Hash
}

// New constructs a Syncer from cfg, filling in defaults for anything
// left zero.
func New(cfg Config) *Syncer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	threshold := cfg.PeerAttemptsThreshold
	if threshold == 0 {
		threshold = DefaultPeerAttemptsThreshold
	}
	fresh := cfg.FreshFetchConcurrency
	if fresh == 0 {
		fresh = 4
	}
	catchup := cfg.CatchupFetchConcurrency
	if catchup == 0 {
		catchup = 1
	}

	return &Syncer{
		chain:                 cfg.Chain,
		runtime:               cfg.Runtime,
		epochMgr:              cfg.EpochMgr,
		network:               cfg.Network,
		applySender:           cfg.ApplySender,
		memtrieSender:         cfg.MemtrieSender,
		external:              cfg.External,
		externalChainId:       cfg.ExternalChainId,
		timeout:               timeout,
		peerAttemptsThreshold: threshold,
		freshThrottler:        NewThrottler(fresh),
		catchupThrottler:      NewThrottler(catchup),
		metrics:               NewMetrics(cfg.Registerer),
		results:               newResultBox(),
		completionCh:          make(chan completion, 256),
		shards:                make(map[types.ShardId]*ShardSyncDownload),
		catchupShards:         make(map[types.ShardId]bool),
	}
}

// TrackShard begins syncing shard from DownloadHeader; the sync hash
// is supplied on each Run call. Calling it again for a shard already
// being tracked is a no-op; to restart a shard from scratch, stop
// tracking it first.
func (s *Syncer) TrackShard(shard types.ShardId, catchup bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shards[shard]; ok {
		return
	}
	s.shards[shard] = NewShardSyncDownload(now)
	s.catchupShards[shard] = catchup
}

// Resume installs a previously persisted shard status, bypassing the
// DownloadHeader start state. Used when a node restarts mid-sync and
// statestore.Store.Open returned restored statuses.
func (s *Syncer) Resume(shard types.ShardId, d *ShardSyncDownload, catchup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shards[shard] = d
	s.catchupShards[shard] = catchup
}

// StopTracking removes a shard from this Syncer's bookkeeping, once
// it reaches StateSyncDone and the caller has recorded that
// externally.
func (s *Syncer) StopTracking(shard types.ShardId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shards, shard)
	delete(s.catchupShards, shard)
}

// Status reports a shard's current download stage, if tracked.
func (s *Syncer) Status(shard types.ShardId) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.shards[shard]
	if !ok {
		return 0, false
	}
	return d.Status, true
}

// AllStatus reports every tracked shard's current stage.
func (s *Syncer) AllStatus() map[types.ShardId]Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[types.ShardId]Status, len(s.shards))
	for shard, d := range s.shards {
		out[shard] = d.Status
	}
	return out
}

// Run advances every tracked shard by one tick: it first checks that
// the shard layout hasn't shifted under sync_hash's epoch boundary,
// stamps sync_hash as the current anchor so stale completions and
// peer responses from a prior epoch are dropped rather than applied,
// drains any external-fetch completions, advances each shard's state
// machine, and dispatches whatever new requests are now armed. It
// never blocks on network I/O; fetches run on their own goroutines
// and report back on the next call.
func (s *Syncer) Run(ctx context.Context, syncHash types.Hash, peers []collab.HighestHeightPeer) (Result, error) {
	if err := s.checkLayoutStability(syncHash); err != nil {
		var fatal *FatalError
		if asFatal(err, &fatal) {
			return ResultInProgress, fatal
		}
		return ResultInProgress, err
	}

	s.mu.Lock()
	s.currentSyncHash = syncHash
	shards := make(map[types.ShardId]*ShardSyncDownload, len(s.shards))
	for shard, d := range s.shards {
		shards[shard] = d
	}
	s.mu.Unlock()

	s.drainCompletions()

	if len(shards) == 0 {
		return ResultCompleted, nil
	}

	now := time.Now()
	var errs *multierror.Error
	allDone := true

	for shard, d := range shards {
		outcome, err := s.advanceShard(shard, syncHash, d, now)
		if err != nil {
			var fatal *FatalError
			if asFatal(err, &fatal) {
				return ResultInProgress, fatal
			}
			log.Errorf("statesync: shard %s advance error: %s", shard, err)
			errs = multierror.Append(errs, fmt.Errorf("shard %s: %w", shard, err))
			d.Reset(now)
			allDone = false
			continue
		}

		s.metrics.Stage.WithLabelValues(shard.String()).Set(float64(stageForMetric(d.Status, outcome.done)))

		if !outcome.done {
			allDone = false
		}

		targets := collectPeerTargets(shard, peers)
		s.dispatchShard(ctx, shard, syncHash, d, targets)
	}

	if allDone {
		return ResultCompleted, errs.ErrorOrNil()
	}
	return ResultInProgress, errs.ErrorOrNil()
}

// checkLayoutStability implements the pre-check the driver runs
// before touching any shard state: sync_hash's epoch and its
// predecessor's epoch must assign shards identically. This core does
// not support resharding, so any divergence here is the same fatal
// condition as discovering it later in finalizeShard, just caught
// before a single byte is downloaded.
func (s *Syncer) checkLayoutStability(syncHash types.Hash) error {
	header, err := s.chain.GetBlockHeader(syncHash)
	if err != nil {
		return err
	}
	if header.PrevHash.IsDefault() {
		return nil
	}
	prevHeader, err := s.chain.GetBlockHeader(header.PrevHash)
	if err != nil {
		return err
	}
	if prevHeader.EpochId == header.EpochId {
		return nil
	}

	layout, err := s.epochMgr.GetShardLayout(header.EpochId)
	if err != nil {
		return err
	}
	prevLayout, err := s.epochMgr.GetShardLayout(prevHeader.EpochId)
	if err != nil {
		return err
	}
	if !layout.Equal(prevLayout) {
		return &FatalError{Shard: "*", Reason: "shard layout changed across sync_hash epoch boundary"}
	}
	return nil
}

// isCurrentSyncHash reports whether h is the sync_hash most recently
// stamped by Run, or whether no sync has run yet (the zero hash,
// meaning nothing has been filtered out yet — only direct unit tests
// exercising completions without going through Run hit this case).
func (s *Syncer) isCurrentSyncHash(h types.Hash) bool {
	s.mu.Lock()
	cur := s.currentSyncHash
	s.mu.Unlock()
	return cur.IsDefault() || cur == h
}

func stageForMetric(status Status, done bool) Status {
	if done {
		return StatusStateSyncDone
	}
	return status
}

func asFatal(err error, target **FatalError) bool {
	fe, ok := err.(*FatalError)
	if ok {
		*target = fe
	}
	return ok
}
