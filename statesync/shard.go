package statesync

import (
	"sync/atomic"
	"time"

	"github.com/meridianchain/statesync/types"
)

// Status is the stage a shard's sync has reached.
type Status int

const (
	StatusDownloadHeader Status = iota
	StatusDownloadParts
	StatusApplyScheduling
	StatusApplyInProgress
	StatusApplyFinalizing
	StatusReshardingScheduling
	StatusReshardingApplying
	StatusStateSyncDone
)

func (s Status) String() string {
	switch s {
	case StatusDownloadHeader:
		return "DownloadHeader"
	case StatusDownloadParts:
		return "DownloadParts"
	case StatusApplyScheduling:
		return "ApplyScheduling"
	case StatusApplyInProgress:
		return "ApplyInProgress"
	case StatusApplyFinalizing:
		return "ApplyFinalizing"
	case StatusReshardingScheduling:
		return "ReshardingScheduling"
	case StatusReshardingApplying:
		return "ReshardingApplying"
	case StatusStateSyncDone:
		return "StateSyncDone"
	default:
		return "Unknown"
	}
}

// DownloadSlot tracks the progress of one in-flight fetch: a header
// or a single part. run_me is the arming flag the dispatcher and the
// fetch goroutines hand off across: the dispatcher only issues a new
// request when it can swap run_me from true to false, and a fetch
// goroutine rearms it (sets it back to true) when the request should
// be retried.
type DownloadSlot struct {
	runMe atomic.Bool

	Done  bool
	Error bool

	StateRequestsCount uint64
	LastTarget         *types.PeerId

	StartTime      time.Time
	PrevUpdateTime time.Time
}

// NewDownloadSlot builds a slot armed to fire on the next dispatch
// pass.
func NewDownloadSlot(now time.Time) *DownloadSlot {
	d := &DownloadSlot{StartTime: now, PrevUpdateTime: now}
	d.runMe.Store(true)
	return d
}

// TryArm attempts to claim this slot for a new outbound request,
// returning true only if it swapped run_me from true to false. This
// is the sole gate that prevents two goroutines from issuing
// concurrent requests for the same header or part.
func (d *DownloadSlot) TryArm() bool {
	return d.runMe.CompareAndSwap(true, false)
}

// Rearm marks the slot for retry on the next dispatch pass.
func (d *DownloadSlot) Rearm() {
	d.runMe.Store(true)
}

// RunMe reports whether the slot is currently armed, without claiming
// it.
func (d *DownloadSlot) RunMe() bool {
	return d.runMe.Load()
}

// ShardSyncDownload is the full per-shard download state: the current
// stage plus one DownloadSlot per outstanding fetch (a single slot
// while downloading the header, one per part while downloading
// parts).
type ShardSyncDownload struct {
	Status    Status
	Downloads []*DownloadSlot
}

// NewShardSyncDownload starts a shard at DownloadHeader with a single
// freshly armed slot.
func NewShardSyncDownload(now time.Time) *ShardSyncDownload {
	return &ShardSyncDownload{
		Status:    StatusDownloadHeader,
		Downloads: []*DownloadSlot{NewDownloadSlot(now)},
	}
}

// Reset drops all in-flight downloads and returns the shard to
// DownloadHeader, the recovery path taken whenever an apply,
// finalize, or epoch transition fails in a way that cannot be
// retried in place.
func (d *ShardSyncDownload) Reset(now time.Time) {
	d.Status = StatusDownloadHeader
	d.Downloads = []*DownloadSlot{NewDownloadSlot(now)}
}
