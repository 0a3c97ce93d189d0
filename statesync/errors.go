package statesync

import (
	"golang.org/x/xerrors"
)

// FatalError marks a failure the driver cannot recover from by
// resetting the shard to DownloadHeader: an unsupported resharding
// transition, most notably. Run returns it unwrapped so the caller
// can decide whether to abort the node.
type FatalError struct {
	Shard  string
	Reason string
}

func (e *FatalError) Error() string {
	return xerrors.Errorf("statesync: fatal error on shard %s: %s", e.Shard, e.Reason).Error()
}

// ErrEpochChanged names the condition of the epoch moving out from
// under an in-flight sync. No function in this package returns it:
// stale work is dropped by the sync_hash check in intake instead.
var ErrEpochChanged = xerrors.New("statesync: epoch changed during sync")

// ErrRouteNotFound names a peer request that could not be routed to
// the target peer at all. No function in this package returns it: the
// peer fetchers rearm the slot on a route-not-found response instead.
var ErrRouteNotFound = xerrors.New("statesync: route not found")
