// Package external implements the read side of external storage (S3,
// GCS, or a local filesystem tree). When it is configured, headers are
// always requested from it, and a part is requested from it once that
// part's peer-request count reaches the fallback threshold.
package external

import (
	"fmt"

	"github.com/meridianchain/statesync/types"
)

// FileKind distinguishes the two artifact shapes external storage
// serves.
type FileKind int

const (
	// FileKindHeader addresses a shard's state header blob.
	FileKindHeader FileKind = iota
	// FileKindPart addresses one part of a shard's state dump.
	FileKindPart
)

// FileRef names one object in external storage.
type FileRef struct {
	Kind     FileKind
	ShardId  types.ShardId
	SyncHash types.Hash
	PartIdx  uint64
	NumParts uint64
}

// Location builds the object key external storage addresses a file
// by, matching the layout nodes running this module write to when
// they dump state: a chain-qualified prefix, then shard, then file.
//
//	<chain_id>/<epoch_height>/shard_<id>/state_header
//	<chain_id>/<epoch_height>/shard_<id>/state_part_<idx>_of_<total>
func Location(chainId string, epochHeight uint64, ref FileRef) string {
	prefix := fmt.Sprintf("%s/%d/shard_%d", chainId, epochHeight, ref.ShardId)
	switch ref.Kind {
	case FileKindHeader:
		return prefix + "/state_header"
	case FileKindPart:
		return fmt.Sprintf("%s/state_part_%06d_of_%06d", prefix, ref.PartIdx, ref.NumParts)
	default:
		return prefix + "/unknown"
	}
}
