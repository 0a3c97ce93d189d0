package external

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianchain/statesync/types"
)

func TestLocationHeader(t *testing.T) {
	loc := Location("testnet", 12, FileRef{Kind: FileKindHeader, ShardId: types.ShardId(3)})
	assert.Equal(t, "testnet/12/shard_3/state_header", loc)
}

func TestLocationPart(t *testing.T) {
	loc := Location("testnet", 12, FileRef{Kind: FileKindPart, ShardId: types.ShardId(3), PartIdx: 5, NumParts: 100})
	assert.Equal(t, "testnet/12/shard_3/state_part_000005_of_000100", loc)
}
