package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridianchain/statesync/types"
)

func TestStatePartKeyRoundTrip(t *testing.T) {
	key := &StatePartKey{
		SyncHash: types.Hash{1, 2, 3},
		ShardId:  types.ShardId(7),
		PartIdx:  42,
	}

	data, err := key.Bytes()
	require.NoError(t, err)

	var decoded StatePartKey
	require.NoError(t, decoded.UnmarshalCBOR(bytes.NewReader(data)))
	require.Equal(t, *key, decoded)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := &ShardStateSyncResponseHeader{
		ShardId:       types.ShardId(3),
		SyncHash:      types.Hash{9, 9, 9},
		NumStateParts: 12,
		StateRoot:     types.Hash{4, 4, 4},
		Chunk: ChunkRef{
			PrevBlockHash: types.Hash{5, 5, 5},
			Height:        100,
		},
	}

	data, err := h.Bytes()
	require.NoError(t, err)

	decoded, err := HeaderFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, h, decoded)
}

func TestHeaderFromBytesInvalid(t *testing.T) {
	_, err := HeaderFromBytes([]byte{0xff, 0xff})
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not parse state sync header")
}
