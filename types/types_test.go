package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFromBytesRoundTrip(t *testing.T) {
	var raw [HashSize]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	h, err := HashFromBytes(raw[:])
	require.NoError(t, err)
	assert.False(t, h.IsDefault())
	assert.Equal(t, raw[:], h[:])
}

func TestHashFromBytesWrongLength(t *testing.T) {
	_, err := HashFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestHashIsDefault(t *testing.T) {
	var h Hash
	assert.True(t, h.IsDefault())
}

func TestHashString(t *testing.T) {
	var h Hash
	h[0] = 1
	assert.NotEmpty(t, h.String())
}

func TestPartIdString(t *testing.T) {
	p := PartId{Idx: 3, Total: 10}
	assert.Equal(t, "3/10", p.String())
}

func TestShardUidString(t *testing.T) {
	u := ShardUid{Version: 2, ShardId: 5}
	assert.Equal(t, "s5.v2", u.String())
}
