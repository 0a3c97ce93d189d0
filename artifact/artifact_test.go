package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintEqualForSameBytes(t *testing.T) {
	a, err := Of([]byte("state part payload"))
	require.NoError(t, err)
	b, err := Of([]byte("state part payload"))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestFingerprintDiffersForDifferentBytes(t *testing.T) {
	a, err := Of([]byte("part a"))
	require.NoError(t, err)
	b, err := Of([]byte("part b"))
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestFingerprintString(t *testing.T) {
	f, err := Of([]byte("x"))
	require.NoError(t, err)
	assert.NotEmpty(t, f.String())
}
