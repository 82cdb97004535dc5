package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomBytes_Length(t *testing.T) {
	for _, n := range []int{0, 1, 16, 32} {
		b, err := RandomBytes(n)
		require.NoError(t, err)
		assert.Len(t, b, n)
	}
}

func TestRandomBytes_EntropyHint(t *testing.T) {
	a, err := RandomBytes(32)
	require.NoError(t, err)
	b, err := RandomBytes(32)
	require.NoError(t, err)

	if assert.ObjectsAreEqual(a, b) {
		t.Logf("warning: two RandomBytes(32) results are identical; extremely unlikely")
	}
}

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}
