package endian

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForBigEndian(t *testing.T) {
	require.Equal(t, GetBigEndianEngine(), ForBigEndian(true))
	require.Equal(t, GetLittleEndianEngine(), ForBigEndian(false))
	require.True(t, IsBigEndian(ForBigEndian(true)))
	require.False(t, IsBigEndian(ForBigEndian(false)))
}

func TestUint24(t *testing.T) {
	t.Run("Little endian", func(t *testing.T) {
		b := make([]byte, 3)
		PutUint24(GetLittleEndianEngine(), b, 0xFFA1B2C3)
		require.Equal(t, []byte{0xC3, 0xB2, 0xA1}, b)
		require.Equal(t, uint32(0xA1B2C3), Uint24(GetLittleEndianEngine(), b))
	})

	t.Run("Big endian", func(t *testing.T) {
		b := make([]byte, 3)
		PutUint24(GetBigEndianEngine(), b, 0xA1B2C3)
		require.Equal(t, []byte{0xA1, 0xB2, 0xC3}, b)
		require.Equal(t, uint32(0xA1B2C3), Uint24(GetBigEndianEngine(), b))
	})
}
