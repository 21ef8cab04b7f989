package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/phdpack/errs"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.Equal(t, 0, tracker.Collisions())
	require.Empty(t, tracker.IDs())
}

func TestTracker_Track(t *testing.T) {
	t.Run("Same shape claims again", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Track(0x1234, "numeric"))
		require.NoError(t, tracker.Track(0x1234, "numeric"))
		require.Equal(t, 1, tracker.Count())
	})

	t.Run("Different shape collides", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Track(0x1234, "numeric"))

		err := tracker.Track(0x1234, "compound")
		require.ErrorIs(t, err, errs.ErrGroupIDCollision)
		require.Contains(t, err.Error(), "0x1234")
		require.Equal(t, 1, tracker.Collisions())

		sig, ok := tracker.Lookup(0x1234)
		require.True(t, ok)
		require.Equal(t, "numeric", sig)
	})

	t.Run("Claim order", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Track(3, "c"))
		require.NoError(t, tracker.Track(1, "a"))
		require.NoError(t, tracker.Track(2, "b"))
		require.Equal(t, []uint16{3, 1, 2}, tracker.IDs())
	})
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Track(7, "a"))
	require.Error(t, tracker.Track(7, "b"))

	tracker.Reset()
	require.Equal(t, 0, tracker.Count())
	require.Equal(t, 0, tracker.Collisions())

	_, ok := tracker.Lookup(7)
	require.False(t, ok)
	require.NoError(t, tracker.Track(7, "b"))
}
