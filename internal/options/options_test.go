package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type layoutConfig struct {
	timestamp bool
	maxRefs   int
	calls     []string
}

var errTooMany = errors.New("too many references")

func withTimestamp() Option[*layoutConfig] {
	return NoError(func(c *layoutConfig) {
		c.timestamp = true
		c.calls = append(c.calls, "timestamp")
	})
}

func withMaxRefs(n int) Option[*layoutConfig] {
	return New(func(c *layoutConfig) error {
		if n > 255 {
			return errTooMany
		}
		c.maxRefs = n
		c.calls = append(c.calls, "refs")

		return nil
	})
}

func TestApply(t *testing.T) {
	t.Run("Applies in order", func(t *testing.T) {
		cfg := &layoutConfig{}
		require.NoError(t, Apply(cfg, withMaxRefs(4), withTimestamp()))
		require.True(t, cfg.timestamp)
		require.Equal(t, 4, cfg.maxRefs)
		require.Equal(t, []string{"refs", "timestamp"}, cfg.calls)
	})

	t.Run("Stops at the first error", func(t *testing.T) {
		cfg := &layoutConfig{}
		err := Apply(cfg, withMaxRefs(300), withTimestamp())
		require.ErrorIs(t, err, errTooMany)
		require.False(t, cfg.timestamp)
	})

	t.Run("No options", func(t *testing.T) {
		cfg := &layoutConfig{}
		require.NoError(t, Apply(cfg))
		require.Empty(t, cfg.calls)
	})

	t.Run("Nil options are skipped", func(t *testing.T) {
		cfg := &layoutConfig{}
		require.NoError(t, Apply(cfg, nil, withTimestamp()))
		require.True(t, cfg.timestamp)
	})
}

func TestOption_ValueTarget(t *testing.T) {
	var seen int
	opt := NoError(func(v int) { seen = v })
	require.NoError(t, Apply(7, Option[int](opt)))
	require.Equal(t, 7, seen)
}
