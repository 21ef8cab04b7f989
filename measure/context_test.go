package measure

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContext_NextMeasurementID(t *testing.T) {
	t.Run("Monotonic", func(t *testing.T) {
		ctx := newTestContext(t)
		require.Equal(t, uint16(1), ctx.NextMeasurementID())
		require.Equal(t, uint16(2), ctx.NextMeasurementID())
	})

	t.Run("Wraps skipping zero", func(t *testing.T) {
		ctx := newTestContext(t, WithFirstMeasurementID(math.MaxUint16))
		require.Equal(t, uint16(math.MaxUint16), ctx.NextMeasurementID())
		require.Equal(t, uint16(1), ctx.NextMeasurementID())
	})

	t.Run("Concurrent callers get distinct ids", func(t *testing.T) {
		ctx := newTestContext(t)
		var (
			mu   sync.Mutex
			seen = make(map[uint16]bool)
			wg   sync.WaitGroup
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 500; j++ {
					id := ctx.NextMeasurementID()
					mu.Lock()
					seen[id] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Len(t, seen, 4000)
	})
}

func TestContext_Time(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	ctx := newTestContext(t, WithClock(mock))

	tpl, err := Compile(ctx, []Descriptor{Numeric{}}, WithTimestamp())
	require.NoError(t, err)
	plain, err := Compile(ctx, []Descriptor{CodedEnum{}})
	require.NoError(t, err)

	ts, err := tpl.Timestamp()
	require.NoError(t, err)
	require.True(t, mock.Now().Equal(ts), "compile stamps the context time")

	mock.Add(time.Minute)
	require.True(t, ctx.Now().Equal(mock.Now()))

	require.NoError(t, ctx.AdjustTime(-time.Hour, tpl, plain))
	require.Equal(t, -time.Hour, ctx.TimeOffset())
	require.True(t, ctx.Now().Equal(mock.Now().Add(-time.Hour)))

	ts, err = tpl.Timestamp()
	require.NoError(t, err)
	require.True(t, ts.Equal(time.Date(2026, 1, 2, 2, 4, 5, 0, time.UTC)))
}

func TestContext_StoredRecords(t *testing.T) {
	ctx := newTestContext(t)
	require.Equal(t, uint64(0), ctx.StoredRecords())
	require.Equal(t, uint64(1), ctx.RecordStored())
	require.Equal(t, uint64(2), ctx.RecordStored())
	require.Equal(t, uint64(2), ctx.StoredRecords())
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	tpl, err := Compile(nil, []Descriptor{StringEnum{MaxLength: 2}})
	require.NoError(t, err)
	require.Error(t, tpl.SetString(tpl.Measurement(0).Value, "abc"))

	require.Equal(t, 1, logs.FilterMessage("template compiled").Len())
	require.Equal(t, 1, logs.FilterMessage("capacity exceeded").Len())

	SetLogger(nil)
	require.NotNil(t, Logger())
}
