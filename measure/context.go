package measure

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/arloliu/phdpack/internal/collision"
	"github.com/arloliu/phdpack/internal/options"
)

// Context holds the protocol state shared by the templates of one device: the
// measurement id counter, the group id registry, the time base and the stored
// record counter.
//
// A Context is safe for concurrent use.
type Context struct {
	mu            sync.Mutex
	clock         clock.Clock
	nextID        uint16
	groups        *collision.Tracker
	timeOffset    time.Duration
	storedRecords uint64
}

// ContextOption configures a Context.
type ContextOption = options.Option[*Context]

// WithClock sets the time source. The default is the wall clock.
func WithClock(c clock.Clock) ContextOption {
	return options.NoError(func(ctx *Context) {
		ctx.clock = c
	})
}

// WithFirstMeasurementID sets the first measurement id handed out. Zero is skipped.
func WithFirstMeasurementID(id uint16) ContextOption {
	return options.NoError(func(ctx *Context) {
		ctx.nextID = id
	})
}

// NewContext creates a Context.
func NewContext(opts ...ContextOption) (*Context, error) {
	ctx := &Context{
		clock:  clock.New(),
		nextID: 1,
		groups: collision.NewTracker(),
	}

	if err := options.Apply(ctx, opts...); err != nil {
		return nil, err
	}

	return ctx, nil
}

// NextMeasurementID returns a fresh measurement id. Ids increase monotonically and
// wrap around skipping 0.
func (c *Context) NextMeasurementID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextID == 0 {
		c.nextID = 1
	}
	id := c.nextID
	c.nextID++

	return id
}

// Now returns the current time of the device time base.
func (c *Context) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clock.Now().Add(c.timeOffset)
}

// TimeOffset returns the sum of all adjustments applied with AdjustTime.
func (c *Context) TimeOffset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.timeOffset
}

// AdjustTime shifts the device time base by delta and re-patches the timestamp of
// every given template that carries one. Templates without a timestamp are skipped.
func (c *Context) AdjustTime(delta time.Duration, templates ...*Template) error {
	c.mu.Lock()
	c.timeOffset += delta
	c.mu.Unlock()

	for _, t := range templates {
		if !t.Header().Timestamp.IsValid() {
			continue
		}
		if err := t.ApplyTimeDelta(delta); err != nil {
			return err
		}
	}

	Logger().Debug("time base adjusted", zap.Duration("delta", delta), zap.Int("templates", len(templates)))

	return nil
}

// RecordStored counts one stored record and returns the new total.
func (c *Context) RecordStored() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storedRecords++

	return c.storedRecords
}

// StoredRecords returns the number of stored records counted so far.
func (c *Context) StoredRecords() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.storedRecords
}

// claimGroupID registers signature under id.
func (c *Context) claimGroupID(id uint16, signature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.groups.Track(id, signature)
}
