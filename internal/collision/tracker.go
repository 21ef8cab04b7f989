// Package collision tracks 16-bit group ids and detects two different template
// shapes folding onto the same id.
package collision

import (
	"fmt"

	"github.com/arloliu/phdpack/errs"
)

// Tracker maps group ids to the shape signature that first claimed them.
//
// Tracker is not safe for concurrent use; the owner serializes access.
type Tracker struct {
	signatures map[uint16]string // group id → shape signature
	order      []uint16          // ids in the order they were first claimed
	collisions int
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		signatures: make(map[uint16]string),
		order:      make([]uint16, 0),
	}
}

// Track claims id for signature.
//
// Claiming an id again with the same signature is a no-op, so every instance of a
// shape can be tracked.
//
// Returns:
//   - error: errs.ErrGroupIDCollision if id is already held by a different signature
func (t *Tracker) Track(id uint16, signature string) error {
	if existing, ok := t.signatures[id]; ok {
		if existing == signature {
			return nil
		}
		t.collisions++

		return fmt.Errorf("%w: 0x%04X", errs.ErrGroupIDCollision, id)
	}

	t.signatures[id] = signature
	t.order = append(t.order, id)

	return nil
}

// Lookup returns the signature holding id.
func (t *Tracker) Lookup(id uint16) (string, bool) {
	sig, ok := t.signatures[id]
	return sig, ok
}

// Collisions returns the number of rejected claims since the last Reset.
func (t *Tracker) Collisions() int {
	return t.collisions
}

// IDs returns the tracked ids in claim order.
func (t *Tracker) IDs() []uint16 {
	return t.order
}

// Count returns the number of tracked ids.
func (t *Tracker) Count() int {
	return len(t.order)
}

// Reset clears all tracked ids and the collision count.
func (t *Tracker) Reset() {
	clear(t.signatures)
	t.order = t.order[:0]
	t.collisions = 0
}
