package group

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/options"
	"github.com/arloliu/phdpack/measure"
)

// Assembler drives the continuation state machine over repeated transmissions of the
// same templates.
//
// Without WithOptimized every Next emits a NORMAL record. With it, the first Next
// emits OPTIMIZED_FIRST, later calls emit OPTIMIZED_FOLLOWS and Done closes the
// sequence with RECORD_DONE. A Next with a different template set, or the same
// templates in a different order, restarts the sequence with OPTIMIZED_FIRST.
//
// An Assembler is safe for concurrent use.
type Assembler struct {
	mu        sync.Mutex
	optimized bool
	groupID   uint16

	inSequence   bool
	seqGroupID   uint16
	seqTemplates []*measure.Template
	bigEndian    bool
}

// Option configures an Assembler.
type Option = options.Option[*Assembler]

// WithOptimized enables optimized sequences.
func WithOptimized() Option {
	return options.NoError(func(a *Assembler) {
		a.optimized = true
	})
}

// WithGroupID overrides the group id of every record.
func WithGroupID(id uint16) Option {
	return options.NoError(func(a *Assembler) {
		a.groupID = id
	})
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{}
	if err := options.Apply(a, opts...); err != nil {
		return nil, err
	}

	return a, nil
}

// State returns the continuation state of the record the next call to Next emits.
func (a *Assembler) State() format.ContinuationState {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case !a.optimized:
		return format.StateNormal
	case a.inSequence:
		return format.StateOptimizedFollows
	default:
		return format.StateOptimizedFirst
	}
}

// Next assembles the next record of templates.
func (a *Assembler) Next(templates ...*measure.Template) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.optimized {
		return Assemble(Header{State: format.StateNormal, GroupID: a.groupID}, templates...)
	}

	if len(templates) == 0 || templates[0] == nil {
		return nil, errs.ErrNoTemplates
	}

	groupID := a.groupID
	if groupID == 0 {
		groupID = templates[0].GroupID()
	}

	state := format.StateOptimizedFirst
	if a.inSequence {
		if groupID == a.seqGroupID && slices.Equal(templates, a.seqTemplates) {
			state = format.StateOptimizedFollows
		} else {
			Logger().Debug("optimized sequence restarted",
				zap.Uint16("previous_group_id", a.seqGroupID),
				zap.Uint16("group_id", groupID),
			)
		}
	}

	record, err := Assemble(Header{State: state, GroupID: groupID}, templates...)
	if err != nil {
		return nil, err
	}

	a.inSequence = true
	a.seqGroupID = groupID
	a.seqTemplates = append(a.seqTemplates[:0], templates...)
	a.bigEndian = templates[0].Flag().IsBigEndian()

	return record, nil
}

// Done closes the optimized sequence with a RECORD_DONE record. The next call to Next
// opens a new sequence.
//
// Returns:
//   - error: errs.ErrNoSequence if no optimized sequence is in progress
func (a *Assembler) Done() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.inSequence {
		return nil, errs.ErrNoSequence
	}

	a.endSequence()
	Logger().Debug("optimized sequence done", zap.Uint16("group_id", a.seqGroupID))

	return appendDone(nil, a.bigEndian, a.seqGroupID), nil
}

// Reset abandons the current sequence without emitting RECORD_DONE.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.endSequence()
}

func (a *Assembler) endSequence() {
	a.inSequence = false
	clear(a.seqTemplates)
	a.seqTemplates = a.seqTemplates[:0]
}
