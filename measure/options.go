package measure

import (
	"fmt"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/options"
	"github.com/arloliu/phdpack/section"
)

// headerConfig holds the header-level layout options of a template.
type headerConfig struct {
	timestamp     bool
	personID      bool
	personIDValue uint16
	duration      bool
	maxSuppTypes  int
	maxRefs       int
	maxAVAs       int
	avaValueCap   int
	bigEndian     bool
	state         format.ContinuationState
	groupID       uint16
}

// Option configures the header of a compiled template.
type Option = options.Option[*headerConfig]

// WithTimestamp reserves the common timestamp.
func WithTimestamp() Option {
	return options.NoError(func(c *headerConfig) {
		c.timestamp = true
	})
}

// WithPersonID reserves the common person id and sets its initial value.
func WithPersonID(id uint16) Option {
	return options.NoError(func(c *headerConfig) {
		c.personID = true
		c.personIDValue = id
	})
}

// WithCommonDuration reserves a duration shared by every measurement.
func WithCommonDuration() Option {
	return options.NoError(func(c *headerConfig) {
		c.duration = true
	})
}

// WithCommonSupplementalTypes reserves max supplemental types shared by every measurement.
func WithCommonSupplementalTypes(maxTypes int) Option {
	return options.New(func(c *headerConfig) error {
		if err := checkHeaderCapacity("supplemental type capacity", maxTypes); err != nil {
			return err
		}
		c.maxSuppTypes = maxTypes

		return nil
	})
}

// WithCommonReferences reserves max references shared by every measurement.
func WithCommonReferences(maxRefs int) Option {
	return options.New(func(c *headerConfig) error {
		if err := checkHeaderCapacity("reference capacity", maxRefs); err != nil {
			return err
		}
		c.maxRefs = maxRefs

		return nil
	})
}

// WithCommonAVAs reserves max AVAs with valueCap value bytes each, shared by every measurement.
func WithCommonAVAs(maxAVAs, valueCap int) Option {
	return options.New(func(c *headerConfig) error {
		if err := checkHeaderCapacity("AVA capacity", maxAVAs); err != nil {
			return err
		}
		if err := checkHeaderCapacity("AVA value capacity", valueCap); err != nil {
			return err
		}
		c.maxAVAs = maxAVAs
		c.avaValueCap = valueCap

		return nil
	})
}

// WithBigEndian lays the record out big-endian. Records are little-endian by default.
func WithBigEndian() Option {
	return options.NoError(func(c *headerConfig) {
		c.bigEndian = true
	})
}

// WithContinuation sets the continuation state written into the template's own header.
func WithContinuation(state format.ContinuationState) Option {
	return options.New(func(c *headerConfig) error {
		if state > format.StateRecordDone {
			return fmt.Errorf("%w: continuation state %d", errs.ErrInvalidHeaderFlags, state)
		}
		c.state = state

		return nil
	})
}

// WithGroupID overrides the group id derived from the template shape. The override
// is not checked for collisions.
func WithGroupID(id uint16) Option {
	return options.NoError(func(c *headerConfig) {
		c.groupID = id
	})
}

func checkHeaderCapacity(name string, n int) error {
	if n < 0 || n > section.MaxCapacity {
		return fmt.Errorf("%w: header %s %d outside 0..%d", errs.ErrInvalidDescriptor, name, n, section.MaxCapacity)
	}

	return nil
}

func (c *headerConfig) flag() section.HeaderFlag {
	var f section.HeaderFlag
	f.SetTimestamp(c.timestamp)
	f.SetPersonID(c.personID)
	f.SetCommonDuration(c.duration)
	f.SetCommonSupplementalTypes(c.maxSuppTypes > 0)
	f.SetCommonReferences(c.maxRefs > 0)
	f.SetCommonAVAs(c.maxAVAs > 0)
	f.SetBigEndian(c.bigEndian)
	f.SetContinuation(c.state)

	return f
}

// commonSize returns the size of the common region.
func (c *headerConfig) commonSize() int {
	n := 0
	if c.timestamp {
		n += section.TimestampSize
	}
	if c.personID {
		n += section.PersonIDSize
	}
	if c.duration {
		n += section.DurationSize
	}
	if c.maxSuppTypes > 0 {
		n += section.SupplementalTypesSize(c.maxSuppTypes)
	}
	if c.maxRefs > 0 {
		n += section.ReferencesSize(c.maxRefs)
	}
	if c.maxAVAs > 0 {
		n += section.AVAsSize(c.maxAVAs, c.avaValueCap)
	}

	return n
}
