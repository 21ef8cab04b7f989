package section

import (
	"github.com/arloliu/phdpack/endian"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
)

// HeaderFlag is the packed 16-bit flags field at the start of every record.
//
// Bits 0-5 declare which common fields follow the fixed header, bits 8-9 carry the
// continuation state and bit 15 the byte order of the rest of the record. The flags
// themselves are always little-endian.
type HeaderFlag uint16

func (f HeaderFlag) has(mask uint16) bool {
	return uint16(f)&mask != 0
}

func (f *HeaderFlag) set(mask uint16, enabled bool) {
	if enabled {
		*f |= HeaderFlag(mask)
	} else {
		*f &^= HeaderFlag(mask)
	}
}

// HasTimestamp returns whether the common region carries a timestamp.
func (f HeaderFlag) HasTimestamp() bool { return f.has(FlagTimestamp) }

// SetTimestamp enables or disables the timestamp.
func (f *HeaderFlag) SetTimestamp(enabled bool) { f.set(FlagTimestamp, enabled) }

// HasPersonID returns whether the common region carries a person id.
func (f HeaderFlag) HasPersonID() bool { return f.has(FlagPersonID) }

// SetPersonID enables or disables the person id.
func (f *HeaderFlag) SetPersonID(enabled bool) { f.set(FlagPersonID, enabled) }

// HasCommonDuration returns whether the common region carries a duration.
func (f HeaderFlag) HasCommonDuration() bool { return f.has(FlagCommonDuration) }

// SetCommonDuration enables or disables the common duration.
func (f *HeaderFlag) SetCommonDuration(enabled bool) { f.set(FlagCommonDuration, enabled) }

// HasCommonSupplementalTypes returns whether the common region carries supplemental types.
func (f HeaderFlag) HasCommonSupplementalTypes() bool { return f.has(FlagCommonSupplementalTypes) }

// SetCommonSupplementalTypes enables or disables common supplemental types.
func (f *HeaderFlag) SetCommonSupplementalTypes(enabled bool) {
	f.set(FlagCommonSupplementalTypes, enabled)
}

// HasCommonReferences returns whether the common region carries references.
func (f HeaderFlag) HasCommonReferences() bool { return f.has(FlagCommonReferences) }

// SetCommonReferences enables or disables common references.
func (f *HeaderFlag) SetCommonReferences(enabled bool) { f.set(FlagCommonReferences, enabled) }

// HasCommonAVAs returns whether the common region carries AVAs.
func (f HeaderFlag) HasCommonAVAs() bool { return f.has(FlagCommonAVAs) }

// SetCommonAVAs enables or disables common AVAs.
func (f *HeaderFlag) SetCommonAVAs(enabled bool) { f.set(FlagCommonAVAs, enabled) }

// IsBigEndian returns whether the record body is big-endian.
func (f HeaderFlag) IsBigEndian() bool { return f.has(FlagBigEndian) }

// SetBigEndian selects big-endian (true) or little-endian (false) byte order.
func (f *HeaderFlag) SetBigEndian(enabled bool) { f.set(FlagBigEndian, enabled) }

// Continuation returns the continuation state from bits 8-9.
func (f HeaderFlag) Continuation() format.ContinuationState {
	return format.ContinuationState((uint16(f) & ContinuationMask) >> continuationShift)
}

// SetContinuation sets the continuation state in bits 8-9.
func (f *HeaderFlag) SetContinuation(state format.ContinuationState) {
	*f &^= ContinuationMask
	*f |= HeaderFlag(uint16(state)<<continuationShift) & ContinuationMask
}

// Layout returns the flags that decide the common region layout, with the
// continuation state cleared. Records can only share a header when their layouts match.
func (f HeaderFlag) Layout() HeaderFlag {
	return f & CommonFlagsMask
}

// GetEndianEngine returns the engine for the record body.
func (f HeaderFlag) GetEndianEngine() endian.EndianEngine {
	return endian.ForBigEndian(f.IsBigEndian())
}

// Validate checks that no reserved bit is set.
func (f HeaderFlag) Validate() error {
	if uint16(f)&ReservedFlagsMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// MeasurementFlag is the flags byte of one measurement.
//
// Bits 0-3 declare the optional regions that follow the value, bit 4 the float width
// and bits 5-7 the measurement kind.
type MeasurementFlag uint8

// NewMeasurementFlag creates a flag byte for the given kind and value width.
func NewMeasurementFlag(kind format.MeasurementKind, width format.FloatWidth) MeasurementFlag {
	f := MeasurementFlag(uint8(kind) << msmtKindShift)
	if width == format.Float32 {
		f |= MsmtFlagFloat32
	}

	return f
}

// Kind returns the measurement kind.
func (f MeasurementFlag) Kind() format.MeasurementKind {
	return format.MeasurementKind((uint8(f) & MsmtKindMask) >> msmtKindShift)
}

// Width returns the width of the measurement's Mder values.
func (f MeasurementFlag) Width() format.FloatWidth {
	if f&MsmtFlagFloat32 != 0 {
		return format.Float32
	}

	return format.SFloat16
}

// HasSupplementalTypes returns whether the supplemental types region is present.
func (f MeasurementFlag) HasSupplementalTypes() bool { return f&MsmtFlagSupplementalTypes != 0 }

// HasReferences returns whether the references region is present.
func (f MeasurementFlag) HasReferences() bool { return f&MsmtFlagReferences != 0 }

// HasDuration returns whether a duration is present.
func (f MeasurementFlag) HasDuration() bool { return f&MsmtFlagDuration != 0 }

// HasAVAs returns whether the AVA region is present.
func (f MeasurementFlag) HasAVAs() bool { return f&MsmtFlagAVAs != 0 }

// With returns f with the given optional region bits set.
func (f MeasurementFlag) With(mask uint8) MeasurementFlag {
	return f | MeasurementFlag(mask)
}

// Validate checks that the kind is defined.
func (f MeasurementFlag) Validate() error {
	if !f.Kind().IsValid() {
		return errs.ErrInvalidDescriptor
	}

	return nil
}
