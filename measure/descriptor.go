package measure

import (
	"fmt"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/section"
)

// Descriptor describes the shape of one measurement. The set of implementations is
// closed: Numeric, Compound, ComplexCompound, CodedEnum, BitEnum, StringEnum and RTSA.
type Descriptor interface {
	// Kind returns the measurement kind written into the measurement flags.
	Kind() format.MeasurementKind
	base() Common
}

// Common holds the fields every measurement carries.
type Common struct {
	// Type is the measurement type code.
	Type uint32
	// Unit is the unit code. Ignored for coded, bit and string enums.
	Unit uint16
	// Extras reserves the optional per-measurement regions.
	Extras Extras
}

// Extras reserves capacity for the optional regions that follow a measurement value.
// A zero capacity omits the region.
type Extras struct {
	MaxSupplementalTypes int
	MaxReferences        int
	Duration             bool
	MaxAVAs              int
	// AVAValueCap is the byte capacity of every AVA value slot.
	AVAValueCap int
}

func (c Common) base() Common { return c }

// Numeric is a single Mder value. The zero Width selects SFLOAT16.
type Numeric struct {
	Common
	Width format.FloatWidth
}

// Compound is a fixed list of Mder values, each tagged with a static sub-type code.
type Compound struct {
	Common
	Width    format.FloatWidth
	SubTypes []uint32
}

// SubValue is the static part of one complex compound element.
type SubValue struct {
	Type uint32
	Unit uint16
}

// ComplexCompound is a fixed list of Mder values with per-element sub-type and unit.
type ComplexCompound struct {
	Common
	Width    format.FloatWidth
	Elements []SubValue
}

// CodedEnum is a single 32-bit code.
type CodedEnum struct {
	Common
}

// BitEnum is a bit mask of ByteCount bytes (1-4) with a static supported mask.
type BitEnum struct {
	Common
	ByteCount int
	Supported uint32
}

// StringEnum is a string of at most MaxLength bytes.
type StringEnum struct {
	Common
	MaxLength int
}

// RTSA is a real-time sample array: up to MaxSamples unsigned samples of SampleBits
// bits each, with static scale, offset and period.
//
// A zero Scale, Offset or Period (Width 0) defaults to 1, 0 and NaN respectively.
type RTSA struct {
	Common
	Width      format.FloatWidth
	Scale      mder.Value
	Offset     mder.Value
	Period     mder.Value
	SampleBits int
	MaxSamples int
}

func (Numeric) Kind() format.MeasurementKind         { return format.KindNumeric }
func (Compound) Kind() format.MeasurementKind        { return format.KindCompound }
func (ComplexCompound) Kind() format.MeasurementKind { return format.KindComplexCompound }
func (CodedEnum) Kind() format.MeasurementKind       { return format.KindCodedEnum }
func (BitEnum) Kind() format.MeasurementKind         { return format.KindBitEnum }
func (StringEnum) Kind() format.MeasurementKind      { return format.KindStringEnum }
func (RTSA) Kind() format.MeasurementKind            { return format.KindRTSA }

var (
	_ Descriptor = Numeric{}
	_ Descriptor = Compound{}
	_ Descriptor = ComplexCompound{}
	_ Descriptor = CodedEnum{}
	_ Descriptor = BitEnum{}
	_ Descriptor = StringEnum{}
	_ Descriptor = RTSA{}
)

func widthOrDefault(w format.FloatWidth) format.FloatWidth {
	if w == 0 {
		return format.SFloat16
	}

	return w
}

func invalidf(i int, msg string, args ...any) error {
	return fmt.Errorf("%w: measurement %d: %s", errs.ErrInvalidDescriptor, i, fmt.Sprintf(msg, args...))
}

func checkCapacity(i int, name string, n int) error {
	if n < 0 || n > section.MaxCapacity {
		return invalidf(i, "%s %d outside 0..%d", name, n, section.MaxCapacity)
	}

	return nil
}

func (e Extras) validate(i int) error {
	if err := checkCapacity(i, "supplemental type capacity", e.MaxSupplementalTypes); err != nil {
		return err
	}
	if err := checkCapacity(i, "reference capacity", e.MaxReferences); err != nil {
		return err
	}
	if err := checkCapacity(i, "AVA capacity", e.MaxAVAs); err != nil {
		return err
	}

	return checkCapacity(i, "AVA value capacity", e.AVAValueCap)
}

// size returns the bytes the optional regions occupy.
func (e Extras) size() int {
	n := 0
	if e.MaxSupplementalTypes > 0 {
		n += section.SupplementalTypesSize(e.MaxSupplementalTypes)
	}
	if e.MaxReferences > 0 {
		n += section.ReferencesSize(e.MaxReferences)
	}
	if e.Duration {
		n += section.DurationSize
	}
	if e.MaxAVAs > 0 {
		n += section.AVAsSize(e.MaxAVAs, e.AVAValueCap)
	}

	return n
}

func (e Extras) flags() uint8 {
	var f uint8
	if e.MaxSupplementalTypes > 0 {
		f |= section.MsmtFlagSupplementalTypes
	}
	if e.MaxReferences > 0 {
		f |= section.MsmtFlagReferences
	}
	if e.Duration {
		f |= section.MsmtFlagDuration
	}
	if e.MaxAVAs > 0 {
		f |= section.MsmtFlagAVAs
	}

	return f
}

// valueWidth returns the Mder width of the descriptor's values. Kinds without Mder
// values report SFloat16, which leaves the width flag bit clear.
func valueWidth(d Descriptor) format.FloatWidth {
	switch v := d.(type) {
	case Numeric:
		return widthOrDefault(v.Width)
	case Compound:
		return widthOrDefault(v.Width)
	case ComplexCompound:
		return widthOrDefault(v.Width)
	case RTSA:
		return widthOrDefault(v.Width)
	default:
		return format.SFloat16
	}
}

// valueSize validates d and returns the size of its value region.
func valueSize(i int, d Descriptor) (int, error) {
	width := valueWidth(d)
	if !width.IsValid() {
		return 0, fmt.Errorf("%w: measurement %d: %d", errs.ErrInvalidWidth, i, width)
	}
	size := width.Size()

	switch v := d.(type) {
	case Numeric:
		return size, nil
	case Compound:
		if len(v.SubTypes) == 0 || len(v.SubTypes) > section.MaxCapacity {
			return 0, invalidf(i, "compound needs 1..%d sub-types, got %d", section.MaxCapacity, len(v.SubTypes))
		}

		return 1 + len(v.SubTypes)*(section.SubTypeSize+size), nil
	case ComplexCompound:
		if len(v.Elements) == 0 || len(v.Elements) > section.MaxCapacity {
			return 0, invalidf(i, "complex compound needs 1..%d elements, got %d", section.MaxCapacity, len(v.Elements))
		}

		return 1 + len(v.Elements)*(section.ComplexSubHeaderSize+size), nil
	case CodedEnum:
		return section.CodedEnumSize, nil
	case BitEnum:
		if v.ByteCount < 1 || v.ByteCount > section.MaxBitEnumBytes {
			return 0, invalidf(i, "bit enum byte count %d outside 1..%d", v.ByteCount, section.MaxBitEnumBytes)
		}
		if v.ByteCount < 4 && v.Supported>>(8*uint(v.ByteCount)) != 0 {
			return 0, invalidf(i, "supported mask 0x%X wider than %d bytes", v.Supported, v.ByteCount)
		}

		return 1 + 2*v.ByteCount, nil
	case StringEnum:
		if v.MaxLength < 1 || v.MaxLength > section.MaxCapacity {
			return 0, invalidf(i, "string capacity %d outside 1..%d", v.MaxLength, section.MaxCapacity)
		}

		return 2 + v.MaxLength, nil
	case RTSA:
		if v.SampleBits < 1 || v.SampleBits > section.MaxSampleBits {
			return 0, invalidf(i, "sample bits %d outside 1..%d", v.SampleBits, section.MaxSampleBits)
		}
		if v.MaxSamples < 1 || v.MaxSamples > section.MaxRTSASamples {
			return 0, invalidf(i, "sample capacity %d outside 1..%d", v.MaxSamples, section.MaxRTSASamples)
		}
		for _, s := range []mder.Value{v.Scale, v.Offset, v.Period} {
			if s.Width == 0 {
				continue
			}
			if s.Width != width {
				return 0, fmt.Errorf("%w: measurement %d: RTSA attribute is %s, want %s", errs.ErrInvalidWidth, i, s.Width, width)
			}
			if _, err := s.Encode(); err != nil {
				return 0, fmt.Errorf("measurement %d: RTSA attribute: %w", i, err)
			}
		}

		return 3*size + section.RTSAFixedSize + section.RTSABlockSize(v.SampleBits, v.MaxSamples), nil
	default:
		return 0, invalidf(i, "unknown descriptor %T", d)
	}
}
