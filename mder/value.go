package mder

import (
	"fmt"
	"math"

	"github.com/arloliu/phdpack/endian"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
)

// Value is a decoded Mder float.
//
// When Special is not format.Number the exponent and mantissa are not meaningful, but
// they still hold the canonical sentinel pattern: exponent 0 and the sign-extended
// sentinel mantissa. This keeps Value comparable with ==.
type Value struct {
	Exponent int16
	Mantissa int32
	Width    format.FloatWidth
	Special  format.Special
}

// widthParams holds the bit geometry and sentinel patterns of one width.
type widthParams struct {
	mantBits uint
	expBits  uint
	mantMask uint32
	wordMask uint32
	minExp   int
	maxExp   int
	maxMant  int32 // largest mantissa magnitude that is a number, not a sentinel
	sentinel [5]uint32
}

var (
	sfloatParams = widthParams{
		mantBits: 12,
		expBits:  4,
		mantMask: 0x0FFF,
		wordMask: 0xFFFF,
		minExp:   -8,
		maxExp:   7,
		maxMant:  2045,
		sentinel: [5]uint32{0x07FF, 0x07FE, 0x0802, 0x0801, 0x0800},
	}

	floatParams = widthParams{
		mantBits: 24,
		expBits:  8,
		mantMask: 0x00FFFFFF,
		wordMask: 0xFFFFFFFF,
		minExp:   -128,
		maxExp:   127,
		maxMant:  8388605,
		sentinel: [5]uint32{0x007FFFFF, 0x007FFFFE, 0x00800002, 0x00800001, 0x00800000},
	}
)

// sentinel order matches the decode test order.
var sentinelSpecials = [5]format.Special{
	format.NaN,
	format.PosInf,
	format.NegInf,
	format.NRes,
	format.Reserved,
}

func paramsFor(width format.FloatWidth) (*widthParams, bool) {
	switch width {
	case format.SFloat16:
		return &sfloatParams, true
	case format.Float32:
		return &floatParams, true
	default:
		return nil, false
	}
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift //nolint: gosec
}

// Decode splits a raw wire word into exponent and mantissa and classifies it.
//
// Bits above the width are ignored. The mantissa field is tested against the
// sentinels in the order NaN, +Inf, -Inf, NRes, Reserved regardless of the
// exponent bits.
//
// Returns:
//   - Value: the decoded value
//   - error: errs.ErrInvalidWidth if width is not SFloat16 or Float32
func Decode(raw uint32, width format.FloatWidth) (Value, error) {
	p, ok := paramsFor(width)
	if !ok {
		return Value{}, errs.ErrInvalidWidth
	}

	raw &= p.wordMask
	mantBits := raw & p.mantMask

	for i, pattern := range p.sentinel {
		if mantBits == pattern {
			return Value{
				Mantissa: signExtend(pattern, p.mantBits),
				Width:    width,
				Special:  sentinelSpecials[i],
			}, nil
		}
	}

	return Value{
		Exponent: int16(signExtend(raw>>p.mantBits, p.expBits)), //nolint: gosec
		Mantissa: signExtend(mantBits, p.mantBits),
		Width:    width,
		Special:  format.Number,
	}, nil
}

// New creates a numeric value mantissa × 10^exponent.
//
// The mantissa must be a number code for the width (not one of the sentinel
// patterns): -2045..2045 for SFloat16, -8388605..8388605 for Float32. The exponent
// must fit 4 (SFloat16) or 8 (Float32) signed bits.
//
// Returns:
//   - Value: the numeric value
//   - error: errs.ErrInvalidWidth or errs.ErrOutOfRange
func New(exponent int, mantissa int64, width format.FloatWidth) (Value, error) {
	p, ok := paramsFor(width)
	if !ok {
		return Value{}, errs.ErrInvalidWidth
	}

	if exponent < p.minExp || exponent > p.maxExp {
		return Value{}, fmt.Errorf("%w: exponent %d for %s", errs.ErrOutOfRange, exponent, width)
	}

	if mantissa < -int64(p.maxMant) || mantissa > int64(p.maxMant) {
		return Value{}, fmt.Errorf("%w: mantissa %d for %s", errs.ErrOutOfRange, mantissa, width)
	}

	return Value{
		Exponent: int16(exponent), //nolint: gosec
		Mantissa: int32(mantissa), //nolint: gosec
		Width:    width,
		Special:  format.Number,
	}, nil
}

// MustNew is like New but panics on error. Intended for constants and tests.
func MustNew(exponent int, mantissa int64, width format.FloatWidth) Value {
	v, err := New(exponent, mantissa, width)
	if err != nil {
		panic(err)
	}

	return v
}

// NewSpecial returns the canonical value for a sentinel of the given width.
// format.Number yields zero.
func NewSpecial(special format.Special, width format.FloatWidth) Value {
	p, ok := paramsFor(width)
	if !ok || special == format.Number {
		return Value{Width: width}
	}

	for i, s := range sentinelSpecials {
		if s == special {
			return Value{
				Mantissa: signExtend(p.sentinel[i], p.mantBits),
				Width:    width,
				Special:  special,
			}
		}
	}

	return Value{Width: width}
}

// NaN returns the NaN sentinel for width.
func NaN(width format.FloatWidth) Value { return NewSpecial(format.NaN, width) }

// PosInf returns the +Infinity sentinel for width.
func PosInf(width format.FloatWidth) Value { return NewSpecial(format.PosInf, width) }

// NegInf returns the -Infinity sentinel for width.
func NegInf(width format.FloatWidth) Value { return NewSpecial(format.NegInf, width) }

// NRes returns the "not at this resolution" sentinel for width.
func NRes(width format.FloatWidth) Value { return NewSpecial(format.NRes, width) }

// Reserved returns the reserved sentinel for width.
func Reserved(width format.FloatWidth) Value { return NewSpecial(format.Reserved, width) }

// Encode packs the value into its raw wire word.
//
// Numbers place the exponent in the top bits and the masked mantissa in the bottom
// bits; special values emit the fixed sentinel word with a zero exponent.
//
// Returns:
//   - uint32: the raw word (upper 16 bits are zero for SFloat16)
//   - error: errs.ErrInvalidWidth, or errs.ErrOutOfRange for a hand-built number that
//     does not fit the width
func (v Value) Encode() (uint32, error) {
	p, ok := paramsFor(v.Width)
	if !ok {
		return 0, errs.ErrInvalidWidth
	}

	if v.Special != format.Number {
		for i, s := range sentinelSpecials {
			if s == v.Special {
				return p.sentinel[i], nil
			}
		}

		return 0, fmt.Errorf("%w: unknown special %d", errs.ErrOutOfRange, v.Special)
	}

	exp := int(v.Exponent)
	if exp < p.minExp || exp > p.maxExp || v.Mantissa < -p.maxMant || v.Mantissa > p.maxMant {
		return 0, fmt.Errorf("%w: %de%d for %s", errs.ErrOutOfRange, v.Mantissa, v.Exponent, v.Width)
	}

	expBits := uint32(int32(v.Exponent)) & (1<<p.expBits - 1) //nolint: gosec
	mantBits := uint32(v.Mantissa) & p.mantMask               //nolint: gosec

	return expBits<<p.mantBits | mantBits, nil
}

// IsNumber reports whether v is a finite number.
func (v Value) IsNumber() bool {
	return v.Special == format.Number
}

// Size returns the wire size of v in bytes.
func (v Value) Size() int {
	return v.Width.Size()
}

// Equal reports whether v and other denote the same wire value. Special values
// compare by width and special tag only.
func (v Value) Equal(other Value) bool {
	if v.Width != other.Width || v.Special != other.Special {
		return false
	}

	if v.Special != format.Number {
		return true
	}

	return v.Exponent == other.Exponent && v.Mantissa == other.Mantissa
}

// Float64 converts v to a binary float. NaN, NRes and Reserved map to math.NaN().
func (v Value) Float64() float64 {
	switch v.Special {
	case format.Number:
	case format.PosInf:
		return math.Inf(1)
	case format.NegInf:
		return math.Inf(-1)
	default:
		return math.NaN()
	}

	if v.Exponent < 0 {
		return float64(v.Mantissa) / math.Pow10(-int(v.Exponent))
	}

	return float64(v.Mantissa) * math.Pow10(int(v.Exponent))
}

// FromFloat converts f to an Mder value with the given number of decimals.
//
// The value is scaled by 10^decimals and rounded half away from zero; decimals may be
// negative to produce a positive exponent. NaN and infinities map to their sentinels,
// and a result that does not fit the width becomes NRes.
func FromFloat(f float64, decimals int, width format.FloatWidth) Value {
	p, ok := paramsFor(width)
	if !ok {
		return Value{Width: width}
	}

	switch {
	case math.IsNaN(f):
		return NaN(width)
	case math.IsInf(f, 1):
		return PosInf(width)
	case math.IsInf(f, -1):
		return NegInf(width)
	}

	exp := -decimals
	if exp < p.minExp || exp > p.maxExp {
		return NRes(width)
	}

	var scaled float64
	if decimals >= 0 {
		scaled = math.Round(f * math.Pow10(decimals))
	} else {
		scaled = math.Round(f / math.Pow10(-decimals))
	}

	if scaled < -float64(p.maxMant) || scaled > float64(p.maxMant) {
		return NRes(width)
	}

	return Value{
		Exponent: int16(exp),    //nolint: gosec
		Mantissa: int32(scaled), //nolint: gosec
		Width:    width,
		Special:  format.Number,
	}
}

// Put writes the encoded word of v into dst using engine.
//
// Returns:
//   - error: errs.ErrBufferOverflow if dst is shorter than v.Size(), or an Encode error
func Put(engine endian.EndianEngine, dst []byte, v Value) error {
	raw, err := v.Encode()
	if err != nil {
		return err
	}

	switch v.Width {
	case format.SFloat16:
		if len(dst) < 2 {
			return errs.ErrBufferOverflow
		}
		engine.PutUint16(dst, uint16(raw)) //nolint: gosec
	case format.Float32:
		if len(dst) < 4 {
			return errs.ErrBufferOverflow
		}
		engine.PutUint32(dst, raw)
	}

	return nil
}

// Append appends the encoded word of v to dst using engine.
func Append(engine endian.EndianEngine, dst []byte, v Value) ([]byte, error) {
	raw, err := v.Encode()
	if err != nil {
		return dst, err
	}

	if v.Width == format.SFloat16 {
		return engine.AppendUint16(dst, uint16(raw)), nil //nolint: gosec
	}

	return engine.AppendUint32(dst, raw), nil
}

// Read decodes a word of the given width from the start of src using engine.
//
// Returns:
//   - Value: the decoded value
//   - error: errs.ErrInvalidWidth, or errs.ErrBufferOverflow if src is too short
func Read(engine endian.EndianEngine, src []byte, width format.FloatWidth) (Value, error) {
	size := width.Size()
	if size == 0 {
		return Value{}, errs.ErrInvalidWidth
	}

	if len(src) < size {
		return Value{}, errs.ErrBufferOverflow
	}

	if width == format.SFloat16 {
		return Decode(uint32(engine.Uint16(src)), width)
	}

	return Decode(engine.Uint32(src), width)
}
