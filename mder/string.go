package mder

import (
	"fmt"
	"strconv"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
)

// Decimal string tokens of the special values.
const (
	TokenNaN      = "NAN"
	TokenPosInf   = "PINF"
	TokenNegInf   = "NINF"
	TokenOther    = "OTH"
	TokenReserved = "RSVD" // accepted by Parse only
	// OverflowMarker is written by PutString when the destination is too small.
	OverflowMarker = "OVF"
)

// maxRenderLen bounds the rendering of any FLOAT32 value: sign, "0.", 128 digits.
const maxRenderLen = 1 + 2 + 128 + 8

// String renders v as a decimal string that preserves its precision.
func (v Value) String() string {
	var scratch [maxRenderLen]byte
	return string(v.AppendString(scratch[:0]))
}

// AppendString appends the decimal rendering of v to dst.
//
// Special values render as NAN, PINF, NINF, or OTH (NRes and Reserved). Numbers
// render the signed mantissa and shift the decimal point by the exponent:
//
//	mantissa 2,    exponent -2 → "0.02"
//	mantissa 20,   exponent -1 → "2.0"
//	mantissa 200,  exponent -2 → "2.00"
//	mantissa 123,  exponent 1  → "1230"
//
// Positive exponents append zeros and never produce a decimal point, so the
// significant-figure count is not recoverable from the string in that case.
func (v Value) AppendString(dst []byte) []byte {
	switch v.Special {
	case format.Number:
	case format.NaN:
		return append(dst, TokenNaN...)
	case format.PosInf:
		return append(dst, TokenPosInf...)
	case format.NegInf:
		return append(dst, TokenNegInf...)
	default:
		return append(dst, TokenOther...)
	}

	m := int64(v.Mantissa)
	if m < 0 {
		dst = append(dst, '-')
		m = -m
	}

	var digitBuf [20]byte
	digits := strconv.AppendInt(digitBuf[:0], m, 10)

	exp := int(v.Exponent)
	if exp >= 0 {
		dst = append(dst, digits...)
		if m == 0 {
			return dst
		}
		for i := 0; i < exp; i++ {
			dst = append(dst, '0')
		}

		return dst
	}

	places := -exp
	if len(digits) <= places {
		dst = append(dst, '0', '.')
		for i := 0; i < places-len(digits); i++ {
			dst = append(dst, '0')
		}

		return append(dst, digits...)
	}

	split := len(digits) - places
	dst = append(dst, digits[:split]...)
	dst = append(dst, '.')

	return append(dst, digits[split:]...)
}

// Length returns the buffer size needed to hold the rendering of v plus one
// terminator byte, so callers exchanging C strings with peers can size buffers up
// front. It is an upper bound on len(v.String())+1.
//
// Special values need 5 bytes: the longest token, PINF or NINF, plus the terminator.
// Numbers need 6+|exponent| (SFloat16) or 10+|exponent| (Float32).
func (v Value) Length() int {
	if v.Special != format.Number {
		return len(TokenPosInf) + 1
	}

	exp := int(v.Exponent)
	if exp < 0 {
		exp = -exp
	}

	if v.Width == format.Float32 {
		return 10 + exp
	}

	return 6 + exp
}

// PutString writes the decimal rendering of v into dst.
//
// When dst cannot hold the rendering, PutString writes as much of OverflowMarker as
// fits instead of a truncated number and returns errs.ErrBufferOverflow.
//
// Returns:
//   - int: number of bytes written
//   - error: errs.ErrBufferOverflow if dst is too small
func (v Value) PutString(dst []byte) (int, error) {
	var scratch [maxRenderLen]byte
	rendered := v.AppendString(scratch[:0])

	if len(dst) < len(rendered) {
		n := copy(dst, OverflowMarker)
		return n, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrBufferOverflow, len(rendered), len(dst))
	}

	return copy(dst, rendered), nil
}

// mantissaCeiling stops digit accumulation long before int64 overflow.
const mantissaCeiling = int64(1) << 40

// Parse converts a decimal string to an Mder value of the given width.
//
// Accepted input is either one of the case-sensitive tokens NAN, PINF, NINF, RSVD,
// or an optional leading '-', decimal digits and at most one '.'. The number of digits
// after the point becomes the negative exponent. A trailing '.' with no digits after
// it is accepted and read as one decimal place: "92." yields mantissa 920 and
// exponent -1.
//
// A mantissa or exponent that does not fit the width is not an error: the result is
// the NRes sentinel. The number range stops short of the sentinel band, so 2046, 2047
// and -2046..-2048 (SFloat16) or 8388606, 8388607 and -8388606..-8388608 (Float32)
// also yield NRes; encoded as numbers they would decode as NaN, +Inf and so on.
//
// Returns:
//   - Value: the parsed value, or NRes when out of range
//   - error: errs.ErrInvalidWidth, or errs.ErrParse for malformed input
func Parse(text string, width format.FloatWidth) (Value, error) {
	p, ok := paramsFor(width)
	if !ok {
		return Value{}, errs.ErrInvalidWidth
	}

	switch text {
	case TokenNaN:
		return NaN(width), nil
	case TokenPosInf:
		return PosInf(width), nil
	case TokenNegInf:
		return NegInf(width), nil
	case TokenReserved:
		return Reserved(width), nil
	}

	i := 0
	neg := false
	if len(text) > 0 && text[0] == '-' {
		neg = true
		i = 1
	}

	var (
		mant     int64
		digits   int
		places   int
		dot      bool
		overflow bool
	)

	for ; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			if mant < mantissaCeiling {
				mant = mant*10 + int64(c-'0')
			} else {
				overflow = true
			}
			digits++
			if dot {
				places++
			}
		case c == '.' && !dot:
			dot = true
		default:
			return Value{}, fmt.Errorf("%w: unexpected %q at offset %d in %q", errs.ErrParse, c, i, text)
		}
	}

	if digits == 0 {
		return Value{}, fmt.Errorf("%w: no digits in %q", errs.ErrParse, text)
	}

	if dot && places == 0 {
		mant *= 10
		places = 1
	}

	if neg {
		mant = -mant
	}

	exp := -places
	if overflow || exp < p.minExp || mant < -int64(p.maxMant) || mant > int64(p.maxMant) {
		return NRes(width), nil
	}

	return Value{
		Exponent: int16(exp),  //nolint: gosec
		Mantissa: int32(mant), //nolint: gosec
		Width:    width,
		Special:  format.Number,
	}, nil
}
