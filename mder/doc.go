// Package mder implements the Mder float wire format used by personal health device
// records: the 16-bit SFLOAT and the 32-bit FLOAT.
//
// An Mder float carries a base-10 exponent and a mantissa, so a value such as 36.60
// keeps its precision (mantissa 3660, exponent -2) instead of collapsing to a binary
// float. A few mantissa patterns are reserved as sentinels.
//
// # Wire Layout
//
//	SFLOAT16: bits 15-12 exponent (signed), bits 11-0 mantissa (signed)
//	FLOAT32:  bits 31-24 exponent (signed), bits 23-0 mantissa (signed)
//
// Sentinels, matched on the mantissa field only (any exponent):
//
//	Special    | SFLOAT16 | FLOAT32
//	-----------|----------|-----------
//	NaN        | 0x07FF   | 0x007FFFFF
//	+Infinity  | 0x07FE   | 0x007FFFFE
//	-Infinity  | 0x0802   | 0x00800002
//	NRes       | 0x0801   | 0x00800001
//	Reserved   | 0x0800   | 0x00800000
//
// Every raw word decodes to something; only an unknown width fails.
//
// # Decimal Strings
//
// Value.String renders the mantissa in base 10 and shifts the decimal point by the
// exponent, preserving trailing zeros: mantissa 200 with exponent -2 renders "2.00".
// Positive exponents append zeros without a decimal point. Special values render as
// NAN, PINF, NINF or OTH.
//
// Parse is the inverse on the non-special domain. A mantissa that does not fit the
// width is not an error: the value becomes NRes ("not at this resolution"), which is
// itself a valid wire value.
//
// # Basic Usage
//
//	v, err := mder.Parse("36.6", format.SFloat16)
//	raw, err := v.Encode()          // 0xF16E
//	back, err := mder.Decode(raw, format.SFloat16)
//	fmt.Println(back)              // 36.6
package mder
