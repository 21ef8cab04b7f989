package mder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/phdpack/endian"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
)

func TestDecode_KnownWords(t *testing.T) {
	t.Run("SFloat16 body temperature", func(t *testing.T) {
		v, err := Decode(0xF16E, format.SFloat16)
		require.NoError(t, err)
		require.Equal(t, format.Number, v.Special)
		require.Equal(t, int16(-1), v.Exponent)
		require.Equal(t, int32(366), v.Mantissa)
		require.Equal(t, "36.6", v.String())
	})

	t.Run("SFloat16 negative mantissa", func(t *testing.T) {
		// exponent -2 (0xE), mantissa -5 (0xFFB)
		v, err := Decode(0xEFFB, format.SFloat16)
		require.NoError(t, err)
		require.Equal(t, int16(-2), v.Exponent)
		require.Equal(t, int32(-5), v.Mantissa)
		require.Equal(t, "-0.05", v.String())
	})

	t.Run("Float32", func(t *testing.T) {
		v, err := Decode(0xFF0003DA, format.Float32)
		require.NoError(t, err)
		require.Equal(t, int16(-1), v.Exponent)
		require.Equal(t, int32(986), v.Mantissa)
		require.InDelta(t, 98.6, v.Float64(), 1e-9)
	})

	t.Run("Float32 negative exponent and mantissa", func(t *testing.T) {
		v, err := Decode(0x80800003, format.Float32)
		require.NoError(t, err)
		require.Equal(t, int16(-128), v.Exponent)
		require.Equal(t, int32(-8388605), v.Mantissa)
	})

	t.Run("Bits above the width are ignored", func(t *testing.T) {
		v, err := Decode(0xABCDF16E, format.SFloat16)
		require.NoError(t, err)
		require.Equal(t, "36.6", v.String())
	})

	t.Run("Invalid width", func(t *testing.T) {
		_, err := Decode(0x1234, format.FloatWidth(9))
		require.ErrorIs(t, err, errs.ErrInvalidWidth)
	})
}

func TestDecode_SentinelPriority(t *testing.T) {
	cases := []struct {
		width    format.FloatWidth
		mantBits uint32
		expBits  uint
		special  format.Special
	}{
		{format.SFloat16, 0x07FF, 12, format.NaN},
		{format.SFloat16, 0x07FE, 12, format.PosInf},
		{format.SFloat16, 0x0802, 12, format.NegInf},
		{format.SFloat16, 0x0801, 12, format.NRes},
		{format.SFloat16, 0x0800, 12, format.Reserved},
		{format.Float32, 0x007FFFFF, 24, format.NaN},
		{format.Float32, 0x007FFFFE, 24, format.PosInf},
		{format.Float32, 0x00800002, 24, format.NegInf},
		{format.Float32, 0x00800001, 24, format.NRes},
		{format.Float32, 0x00800000, 24, format.Reserved},
	}

	for _, tc := range cases {
		t.Run(tc.width.String()+" "+tc.special.String(), func(t *testing.T) {
			expCount := uint32(1) << (32 - tc.expBits)
			if tc.width == format.SFloat16 {
				expCount = 16
			}
			for e := uint32(0); e < expCount; e++ {
				raw := e<<tc.expBits | tc.mantBits
				v, err := Decode(raw, tc.width)
				require.NoError(t, err)
				require.Equal(t, tc.special, v.Special, "raw=0x%X", raw)
				require.Equal(t, int16(0), v.Exponent, "special values are canonical")
				require.Equal(t, NewSpecial(tc.special, tc.width), v)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Run("SFloat16 full range", func(t *testing.T) {
		for exp := -8; exp <= 7; exp++ {
			for mant := int64(-2045); mant <= 2045; mant++ {
				v := MustNew(exp, mant, format.SFloat16)
				raw, err := v.Encode()
				require.NoError(t, err)
				require.LessOrEqual(t, raw, uint32(0xFFFF))

				back, err := Decode(raw, format.SFloat16)
				require.NoError(t, err)
				require.Equal(t, v, back)
			}
		}
	})

	t.Run("Float32 sampled range", func(t *testing.T) {
		mantissas := []int64{0, 1, -1, 42, -42, 65535, -65536, 8388605, -8388605, 1234567}
		for exp := -128; exp <= 127; exp++ {
			for _, mant := range mantissas {
				v := MustNew(exp, mant, format.Float32)
				raw, err := v.Encode()
				require.NoError(t, err)

				back, err := Decode(raw, format.Float32)
				require.NoError(t, err)
				require.Equal(t, v, back)
			}
		}
	})

	t.Run("Specials", func(t *testing.T) {
		for _, w := range []format.FloatWidth{format.SFloat16, format.Float32} {
			for _, s := range []format.Special{format.NaN, format.PosInf, format.NegInf, format.NRes, format.Reserved} {
				v := NewSpecial(s, w)
				raw, err := v.Encode()
				require.NoError(t, err)

				back, err := Decode(raw, w)
				require.NoError(t, err)
				require.Equal(t, v, back)
			}
		}
	})
}

func TestEncode_Errors(t *testing.T) {
	_, err := Value{Width: format.FloatWidth(0)}.Encode()
	require.ErrorIs(t, err, errs.ErrInvalidWidth)

	_, err = Value{Mantissa: 2046, Width: format.SFloat16}.Encode()
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = Value{Exponent: 8, Mantissa: 1, Width: format.SFloat16}.Encode()
	require.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestNew_Range(t *testing.T) {
	_, err := New(0, 2045, format.SFloat16)
	require.NoError(t, err)

	_, err = New(0, 2046, format.SFloat16)
	require.ErrorIs(t, err, errs.ErrOutOfRange, "2046 is the +Inf code")

	_, err = New(-9, 1, format.SFloat16)
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = New(127, -8388605, format.Float32)
	require.NoError(t, err)

	_, err = New(0, 8388606, format.Float32)
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = New(0, 1, format.FloatWidth(3))
	require.ErrorIs(t, err, errs.ErrInvalidWidth)
}

func TestValue_Float64(t *testing.T) {
	require.InDelta(t, 0.02, MustNew(-2, 2, format.SFloat16).Float64(), 1e-12)
	require.InDelta(t, 1230.0, MustNew(1, 123, format.SFloat16).Float64(), 1e-12)
	require.True(t, math.IsNaN(NaN(format.SFloat16).Float64()))
	require.True(t, math.IsNaN(NRes(format.Float32).Float64()))
	require.True(t, math.IsInf(PosInf(format.SFloat16).Float64(), 1))
	require.True(t, math.IsInf(NegInf(format.Float32).Float64(), -1))
}

func TestFromFloat(t *testing.T) {
	t.Run("Rounds to requested decimals", func(t *testing.T) {
		v := FromFloat(36.649, 1, format.SFloat16)
		require.Equal(t, MustNew(-1, 366, format.SFloat16), v)

		v = FromFloat(-0.125, 2, format.Float32)
		require.Equal(t, MustNew(-2, -13, format.Float32), v)
	})

	t.Run("Negative decimals give positive exponent", func(t *testing.T) {
		v := FromFloat(123456, -2, format.SFloat16)
		require.Equal(t, MustNew(2, 1235, format.SFloat16), v)
		require.Equal(t, "123500", v.String())
	})

	t.Run("Out of range becomes NRes", func(t *testing.T) {
		require.Equal(t, format.NRes, FromFloat(5000, 0, format.SFloat16).Special)
		require.Equal(t, format.NRes, FromFloat(1, 9, format.SFloat16).Special)
	})

	t.Run("Non finite inputs", func(t *testing.T) {
		require.Equal(t, format.NaN, FromFloat(math.NaN(), 1, format.SFloat16).Special)
		require.Equal(t, format.PosInf, FromFloat(math.Inf(1), 1, format.Float32).Special)
		require.Equal(t, format.NegInf, FromFloat(math.Inf(-1), 1, format.Float32).Special)
	})
}

func TestValue_Equal(t *testing.T) {
	require.True(t, NaN(format.SFloat16).Equal(Value{Exponent: 3, Width: format.SFloat16, Special: format.NaN}))
	require.False(t, NaN(format.SFloat16).Equal(NaN(format.Float32)))
	require.False(t, MustNew(-1, 20, format.SFloat16).Equal(MustNew(0, 2, format.SFloat16)))
}

func TestPutRead(t *testing.T) {
	v := MustNew(-1, 366, format.SFloat16)

	t.Run("Little endian", func(t *testing.T) {
		buf := make([]byte, 2)
		require.NoError(t, Put(endian.GetLittleEndianEngine(), buf, v))
		require.Equal(t, []byte{0x6E, 0xF1}, buf)

		back, err := Read(endian.GetLittleEndianEngine(), buf, format.SFloat16)
		require.NoError(t, err)
		require.Equal(t, v, back)
	})

	t.Run("Big endian", func(t *testing.T) {
		buf, err := Append(endian.GetBigEndianEngine(), nil, v)
		require.NoError(t, err)
		require.Equal(t, []byte{0xF1, 0x6E}, buf)
	})

	t.Run("Short buffers", func(t *testing.T) {
		require.ErrorIs(t, Put(endian.GetLittleEndianEngine(), make([]byte, 1), v), errs.ErrBufferOverflow)
		_, err := Read(endian.GetLittleEndianEngine(), []byte{1, 2, 3}, format.Float32)
		require.ErrorIs(t, err, errs.ErrBufferOverflow)
	})
}
