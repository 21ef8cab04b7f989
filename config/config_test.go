package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/measure"
)

func TestLoad(t *testing.T) {
	s, err := Load("testdata/pulse_oximeter.yaml")
	require.NoError(t, err)
	require.Equal(t, "pulse-oximeter", s.Name)
	require.True(t, s.Header.Timestamp)
	require.NotNil(t, s.Header.PersonID)
	require.Equal(t, uint16(1), *s.Header.PersonID)
	require.Len(t, s.Measurements, 6)

	i, ok := s.Index("pleth")
	require.True(t, ok)
	require.Equal(t, 5, i)
	_, ok = s.Index("missing")
	require.False(t, ok)

	descs, err := s.Descriptors()
	require.NoError(t, err)
	require.Equal(t, measure.Numeric{Common: measure.Common{Type: 0x4BB8, Unit: 0x0220}}, descs[0])
	require.Equal(t, measure.Numeric{Common: measure.Common{Type: 0x482A, Unit: 0x0AA0, Extras: measure.Extras{Duration: true}}}, descs[1])
	require.Equal(t, measure.Compound{Common: measure.Common{Type: 0x4A04, Unit: 0x0F20}, SubTypes: []uint32{0x4A05, 0x4A06, 0x4A07}}, descs[2])
	require.Equal(t, measure.BitEnum{Common: measure.Common{Type: 0x0145}, ByteCount: 2, Supported: 0x0F0F}, descs[3])
	require.Equal(t, measure.StringEnum{Common: measure.Common{Type: 0x0146}, MaxLength: 12}, descs[4])

	rtsa, ok := descs[5].(measure.RTSA)
	require.True(t, ok)
	require.Equal(t, format.Float32, rtsa.Width)
	require.Equal(t, mder.MustNew(-1, 5, format.Float32), rtsa.Scale)
	require.Equal(t, mder.MustNew(-2, 2, format.Float32), rtsa.Period)
	require.Zero(t, rtsa.Offset.Width, "unset attributes keep the compile default")
}

func TestShape_Compile(t *testing.T) {
	s, err := Load("testdata/pulse_oximeter.yaml")
	require.NoError(t, err)

	ctx, err := measure.NewContext()
	require.NoError(t, err)
	tpl, err := s.Compile(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, tpl.MeasurementCount())
	require.True(t, tpl.Flag().HasTimestamp())
	require.True(t, tpl.Flag().HasPersonID())

	id, err := tpl.PersonID()
	require.NoError(t, err)
	require.Equal(t, uint16(1), id)
}

func TestParse_HeaderOptions(t *testing.T) {
	s, err := Parse([]byte(`
header:
  duration: true
  supplemental_types: 2
  references: 3
  avas: {max: 2, value_cap: 8}
  big_endian: true
  group_id: 0x1234
measurements:
  - kind: coded_enum
    type: 7
`))
	require.NoError(t, err)

	opts, err := s.Options()
	require.NoError(t, err)
	require.Len(t, opts, 6)

	tpl, err := s.Compile(nil)
	require.NoError(t, err)
	require.True(t, tpl.Flag().IsBigEndian())
	require.True(t, tpl.Flag().HasCommonDuration())
	require.True(t, tpl.Flag().HasCommonAVAs())
	require.Equal(t, uint16(0x1234), tpl.GroupID())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"Unknown key", "measurements:\n  - kind: numeric\n    colour: red\n", 0},
		{"Empty", "", 0},
		{"No measurements", "name: x\n", 1},
		{"Unknown kind", "measurements:\n  - kind: waveform\n", 1},
		{"Missing kind", "measurements:\n  - type: 1\n", 1},
		{"Bad width", "measurements:\n  - kind: numeric\n    width: float64\n", 1},
		{"Compound without sub-types", "measurements:\n  - kind: compound\n", 1},
		{"Complex without elements", "measurements:\n  - kind: complex_compound\n", 1},
		{"Bit enum bytes", "measurements:\n  - kind: bit_enum\n    byte_count: 5\n", 1},
		{"String without capacity", "measurements:\n  - kind: string_enum\n", 1},
		{"RTSA geometry", "measurements:\n  - kind: rtsa\n    sample_bits: 40\n    max_samples: 3\n", 1},
		{"RTSA attributes", "measurements:\n  - kind: rtsa\n    sample_bits: 8\n    max_samples: 3\n    scale: abc\n    period: 1e\n", 2},
		{"Duplicate names", "measurements:\n  - {name: a, kind: numeric}\n  - {name: a, kind: coded_enum}\n", 1},
		{"Header capacity", "header:\n  references: 300\nmeasurements:\n  - kind: numeric\n", 1},
		{"Several problems", "header:\n  avas: {max: -1}\nmeasurements:\n  - kind: numeric\n    width: x\n  - kind: nope\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			if tt.want > 0 {
				require.ErrorIs(t, err, errs.ErrInvalidDescriptor)
				require.Len(t, multierr.Errors(err), tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	require.ErrorContains(t, err, "read shape file")
}
