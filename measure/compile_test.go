package measure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/section"
)

func newTestContext(t *testing.T, opts ...ContextOption) *Context {
	t.Helper()

	ctx, err := NewContext(opts...)
	require.NoError(t, err)

	return ctx
}

func TestCompile_NumericLayout(t *testing.T) {
	ctx := newTestContext(t, WithFirstMeasurementID(0x10))
	tpl, err := Compile(ctx, []Descriptor{
		Numeric{Common: Common{Type: 0x4BB8, Unit: 0x02A0}},
	})
	require.NoError(t, err)
	require.Equal(t, 19, tpl.Len())

	rec := tpl.Bytes()
	require.Equal(t, []byte{0x00, 0x00, 19, 0x00}, rec[0:4])
	require.Equal(t, []byte{0x01, 0x00}, rec[6:8])
	require.Equal(t, []byte{
		0xB8, 0x4B, 0x00, 0x00, // type
		0x20,       // numeric, SFLOAT16, no optional regions
		0xA0, 0x02, // unit
		0x10, 0x00, // id
		0xFF, 0x07, // NaN
	}, rec[8:])

	hdr, err := section.ParseRecordHeader(rec)
	require.NoError(t, err)
	require.Equal(t, tpl.GroupID(), hdr.GroupID)
	require.NotZero(t, hdr.GroupID)

	entries := tpl.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, IndexEntry{Kind: format.FieldMeasurementID, Offset: 15, Length: 2, Measurement: 0}, entries[0])
	require.Equal(t, IndexEntry{Kind: format.FieldNumeric, Width: format.SFloat16, Offset: 17, Length: 2, Count: 1, Stride: 2, Measurement: 0}, entries[1])
}

func TestCompile_CompoundStride(t *testing.T) {
	tpl, err := Compile(nil, []Descriptor{
		Compound{Common: Common{Type: 0x4A04, Unit: 0x0F20}, Width: format.Float32, SubTypes: []uint32{0x4A05, 0x4A06, 0x4A07}},
		ComplexCompound{Common: Common{Type: 0x1}, Elements: []SubValue{{Type: 2, Unit: 3}, {Type: 4, Unit: 5}}},
	})
	require.NoError(t, err)

	m := tpl.Measurement(0)
	e, err := tpl.Entry(m.Value)
	require.NoError(t, err)
	require.Equal(t, format.FieldCompound, e.Kind)
	require.Equal(t, 3, e.Count)
	require.Equal(t, 8, e.Stride)
	require.Equal(t, 8+9+1+4, e.Offset)
	require.Equal(t, 2*8+4, e.Length)

	rec := tpl.Bytes()
	require.Equal(t, byte(3), rec[8+9])
	require.Equal(t, []byte{0x06, 0x4A, 0x00, 0x00}, rec[e.Offset+4:e.Offset+8], "sub-type code sits between values")
	require.Equal(t, byte(0x20<<1|0x10), rec[8+4], "compound kind with FLOAT32 flag")

	c := tpl.Measurement(1)
	ce, err := tpl.Entry(c.Value)
	require.NoError(t, err)
	require.Equal(t, format.FieldComplexCompound, ce.Kind)
	require.Equal(t, 8, ce.Stride)
	require.Equal(t, c.Offset+9+1+6, ce.Offset)

	values, err := tpl.Compound(c.Value)
	require.NoError(t, err)
	require.Equal(t, []mder.Value{mder.NaN(format.SFloat16), mder.NaN(format.SFloat16)}, values)
}

func TestCompile_HeaderAndExtras(t *testing.T) {
	tpl, err := Compile(nil, []Descriptor{
		Numeric{Common: Common{Type: 1, Extras: Extras{MaxSupplementalTypes: 2, MaxReferences: 1, Duration: true, MaxAVAs: 1, AVAValueCap: 4}}},
	},
		WithTimestamp(),
		WithPersonID(7),
		WithCommonDuration(),
		WithCommonSupplementalTypes(1),
		WithCommonReferences(2),
		WithCommonAVAs(2, 3),
	)
	require.NoError(t, err)

	common := 8 + 2 + 4 + (2 + 4) + (2 + 4) + (3 + 2*6)
	require.Equal(t, common, tpl.CommonSize())
	extras := (2 + 8) + (2 + 2) + 4 + (3 + 7)
	require.Equal(t, 9+2+extras, tpl.MeasurementsSize())
	require.Equal(t, 8+common+9+2+extras, tpl.Len())
	require.Equal(t, 6, tpl.HeaderEntryCount())

	flag := tpl.Flag()
	require.True(t, flag.HasTimestamp())
	require.True(t, flag.HasPersonID())
	require.True(t, flag.HasCommonDuration())
	require.True(t, flag.HasCommonSupplementalTypes())
	require.True(t, flag.HasCommonReferences())
	require.True(t, flag.HasCommonAVAs())

	h := tpl.Header()
	id, err := tpl.PersonID()
	require.NoError(t, err)
	require.Equal(t, uint16(7), id)

	d, err := tpl.Duration(h.Duration)
	require.NoError(t, err)
	require.Equal(t, mder.NaN(format.Float32), d)

	m := tpl.Measurement(0)
	require.True(t, m.SupplementalTypes.IsValid())
	require.True(t, m.References.IsValid())
	require.True(t, m.Duration.IsValid())
	require.True(t, m.AVAs.IsValid())

	rec := tpl.Bytes()
	msmtFlag := section.MeasurementFlag(rec[m.Offset+4])
	require.True(t, msmtFlag.HasSupplementalTypes())
	require.True(t, msmtFlag.HasReferences())
	require.True(t, msmtFlag.HasDuration())
	require.True(t, msmtFlag.HasAVAs())
	require.Equal(t, format.KindNumeric, msmtFlag.Kind())

	count, capacity, err := tpl.ListLen(m.SupplementalTypes)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.Equal(t, 2, capacity)
}

func TestCompile_AllKinds(t *testing.T) {
	tpl, err := Compile(nil, []Descriptor{
		Numeric{Common: Common{Type: 1}, Width: format.Float32},
		Compound{Common: Common{Type: 2}, SubTypes: []uint32{1, 2}},
		ComplexCompound{Common: Common{Type: 3}, Elements: []SubValue{{1, 2}}},
		CodedEnum{Common: Common{Type: 4}},
		BitEnum{Common: Common{Type: 5}, ByteCount: 3, Supported: 0x00FF0F},
		StringEnum{Common: Common{Type: 6}, MaxLength: 10},
		RTSA{Common: Common{Type: 7}, SampleBits: 12, MaxSamples: 5, Period: mder.MustNew(-3, 4, format.SFloat16)},
	})
	require.NoError(t, err)
	require.Equal(t, 7, tpl.MeasurementCount())

	kinds := []format.FieldKind{
		format.FieldNumeric, format.FieldCompound, format.FieldComplexCompound, format.FieldCodedEnum,
		format.FieldBitEnum, format.FieldStringEnum, format.FieldRTSA,
	}
	for i, k := range kinds {
		m := tpl.Measurement(i)
		require.Equal(t, k, m.Value.Kind())
		require.Equal(t, format.MeasurementKind(i+1), m.Kind)
	}

	_, supported, err := tpl.BitEnum(tpl.Measurement(4).Value)
	require.NoError(t, err)
	require.Equal(t, uint32(0x00FF0F), supported)

	e, err := tpl.Entry(tpl.Measurement(6).Value)
	require.NoError(t, err)
	require.Equal(t, 2+8, e.Length, "count u16 plus ceil(12×5/8) bytes")
	require.Equal(t, 12, e.Bits)

	rec := tpl.Bytes()
	rtsa := tpl.Measurement(6).Offset + 9
	scale, err := mder.Read(tpl.Engine(), rec[rtsa:], format.SFloat16)
	require.NoError(t, err)
	require.Equal(t, mder.MustNew(0, 1, format.SFloat16), scale)
	period, err := mder.Read(tpl.Engine(), rec[rtsa+4:], format.SFloat16)
	require.NoError(t, err)
	require.Equal(t, "0.004", period.String())
}

func TestCompile_BigEndian(t *testing.T) {
	ctx := newTestContext(t, WithFirstMeasurementID(0x0102))
	tpl, err := Compile(ctx, []Descriptor{Numeric{Common: Common{Type: 0x4BB8, Unit: 0x02A0}}}, WithBigEndian())
	require.NoError(t, err)

	rec := tpl.Bytes()
	require.Equal(t, []byte{0x00, 0x80}, rec[0:2], "flags stay little-endian")
	require.Equal(t, []byte{0x00, 19}, rec[2:4])
	require.Equal(t, []byte{0x00, 0x00, 0x4B, 0xB8, 0x20, 0x02, 0xA0, 0x01, 0x02, 0x07, 0xFF}, rec[8:])
}

func TestCompile_Validation(t *testing.T) {
	cases := []struct {
		name  string
		descs []Descriptor
		opts  []Option
		err   error
	}{
		{"No measurements", nil, nil, errs.ErrInvalidDescriptor},
		{"Nil descriptor", []Descriptor{nil}, nil, errs.ErrInvalidDescriptor},
		{"Empty compound", []Descriptor{Compound{}}, nil, errs.ErrInvalidDescriptor},
		{"Empty complex compound", []Descriptor{ComplexCompound{}}, nil, errs.ErrInvalidDescriptor},
		{"Bit enum too wide", []Descriptor{BitEnum{ByteCount: 5}}, nil, errs.ErrInvalidDescriptor},
		{"Bit enum without bytes", []Descriptor{BitEnum{}}, nil, errs.ErrInvalidDescriptor},
		{"Supported mask too wide", []Descriptor{BitEnum{ByteCount: 1, Supported: 0x100}}, nil, errs.ErrInvalidDescriptor},
		{"String without capacity", []Descriptor{StringEnum{}}, nil, errs.ErrInvalidDescriptor},
		{"String too long", []Descriptor{StringEnum{MaxLength: 256}}, nil, errs.ErrInvalidDescriptor},
		{"Sample bits zero", []Descriptor{RTSA{MaxSamples: 1}}, nil, errs.ErrInvalidDescriptor},
		{"Sample bits too wide", []Descriptor{RTSA{SampleBits: 33, MaxSamples: 1}}, nil, errs.ErrInvalidDescriptor},
		{"No samples", []Descriptor{RTSA{SampleBits: 8}}, nil, errs.ErrInvalidDescriptor},
		{"RTSA attribute width", []Descriptor{RTSA{SampleBits: 8, MaxSamples: 1, Scale: mder.MustNew(0, 1, format.Float32)}}, nil, errs.ErrInvalidWidth},
		{"Invalid width", []Descriptor{Numeric{Width: format.FloatWidth(7)}}, nil, errs.ErrInvalidWidth},
		{"Negative capacity", []Descriptor{Numeric{Common: Common{Extras: Extras{MaxReferences: -1}}}}, nil, errs.ErrInvalidDescriptor},
		{"Capacity too large", []Descriptor{Numeric{Common: Common{Extras: Extras{MaxAVAs: 256}}}}, nil, errs.ErrInvalidDescriptor},
		{"Header capacity too large", []Descriptor{Numeric{}}, []Option{WithCommonReferences(300)}, errs.ErrInvalidDescriptor},
		{"Bad continuation", []Descriptor{Numeric{}}, []Option{WithContinuation(format.ContinuationState(4))}, errs.ErrInvalidHeaderFlags},
		{"Record too long", []Descriptor{RTSA{SampleBits: 32, MaxSamples: 20000}}, nil, errs.ErrInvalidDescriptor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(nil, tc.descs, tc.opts...)
			require.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("Too many measurements", func(t *testing.T) {
		descs := make([]Descriptor, 256)
		for i := range descs {
			descs[i] = CodedEnum{}
		}
		_, err := Compile(nil, descs)
		require.ErrorIs(t, err, errs.ErrInvalidDescriptor)
	})
}

func TestCompile_GroupIdentity(t *testing.T) {
	shape := []Descriptor{
		Numeric{Common: Common{Type: 0x4BB8, Unit: 0x17A0}},
		CodedEnum{Common: Common{Type: 0x1234}},
	}

	t.Run("Stable across instances, fresh measurement ids", func(t *testing.T) {
		ctx := newTestContext(t)
		a, err := Compile(ctx, shape, WithTimestamp())
		require.NoError(t, err)
		b, err := Compile(ctx, shape, WithTimestamp(), WithContinuation(format.StateOptimizedFirst))
		require.NoError(t, err)

		require.Equal(t, a.GroupID(), b.GroupID())
		require.Equal(t, a.Signature(), b.Signature())

		aID, err := a.MeasurementID(a.Measurement(0).ID)
		require.NoError(t, err)
		bID, err := b.MeasurementID(b.Measurement(0).ID)
		require.NoError(t, err)
		require.Equal(t, aID+2, bID)
	})

	t.Run("Different shapes differ", func(t *testing.T) {
		a, err := Compile(nil, shape)
		require.NoError(t, err)
		b, err := Compile(nil, shape[:1])
		require.NoError(t, err)
		c, err := Compile(nil, shape, WithPersonID(1))
		require.NoError(t, err)

		require.NotEqual(t, a.Signature(), b.Signature())
		require.NotEqual(t, a.Signature(), c.Signature())
		require.False(t, a.SameHeaderLayout(c))
		require.True(t, a.SameHeaderLayout(b))
	})

	t.Run("Collision with another shape", func(t *testing.T) {
		same, err := Compile(nil, shape)
		require.NoError(t, err)

		ctx := newTestContext(t, WithFirstMeasurementID(10))
		require.NoError(t, ctx.claimGroupID(same.GroupID(), "another shape"))

		_, err = Compile(ctx, shape)
		require.ErrorIs(t, err, errs.ErrGroupIDCollision)

		tpl, err := Compile(ctx, shape, WithGroupID(0x0042))
		require.NoError(t, err, "an explicit group id is not tracked")
		require.Equal(t, uint16(0x0042), tpl.GroupID())

		id, err := tpl.MeasurementID(tpl.Measurement(0).ID)
		require.NoError(t, err)
		require.Equal(t, uint16(10), id, "a failed compile takes no measurement ids")
	})
}

func TestTemplate_Renew(t *testing.T) {
	ctx := newTestContext(t, WithFirstMeasurementID(100))
	tpl, err := Compile(ctx, []Descriptor{Numeric{}, Numeric{}})
	require.NoError(t, err)

	groupID := tpl.GroupID()
	require.NoError(t, tpl.Renew())
	require.Equal(t, groupID, tpl.GroupID())

	first, err := tpl.MeasurementID(tpl.Measurement(0).ID)
	require.NoError(t, err)
	second, err := tpl.MeasurementID(tpl.Measurement(1).ID)
	require.NoError(t, err)
	require.Equal(t, uint16(102), first)
	require.Equal(t, uint16(103), second)
}
