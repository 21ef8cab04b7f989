package measure

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/arloliu/phdpack/endian"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/hash"
	"github.com/arloliu/phdpack/internal/options"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/section"
)

// Compile lays out a record for descs once and returns the template with the index of
// every mutable field.
//
// Numeric and compound values start as NaN, durations as NaN FLOAT32, lists empty and
// strings and sample blocks zeroed. Every measurement gets a fresh id from ctx. A nil
// ctx uses a new Context.
//
// Parameters:
//   - ctx: Protocol state shared by the device's templates
//   - descs: Measurements in record order (1..255)
//   - opts: Header options
//
// Returns:
//   - *Template: The compiled template
//   - error: errs.ErrInvalidDescriptor, errs.ErrInvalidWidth or errs.ErrGroupIDCollision
func Compile(ctx *Context, descs []Descriptor, opts ...Option) (*Template, error) {
	if ctx == nil {
		var err error
		if ctx, err = NewContext(); err != nil {
			return nil, err
		}
	}

	if len(descs) == 0 || len(descs) > section.MaxMeasurementCount {
		return nil, fmt.Errorf("%w: %d measurements, want 1..%d", errs.ErrInvalidDescriptor, len(descs), section.MaxMeasurementCount)
	}

	cfg := &headerConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	total := section.RecordHeaderSize + cfg.commonSize()
	for i, d := range descs {
		if d == nil {
			return nil, invalidf(i, "nil descriptor")
		}
		if err := d.base().Extras.validate(i); err != nil {
			return nil, err
		}
		size, err := valueSize(i, d)
		if err != nil {
			return nil, err
		}
		total += section.MeasurementFixedSize + size + d.base().Extras.size()
	}

	if total > section.MaxRecordLength {
		return nil, fmt.Errorf("%w: record length %d exceeds %d", errs.ErrInvalidDescriptor, total, section.MaxRecordLength)
	}

	t := &Template{
		ctx:          ctx,
		buf:          make([]byte, total),
		engine:       endian.ForBigEndian(cfg.bigEndian),
		flag:         cfg.flag(),
		entries:      make([]IndexEntry, 0, 8+4*len(descs)),
		measurements: make([]MeasurementFields, len(descs)),
	}

	c := &compiler{t: t, off: section.RecordHeaderSize}
	c.sig = append(c.sig, "h:"...)
	c.sig = strconv.AppendUint(c.sig, uint64(t.flag.Layout()), 16)

	c.common(cfg)
	t.headerEntries = len(t.entries)
	t.commonEnd = c.off
	t.headerLayout = string(c.sig)

	for i, d := range descs {
		c.measurement(i, d)
	}

	if c.off != total {
		panic(fmt.Sprintf("measure: layout wrote %d bytes, sized %d", c.off, total))
	}

	t.signature = string(c.sig)
	t.groupID = cfg.groupID
	if t.groupID == 0 {
		t.groupID = hash.GroupID(c.sig)
		if err := ctx.claimGroupID(t.groupID, t.signature); err != nil {
			Logger().Debug("group id collision", zap.Uint16("group_id", t.groupID))
			return nil, err
		}
	}

	// ids are taken only once the group id is claimed
	for _, m := range t.measurements {
		t.engine.PutUint16(t.buf[t.entries[m.ID.index].Offset:], ctx.NextMeasurementID())
	}

	hdr := section.RecordHeader{
		Flag:    t.flag,
		Length:  uint16(total), //nolint: gosec
		GroupID: t.groupID,
		Count:   uint8(len(descs)), //nolint: gosec
	}
	hdr.WriteToSlice(t.buf, 0)

	t.changed = make([]uint64, (len(t.entries)+63)/64)

	Logger().Debug("template compiled",
		zap.Int("measurements", len(descs)),
		zap.Int("length", total),
		zap.Int("entries", len(t.entries)),
		zap.Uint16("group_id", t.groupID),
	)

	return t, nil
}

// compiler walks the descriptors once with a running cursor.
type compiler struct {
	t   *Template
	off int
	sig []byte
}

func (c *compiler) entry(e IndexEntry) Field {
	c.t.entries = append(c.t.entries, e)
	return Field{t: c.t, index: len(c.t.entries) - 1, kind: e.Kind}
}

func (c *compiler) sigUint(v uint64) {
	c.sig = append(c.sig, ':')
	c.sig = strconv.AppendUint(c.sig, v, 16)
}

func (c *compiler) u8(v uint8) {
	c.t.buf[c.off] = v
	c.off++
}

func (c *compiler) u16(v uint16) {
	c.t.engine.PutUint16(c.t.buf[c.off:], v)
	c.off += 2
}

func (c *compiler) u32(v uint32) {
	c.t.engine.PutUint32(c.t.buf[c.off:], v)
	c.off += 4
}

func (c *compiler) word(v mder.Value) {
	// Static values were validated by valueSize; sentinels always encode.
	if err := mder.Put(c.t.engine, c.t.buf[c.off:], v); err != nil {
		panic(fmt.Sprintf("measure: encode static value: %v", err))
	}
	c.off += v.Size()
}

func (c *compiler) common(cfg *headerConfig) {
	h := &c.t.header
	if cfg.timestamp {
		h.Timestamp = c.entry(IndexEntry{Kind: format.FieldTimestamp, Offset: c.off, Length: section.TimestampSize, Measurement: -1})
		c.t.engine.PutUint64(c.t.buf[c.off:], uint64(c.t.ctx.Now().UnixMilli())) //nolint: gosec
		c.off += section.TimestampSize
	}

	if cfg.personID {
		h.PersonID = c.entry(IndexEntry{Kind: format.FieldPersonID, Offset: c.off, Length: section.PersonIDSize, Measurement: -1})
		c.u16(cfg.personIDValue)
	}

	if cfg.duration {
		h.Duration = c.duration(-1)
	}

	if cfg.maxSuppTypes > 0 {
		h.SupplementalTypes = c.list(format.FieldSupplementalTypes, cfg.maxSuppTypes, section.SupplementalTypeSize, -1)
		c.sigUint(uint64(cfg.maxSuppTypes))
	}

	if cfg.maxRefs > 0 {
		h.References = c.list(format.FieldReferences, cfg.maxRefs, section.ReferenceSize, -1)
		c.sigUint(uint64(cfg.maxRefs))
	}

	if cfg.maxAVAs > 0 {
		h.AVAs = c.avas(cfg.maxAVAs, cfg.avaValueCap, -1)
		c.sigUint(uint64(cfg.maxAVAs))
		c.sigUint(uint64(cfg.avaValueCap))
	}
}

func (c *compiler) duration(msmt int) Field {
	f := c.entry(IndexEntry{
		Kind:        format.FieldDuration,
		Width:       format.Float32,
		Offset:      c.off,
		Length:      section.DurationSize,
		Count:       1,
		Stride:      section.DurationSize,
		Measurement: msmt,
	})
	c.word(mder.NaN(format.Float32))

	return f
}

// list reserves "max u8, count u8, max × slot" and indexes the count and the slots.
func (c *compiler) list(kind format.FieldKind, maxItems, slot, msmt int) Field {
	c.u8(uint8(maxItems)) //nolint: gosec
	f := c.entry(IndexEntry{
		Kind:        kind,
		Offset:      c.off,
		Length:      1 + maxItems*slot,
		Count:       maxItems,
		Stride:      slot,
		Measurement: msmt,
	})
	c.off += 1 + maxItems*slot

	return f
}

// avas reserves "max u8, valueCap u8, count u8, max × (id u16, len u8, valueCap bytes)".
func (c *compiler) avas(maxItems, valueCap, msmt int) Field {
	c.u8(uint8(maxItems)) //nolint: gosec
	c.u8(uint8(valueCap)) //nolint: gosec
	slot := section.AVAEntrySize(valueCap)
	f := c.entry(IndexEntry{
		Kind:        format.FieldAVAs,
		Offset:      c.off,
		Length:      1 + maxItems*slot,
		Count:       maxItems,
		Stride:      slot,
		Measurement: msmt,
	})
	c.off += 1 + maxItems*slot

	return f
}

func (c *compiler) measurement(i int, d Descriptor) {
	base := d.base()
	width := valueWidth(d)
	flag := section.NewMeasurementFlag(d.Kind(), width).With(base.Extras.flags())

	m := &c.t.measurements[i]
	m.Kind = d.Kind()
	m.Offset = c.off

	c.sig = append(c.sig, "|m"...)
	c.sigUint(uint64(base.Type))
	c.sigUint(uint64(flag))
	c.sigUint(uint64(base.Unit))

	c.u32(base.Type)
	c.u8(uint8(flag))
	c.u16(base.Unit)
	m.ID = c.entry(IndexEntry{Kind: format.FieldMeasurementID, Offset: c.off, Length: 2, Measurement: i})
	c.off += 2

	m.Value = c.value(i, d, width)

	ex := base.Extras
	if ex.MaxSupplementalTypes > 0 {
		m.SupplementalTypes = c.list(format.FieldSupplementalTypes, ex.MaxSupplementalTypes, section.SupplementalTypeSize, i)
		c.sigUint(uint64(ex.MaxSupplementalTypes))
	}
	if ex.MaxReferences > 0 {
		m.References = c.list(format.FieldReferences, ex.MaxReferences, section.ReferenceSize, i)
		c.sigUint(uint64(ex.MaxReferences))
	}
	if ex.Duration {
		m.Duration = c.duration(i)
	}
	if ex.MaxAVAs > 0 {
		m.AVAs = c.avas(ex.MaxAVAs, ex.AVAValueCap, i)
		c.sigUint(uint64(ex.MaxAVAs))
		c.sigUint(uint64(ex.AVAValueCap))
	}
}

func (c *compiler) value(i int, d Descriptor, width format.FloatWidth) Field {
	size := width.Size()

	switch v := d.(type) {
	case Numeric:
		f := c.entry(IndexEntry{Kind: format.FieldNumeric, Width: width, Offset: c.off, Length: size, Count: 1, Stride: size, Measurement: i})
		c.word(mder.NaN(width))

		return f

	case Compound:
		n := len(v.SubTypes)
		stride := section.SubTypeSize + size
		c.u8(uint8(n)) //nolint: gosec
		f := c.entry(IndexEntry{
			Kind:        format.FieldCompound,
			Width:       width,
			Offset:      c.off + section.SubTypeSize,
			Length:      (n-1)*stride + size,
			Count:       n,
			Stride:      stride,
			Measurement: i,
		})
		for _, st := range v.SubTypes {
			c.sigUint(uint64(st))
			c.u32(st)
			c.word(mder.NaN(width))
		}

		return f

	case ComplexCompound:
		n := len(v.Elements)
		stride := section.ComplexSubHeaderSize + size
		c.u8(uint8(n)) //nolint: gosec
		f := c.entry(IndexEntry{
			Kind:        format.FieldComplexCompound,
			Width:       width,
			Offset:      c.off + section.ComplexSubHeaderSize,
			Length:      (n-1)*stride + size,
			Count:       n,
			Stride:      stride,
			Measurement: i,
		})
		for _, el := range v.Elements {
			c.sigUint(uint64(el.Type))
			c.sigUint(uint64(el.Unit))
			c.u32(el.Type)
			c.u16(el.Unit)
			c.word(mder.NaN(width))
		}

		return f

	case CodedEnum:
		f := c.entry(IndexEntry{Kind: format.FieldCodedEnum, Offset: c.off, Length: section.CodedEnumSize, Measurement: i})
		c.off += section.CodedEnumSize

		return f

	case BitEnum:
		c.u8(uint8(v.ByteCount)) //nolint: gosec
		f := c.entry(IndexEntry{Kind: format.FieldBitEnum, Offset: c.off, Length: v.ByteCount, Bits: 8 * v.ByteCount, Measurement: i})
		c.off += v.ByteCount
		putUintN(c.t.engine, c.t.buf[c.off:], v.Supported, v.ByteCount)
		c.off += v.ByteCount
		c.sigUint(uint64(v.ByteCount))
		c.sigUint(uint64(v.Supported))

		return f

	case StringEnum:
		c.u8(uint8(v.MaxLength)) //nolint: gosec
		f := c.entry(IndexEntry{Kind: format.FieldStringEnum, Offset: c.off, Length: 1 + v.MaxLength, Count: v.MaxLength, Measurement: i})
		c.off += 1 + v.MaxLength
		c.sigUint(uint64(v.MaxLength))

		return f

	case RTSA:
		for _, attr := range []struct {
			v   mder.Value
			def mder.Value
		}{
			{v.Scale, mder.MustNew(0, 1, width)},
			{v.Offset, mder.MustNew(0, 0, width)},
			{v.Period, mder.NaN(width)},
		} {
			w := attr.v
			if w.Width == 0 {
				w = attr.def
			}
			raw, _ := w.Encode()
			c.sigUint(uint64(raw))
			c.word(w)
		}
		c.u8(uint8(v.SampleBits))   //nolint: gosec
		c.u16(uint16(v.MaxSamples)) //nolint: gosec
		block := section.RTSABlockSize(v.SampleBits, v.MaxSamples)
		f := c.entry(IndexEntry{
			Kind:        format.FieldRTSA,
			Width:       width,
			Offset:      c.off,
			Length:      2 + block,
			Count:       v.MaxSamples,
			Bits:        v.SampleBits,
			Measurement: i,
		})
		c.off += 2 + block
		c.sigUint(uint64(v.SampleBits))
		c.sigUint(uint64(v.MaxSamples))

		return f
	}

	panic(fmt.Sprintf("measure: unhandled descriptor %T", d))
}

// putUintN writes the low n bytes (1..4) of v.
func putUintN(engine endian.EndianEngine, b []byte, v uint32, n int) {
	switch n {
	case 1:
		b[0] = uint8(v) //nolint: gosec
	case 2:
		engine.PutUint16(b, uint16(v)) //nolint: gosec
	case 3:
		endian.PutUint24(engine, b, v)
	default:
		engine.PutUint32(b, v)
	}
}

// uintN reads n bytes (1..4) as an unsigned integer.
func uintN(engine endian.EndianEngine, b []byte, n int) uint32 {
	switch n {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(engine.Uint16(b))
	case 3:
		return endian.Uint24(engine, b)
	default:
		return engine.Uint32(b)
	}
}
