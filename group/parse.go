package group

import (
	"fmt"
	"time"

	"github.com/arloliu/phdpack/endian"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/bitpack"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/measure"
	"github.com/arloliu/phdpack/section"
)

// Record is a decoded record.
//
// Common fields are meaningful only when the matching header flag is set. For
// OPTIMIZED_FOLLOWS records only Header and Body are filled.
type Record struct {
	Header section.RecordHeader

	Timestamp         time.Time
	PersonID          uint16
	Duration          mder.Value
	SupplementalTypes []uint32
	References        []uint16
	AVAs              []measure.AVA

	Measurements []Measurement

	// Body holds the change sets of an OPTIMIZED_FOLLOWS record.
	Body []byte
}

// State returns the continuation state of the record.
func (r *Record) State() format.ContinuationState {
	return r.Header.Flag.Continuation()
}

// Measurement is one decoded measurement. Which value fields are filled depends on
// its kind.
type Measurement struct {
	Type uint32
	Flag section.MeasurementFlag
	Unit uint16
	ID   uint16

	// Values holds the numeric value or the compound elements.
	Values []mder.Value
	// SubTypes holds the compound element sub-types.
	SubTypes []uint32
	// SubUnits holds the complex compound element units.
	SubUnits []uint16

	Code uint32

	ByteCount int
	State     uint32
	Supported uint32

	Text string

	Scale      mder.Value
	Offset     mder.Value
	Period     mder.Value
	SampleBits int
	MaxSamples int
	Samples    []uint32

	SupplementalTypes []uint32
	References        []uint16
	Duration          mder.Value
	AVAs              []measure.AVA
}

// Kind returns the measurement kind.
func (m *Measurement) Kind() format.MeasurementKind {
	return m.Flag.Kind()
}

// Parse decodes a record.
//
// NORMAL and OPTIMIZED_FIRST records are fully decoded. OPTIMIZED_FOLLOWS records keep
// their change sets in Body; apply them to baseline templates with Apply.
//
// Returns:
//   - *Record: The decoded record
//   - error: errs.ErrInvalidHeaderSize, errs.ErrInvalidHeaderFlags, errs.ErrInvalidLength,
//     errs.ErrTruncated, errs.ErrInvalidDescriptor or errs.ErrCapacityExceeded
func Parse(record []byte) (*Record, error) {
	hdr, err := section.ParseRecordHeader(record)
	if err != nil {
		return nil, err
	}

	if int(hdr.Length) != len(record) {
		return nil, fmt.Errorf("%w: header says %d, record has %d bytes", errs.ErrInvalidLength, hdr.Length, len(record))
	}

	rec := &Record{Header: hdr}
	switch hdr.Flag.Continuation() {
	case format.StateOptimizedFollows:
		rec.Body = record[section.RecordHeaderSize:]
		return rec, nil
	case format.StateRecordDone:
		return rec, nil
	}

	r := &reader{b: record, off: section.RecordHeaderSize, engine: hdr.Flag.GetEndianEngine()}
	r.common(rec, hdr.Flag)

	rec.Measurements = make([]Measurement, hdr.Count)
	for i := range rec.Measurements {
		if err := r.measurement(&rec.Measurements[i]); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(record) {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidLength, len(record)-r.off)
	}

	return rec, nil
}

// reader decodes a record front to back. The first error sticks.
type reader struct {
	b      []byte
	off    int
	engine endian.EndianEngine
	err    error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b)-r.off < n {
		r.fail(fmt.Errorf("%w: need %d bytes at offset %d", errs.ErrTruncated, n, r.off))
		return nil
	}

	s := r.b[r.off : r.off+n]
	r.off += n

	return s
}

func (r *reader) u8() uint8 {
	if s := r.take(1); s != nil {
		return s[0]
	}

	return 0
}

func (r *reader) u16() uint16 {
	if s := r.take(2); s != nil {
		return r.engine.Uint16(s)
	}

	return 0
}

func (r *reader) u32() uint32 {
	if s := r.take(4); s != nil {
		return r.engine.Uint32(s)
	}

	return 0
}

func (r *reader) word(width format.FloatWidth) mder.Value {
	s := r.take(width.Size())
	if s == nil {
		return mder.Value{}
	}

	v, err := mder.Read(r.engine, s, width)
	if err != nil {
		r.fail(err)
	}

	return v
}

func (r *reader) listHeader() (int, int) {
	maxItems, count := int(r.u8()), int(r.u8())
	if count > maxItems {
		r.fail(fmt.Errorf("%w: list holds %d of %d", errs.ErrCapacityExceeded, count, maxItems))
	}

	return maxItems, count
}

func (r *reader) supplementalTypes() []uint32 {
	maxItems, count := r.listHeader()
	out := make([]uint32, 0, count)
	for i := 0; i < maxItems; i++ {
		v := r.u32()
		if i < count {
			out = append(out, v)
		}
	}

	return out
}

func (r *reader) references() []uint16 {
	maxItems, count := r.listHeader()
	out := make([]uint16, 0, count)
	for i := 0; i < maxItems; i++ {
		v := r.u16()
		if i < count {
			out = append(out, v)
		}
	}

	return out
}

func (r *reader) avas() []measure.AVA {
	maxItems := int(r.u8())
	valueCap := int(r.u8())
	count := int(r.u8())
	if count > maxItems {
		r.fail(fmt.Errorf("%w: AVA list holds %d of %d", errs.ErrCapacityExceeded, count, maxItems))
	}

	out := make([]measure.AVA, 0, count)
	for i := 0; i < maxItems; i++ {
		id := r.u16()
		n := int(r.u8())
		value := r.take(valueCap)
		if n > valueCap {
			r.fail(fmt.Errorf("%w: AVA value of %d bytes in a %d byte slot", errs.ErrCapacityExceeded, n, valueCap))
		}
		if i < count && r.err == nil {
			out = append(out, measure.AVA{ID: id, Value: append([]byte(nil), value[:n]...)})
		}
	}

	return out
}

func (r *reader) common(rec *Record, flag section.HeaderFlag) {
	if flag.HasTimestamp() {
		if s := r.take(section.TimestampSize); s != nil {
			rec.Timestamp = time.UnixMilli(int64(r.engine.Uint64(s))) //nolint: gosec
		}
	}
	if flag.HasPersonID() {
		rec.PersonID = r.u16()
	}
	if flag.HasCommonDuration() {
		rec.Duration = r.word(format.Float32)
	}
	if flag.HasCommonSupplementalTypes() {
		rec.SupplementalTypes = r.supplementalTypes()
	}
	if flag.HasCommonReferences() {
		rec.References = r.references()
	}
	if flag.HasCommonAVAs() {
		rec.AVAs = r.avas()
	}
}

func (r *reader) measurement(m *Measurement) error {
	m.Type = r.u32()
	m.Flag = section.MeasurementFlag(r.u8())
	m.Unit = r.u16()
	m.ID = r.u16()
	if r.err != nil {
		return r.err
	}
	if err := m.Flag.Validate(); err != nil {
		return fmt.Errorf("%w: flags 0x%02X", err, uint8(m.Flag))
	}

	width := m.Flag.Width()
	switch m.Flag.Kind() {
	case format.KindNumeric:
		m.Values = []mder.Value{r.word(width)}
	case format.KindCompound:
		n := int(r.u8())
		m.SubTypes = make([]uint32, 0, n)
		m.Values = make([]mder.Value, 0, n)
		for i := 0; i < n; i++ {
			m.SubTypes = append(m.SubTypes, r.u32())
			m.Values = append(m.Values, r.word(width))
		}
	case format.KindComplexCompound:
		n := int(r.u8())
		m.SubTypes = make([]uint32, 0, n)
		m.SubUnits = make([]uint16, 0, n)
		m.Values = make([]mder.Value, 0, n)
		for i := 0; i < n; i++ {
			m.SubTypes = append(m.SubTypes, r.u32())
			m.SubUnits = append(m.SubUnits, r.u16())
			m.Values = append(m.Values, r.word(width))
		}
	case format.KindCodedEnum:
		m.Code = r.u32()
	case format.KindBitEnum:
		m.ByteCount = int(r.u8())
		if m.ByteCount < 1 || m.ByteCount > section.MaxBitEnumBytes {
			return fmt.Errorf("%w: bit enum of %d bytes", errs.ErrInvalidDescriptor, m.ByteCount)
		}
		if s := r.take(m.ByteCount); s != nil {
			m.State = readUintN(r.engine, s)
		}
		if s := r.take(m.ByteCount); s != nil {
			m.Supported = readUintN(r.engine, s)
		}
	case format.KindStringEnum:
		capacity := int(r.u8())
		n := int(r.u8())
		s := r.take(capacity)
		if n > capacity {
			return fmt.Errorf("%w: string of %d bytes in %d", errs.ErrCapacityExceeded, n, capacity)
		}
		if s != nil {
			m.Text = string(s[:n])
		}
	case format.KindRTSA:
		m.Scale = r.word(width)
		m.Offset = r.word(width)
		m.Period = r.word(width)
		m.SampleBits = int(r.u8())
		m.MaxSamples = int(r.u16())
		count := int(r.u16())
		if r.err == nil && (m.SampleBits < 1 || m.SampleBits > section.MaxSampleBits || count > m.MaxSamples) {
			return fmt.Errorf("%w: RTSA %d of %d samples at %d bits", errs.ErrInvalidDescriptor, count, m.MaxSamples, m.SampleBits)
		}
		if block := r.take(section.RTSABlockSize(m.SampleBits, m.MaxSamples)); block != nil {
			m.Samples = bitpack.AppendSamples(make([]uint32, 0, count), block, m.SampleBits, count)
		}
	}

	if m.Flag.HasSupplementalTypes() {
		m.SupplementalTypes = r.supplementalTypes()
	}
	if m.Flag.HasReferences() {
		m.References = r.references()
	}
	if m.Flag.HasDuration() {
		m.Duration = r.word(format.Float32)
	}
	if m.Flag.HasAVAs() {
		m.AVAs = r.avas()
	}

	return r.err
}

func readUintN(engine endian.EndianEngine, b []byte) uint32 {
	switch len(b) {
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
