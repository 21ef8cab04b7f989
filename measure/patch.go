package measure

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/bitpack"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/section"
)

// Every setter resolves its handle, validates the whole input, then writes inside
// the field window under the write lock. A failed call leaves the buffer unchanged.

func capacityExceeded(e *IndexEntry, want int) error {
	Logger().Debug("capacity exceeded",
		zap.Stringer("field", e.Kind),
		zap.Int("measurement", e.Measurement),
		zap.Int("capacity", e.Count),
		zap.Int("requested", want),
	)

	return fmt.Errorf("%w: %s holds %d, requested %d", errs.ErrCapacityExceeded, e.Kind, e.Count, want)
}

func checkWidth(e *IndexEntry, v mder.Value) error {
	if v.Width != e.Width {
		return fmt.Errorf("%w: %s value for %s field", errs.ErrTypeMismatch, v.Width, e.Width)
	}
	if _, err := v.Encode(); err != nil {
		return err
	}

	return nil
}

// SetNumeric writes v into a numeric field. v must have the field's width.
func (t *Template) SetNumeric(f Field, v mder.Value) error {
	e, err := t.lookup(f, format.FieldNumeric)
	if err != nil {
		return err
	}
	if err := checkWidth(e, v); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_ = mder.Put(t.engine, t.window(e), v)
	t.markChanged(f.index)

	return nil
}

// SetFloat converts x with the given number of decimals (see mder.FromFloat) and
// writes it into a numeric field.
func (t *Template) SetFloat(f Field, x float64, decimals int) error {
	e, err := t.lookup(f, format.FieldNumeric)
	if err != nil {
		return err
	}

	return t.SetNumeric(f, mder.FromFloat(x, decimals, e.Width))
}

// SetCompound writes one value per element, in declaration order, into a compound or
// complex compound field. The static sub-type codes and units are not touched.
func (t *Template) SetCompound(f Field, values ...mder.Value) error {
	e, err := t.lookupCompound(f)
	if err != nil {
		return err
	}

	if len(values) != e.Count {
		return fmt.Errorf("%w: %d values for %d elements", errs.ErrTypeMismatch, len(values), e.Count)
	}
	for _, v := range values {
		if err := checkWidth(e, v); err != nil {
			return err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, v := range values {
		_ = mder.Put(t.engine, t.buf[e.Offset+i*e.Stride:], v)
	}
	t.markChanged(f.index)

	return nil
}

// SetCodedEnum writes code into a coded enum field.
func (t *Template) SetCodedEnum(f Field, code uint32) error {
	e, err := t.lookup(f, format.FieldCodedEnum)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.engine.PutUint32(t.window(e), code)
	t.markChanged(f.index)

	return nil
}

// SetBitEnum replaces the state bits of a bit enum field. The supported mask is static.
//
// Returns:
//   - error: errs.ErrOutOfRange if state has bits above the field width
func (t *Template) SetBitEnum(f Field, state uint32) error {
	e, err := t.lookup(f, format.FieldBitEnum)
	if err != nil {
		return err
	}

	if e.Bits < 32 && state>>uint(e.Bits) != 0 {
		return fmt.Errorf("%w: state 0x%X wider than %d bits", errs.ErrOutOfRange, state, e.Bits)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	putUintN(t.engine, t.window(e), state, e.Length)
	t.markChanged(f.index)

	return nil
}

// SetString writes s into a string enum field, zero padding the reserved capacity.
func (t *Template) SetString(f Field, s string) error {
	e, err := t.lookup(f, format.FieldStringEnum)
	if err != nil {
		return err
	}

	if len(s) > e.Count {
		return capacityExceeded(e, len(s))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	w[0] = uint8(len(s)) //nolint: gosec
	n := copy(w[1:], s)
	clear(w[1+n:])
	t.markChanged(f.index)

	return nil
}

// SetSamples replaces the samples of an RTSA field. Sample i is packed at bit
// i × sampleBits from the block start; bits after the last sample are zeroed.
//
// Returns:
//   - error: errs.ErrCapacityExceeded for more samples than reserved, errs.ErrOutOfRange
//     for a sample wider than the sample size
func (t *Template) SetSamples(f Field, samples []uint32) error {
	e, err := t.lookup(f, format.FieldRTSA)
	if err != nil {
		return err
	}

	if len(samples) > e.Count {
		return capacityExceeded(e, len(samples))
	}
	for i, s := range samples {
		if !bitpack.Fits(s, e.Bits) {
			return fmt.Errorf("%w: sample %d value %d wider than %d bits", errs.ErrOutOfRange, i, s, e.Bits)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	t.engine.PutUint16(w, uint16(len(samples))) //nolint: gosec
	bitpack.PutSamples(w[2:], e.Bits, samples)
	t.markChanged(f.index)

	return nil
}

// SetSupplementalTypes replaces the content of a supplemental type list.
func (t *Template) SetSupplementalTypes(f Field, types ...uint32) error {
	e, err := t.lookup(f, format.FieldSupplementalTypes)
	if err != nil {
		return err
	}

	if len(types) > e.Count {
		return capacityExceeded(e, len(types))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	w[0] = uint8(len(types)) //nolint: gosec
	for i, typ := range types {
		t.engine.PutUint32(w[1+i*e.Stride:], typ)
	}
	clear(w[1+len(types)*e.Stride:])
	t.markChanged(f.index)

	return nil
}

// AddSupplementalType appends typ to a supplemental type list.
func (t *Template) AddSupplementalType(f Field, typ uint32) error {
	e, err := t.lookup(f, format.FieldSupplementalTypes)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	n := int(w[0])
	if n >= e.Count {
		return capacityExceeded(e, n+1)
	}

	t.engine.PutUint32(w[1+n*e.Stride:], typ)
	w[0]++
	t.markChanged(f.index)

	return nil
}

// SetReferences replaces the content of a reference list.
func (t *Template) SetReferences(f Field, ids ...uint16) error {
	e, err := t.lookup(f, format.FieldReferences)
	if err != nil {
		return err
	}

	if len(ids) > e.Count {
		return capacityExceeded(e, len(ids))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	w[0] = uint8(len(ids)) //nolint: gosec
	for i, id := range ids {
		t.engine.PutUint16(w[1+i*e.Stride:], id)
	}
	clear(w[1+len(ids)*e.Stride:])
	t.markChanged(f.index)

	return nil
}

// AddReference appends id to a reference list.
func (t *Template) AddReference(f Field, id uint16) error {
	e, err := t.lookup(f, format.FieldReferences)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	n := int(w[0])
	if n >= e.Count {
		return capacityExceeded(e, n+1)
	}

	t.engine.PutUint16(w[1+n*e.Stride:], id)
	w[0]++
	t.markChanged(f.index)

	return nil
}

func checkAVA(e *IndexEntry, a AVA) error {
	if valueCap := e.Stride - section.AVAEntryHeaderSize; len(a.Value) > valueCap {
		return fmt.Errorf("%w: AVA 0x%04X value of %d bytes, slot holds %d", errs.ErrCapacityExceeded, a.ID, len(a.Value), valueCap)
	}

	return nil
}

func (t *Template) putAVA(e *IndexEntry, slot []byte, a AVA) {
	t.engine.PutUint16(slot, a.ID)
	slot[2] = uint8(len(a.Value)) //nolint: gosec
	n := copy(slot[section.AVAEntryHeaderSize:e.Stride], a.Value)
	clear(slot[section.AVAEntryHeaderSize+n : e.Stride])
}

// SetAVAs replaces the content of an AVA list.
func (t *Template) SetAVAs(f Field, avas ...AVA) error {
	e, err := t.lookup(f, format.FieldAVAs)
	if err != nil {
		return err
	}

	if len(avas) > e.Count {
		return capacityExceeded(e, len(avas))
	}
	for _, a := range avas {
		if err := checkAVA(e, a); err != nil {
			return err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	w[0] = uint8(len(avas)) //nolint: gosec
	for i, a := range avas {
		t.putAVA(e, w[1+i*e.Stride:], a)
	}
	clear(w[1+len(avas)*e.Stride:])
	t.markChanged(f.index)

	return nil
}

// AddAVA appends a to an AVA list.
func (t *Template) AddAVA(f Field, a AVA) error {
	e, err := t.lookup(f, format.FieldAVAs)
	if err != nil {
		return err
	}
	if err := checkAVA(e, a); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window(e)
	n := int(w[0])
	if n >= e.Count {
		return capacityExceeded(e, n+1)
	}

	t.putAVA(e, w[1+n*e.Stride:], a)
	w[0]++
	t.markChanged(f.index)

	return nil
}

// ClearList empties a supplemental type, reference or AVA list.
func (t *Template) ClearList(f Field) error {
	var (
		e   *IndexEntry
		err error
	)
	switch f.kind {
	case format.FieldReferences:
		e, err = t.lookup(f, format.FieldReferences)
	case format.FieldAVAs:
		e, err = t.lookup(f, format.FieldAVAs)
	default:
		e, err = t.lookup(f, format.FieldSupplementalTypes)
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.window(e))
	t.markChanged(f.index)

	return nil
}

// SetDuration writes a FLOAT32 duration in seconds into a measurement or common
// duration field.
func (t *Template) SetDuration(f Field, v mder.Value) error {
	e, err := t.lookup(f, format.FieldDuration)
	if err != nil {
		return err
	}
	if err := checkWidth(e, v); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_ = mder.Put(t.engine, t.window(e), v)
	t.markChanged(f.index)

	return nil
}

// SetMeasurementID writes the measurement instance id.
func (t *Template) SetMeasurementID(f Field, id uint16) error {
	e, err := t.lookup(f, format.FieldMeasurementID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.engine.PutUint16(t.window(e), id)
	t.markChanged(f.index)

	return nil
}

// SetPersonID writes the common person id.
func (t *Template) SetPersonID(id uint16) error {
	f := t.header.PersonID
	e, err := t.lookup(f, format.FieldPersonID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.engine.PutUint16(t.window(e), id)
	t.markChanged(f.index)

	return nil
}

// SetTimestamp writes the common timestamp with millisecond resolution.
func (t *Template) SetTimestamp(ts time.Time) error {
	f := t.header.Timestamp
	e, err := t.lookup(f, format.FieldTimestamp)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.putTimestamp(f, e, ts.UnixMilli())

	return nil
}

// ApplyTimeDelta shifts the common timestamp by d after the device time base was
// reset. The field is re-patched like any other timestamp write.
func (t *Template) ApplyTimeDelta(d time.Duration) error {
	f := t.header.Timestamp
	e, err := t.lookup(f, format.FieldTimestamp)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ms := int64(t.engine.Uint64(t.window(e))) //nolint: gosec
	t.putTimestamp(f, e, ms+d.Milliseconds())

	return nil
}

func (t *Template) putTimestamp(f Field, e *IndexEntry, ms int64) {
	t.engine.PutUint64(t.window(e), uint64(ms)) //nolint: gosec
	t.markChanged(f.index)
}
