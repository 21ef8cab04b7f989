package measure

import (
	"time"

	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/bitpack"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/section"
)

// Readers decode the current content of a field under the read lock.

// Numeric reads a numeric field.
func (t *Template) Numeric(f Field) (mder.Value, error) {
	e, err := t.lookup(f, format.FieldNumeric)
	if err != nil {
		return mder.Value{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return mder.Read(t.engine, t.window(e), e.Width)
}

// Compound reads every element of a compound or complex compound field.
func (t *Template) Compound(f Field) ([]mder.Value, error) {
	e, err := t.lookupCompound(f)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]mder.Value, e.Count)
	for i := range out {
		if out[i], err = mder.Read(t.engine, t.buf[e.Offset+i*e.Stride:], e.Width); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// CodedEnum reads a coded enum field.
func (t *Template) CodedEnum(f Field) (uint32, error) {
	e, err := t.lookup(f, format.FieldCodedEnum)
	if err != nil {
		return 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.engine.Uint32(t.window(e)), nil
}

// BitEnum reads the state and the static supported mask of a bit enum field.
func (t *Template) BitEnum(f Field) (state uint32, supported uint32, err error) {
	e, err := t.lookup(f, format.FieldBitEnum)
	if err != nil {
		return 0, 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	state = uintN(t.engine, t.buf[e.Offset:], e.Length)
	supported = uintN(t.engine, t.buf[e.Offset+e.Length:], e.Length)

	return state, supported, nil
}

// StringValue reads a string enum field.
func (t *Template) StringValue(f Field) (string, error) {
	e, err := t.lookup(f, format.FieldStringEnum)
	if err != nil {
		return "", err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	w := t.window(e)

	return string(w[1 : 1+int(w[0])]), nil
}

// Samples reads the samples of an RTSA field.
func (t *Template) Samples(f Field) ([]uint32, error) {
	return t.AppendSamples(nil, f)
}

// AppendSamples appends the samples of an RTSA field to dst.
func (t *Template) AppendSamples(dst []uint32, f Field) ([]uint32, error) {
	e, err := t.lookup(f, format.FieldRTSA)
	if err != nil {
		return dst, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	w := t.window(e)

	return bitpack.AppendSamples(dst, w[2:], e.Bits, int(t.engine.Uint16(w))), nil
}

// SupplementalTypes reads a supplemental type list.
func (t *Template) SupplementalTypes(f Field) ([]uint32, error) {
	e, err := t.lookup(f, format.FieldSupplementalTypes)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	w := t.window(e)
	out := make([]uint32, int(w[0]))
	for i := range out {
		out[i] = t.engine.Uint32(w[1+i*e.Stride:])
	}

	return out, nil
}

// References reads a reference list.
func (t *Template) References(f Field) ([]uint16, error) {
	e, err := t.lookup(f, format.FieldReferences)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	w := t.window(e)
	out := make([]uint16, int(w[0]))
	for i := range out {
		out[i] = t.engine.Uint16(w[1+i*e.Stride:])
	}

	return out, nil
}

// AVAs reads an AVA list. Values are copies.
func (t *Template) AVAs(f Field) ([]AVA, error) {
	e, err := t.lookup(f, format.FieldAVAs)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	w := t.window(e)
	out := make([]AVA, int(w[0]))
	for i := range out {
		slot := w[1+i*e.Stride:]
		n := int(slot[2])
		out[i] = AVA{
			ID:    t.engine.Uint16(slot),
			Value: append([]byte(nil), slot[section.AVAEntryHeaderSize:section.AVAEntryHeaderSize+n]...),
		}
	}

	return out, nil
}

// ListLen returns the populated count and the capacity of a supplemental type,
// reference or AVA list.
func (t *Template) ListLen(f Field) (count int, capacity int, err error) {
	e, err := t.lookup(f, f.kind)
	if err != nil {
		return 0, 0, err
	}

	switch e.Kind {
	case format.FieldSupplementalTypes, format.FieldReferences, format.FieldAVAs:
	default:
		_, err = t.lookup(f, format.FieldSupplementalTypes)
		return 0, 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return int(t.buf[e.Offset]), e.Count, nil
}

// Duration reads a duration field.
func (t *Template) Duration(f Field) (mder.Value, error) {
	e, err := t.lookup(f, format.FieldDuration)
	if err != nil {
		return mder.Value{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return mder.Read(t.engine, t.window(e), e.Width)
}

// MeasurementID reads a measurement id.
func (t *Template) MeasurementID(f Field) (uint16, error) {
	e, err := t.lookup(f, format.FieldMeasurementID)
	if err != nil {
		return 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.engine.Uint16(t.window(e)), nil
}

// PersonID reads the common person id.
func (t *Template) PersonID() (uint16, error) {
	e, err := t.lookup(t.header.PersonID, format.FieldPersonID)
	if err != nil {
		return 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.engine.Uint16(t.window(e)), nil
}

// Timestamp reads the common timestamp.
func (t *Template) Timestamp() (time.Time, error) {
	e, err := t.lookup(t.header.Timestamp, format.FieldTimestamp)
	if err != nil {
		return time.Time{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return time.UnixMilli(int64(t.engine.Uint64(t.window(e)))), nil //nolint: gosec
}
