package measure

import (
	"fmt"
	"io"
	"math/bits"
	"sync"

	"github.com/arloliu/phdpack/endian"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/section"
)

// Template is a compiled measurement group: a fixed-length record buffer plus the
// index of every mutable field in it.
//
// The buffer holds a complete record (fixed header, common region, measurements), so
// a single template can be transmitted as is. Its length never changes after Compile.
//
// A Template is safe for concurrent use: patches take a write lock and transport
// reads (View, WriteTo, Bytes) take a read lock, so a reader never observes a
// partially written field.
type Template struct {
	mu sync.RWMutex

	ctx     *Context
	buf     []byte
	engine  endian.EndianEngine
	flag    section.HeaderFlag
	entries []IndexEntry
	changed []uint64

	header        HeaderFields
	measurements  []MeasurementFields
	headerEntries int
	commonEnd     int

	headerLayout string
	signature    string
	groupID      uint16
}

// Len returns the record length in bytes.
func (t *Template) Len() int {
	return len(t.buf)
}

// GroupID returns the group id written into the template header.
func (t *Template) GroupID() uint16 {
	return t.groupID
}

// Signature returns the canonical shape signature the group id is derived from.
func (t *Template) Signature() string {
	return t.signature
}

// Flag returns the header flags written into the template header.
func (t *Template) Flag() section.HeaderFlag {
	return t.flag
}

// Engine returns the byte order of the record body.
func (t *Template) Engine() endian.EndianEngine {
	return t.engine
}

// Context returns the context the template was compiled with.
func (t *Template) Context() *Context {
	return t.ctx
}

// SameHeaderLayout reports whether t and other lay out the fixed header and the
// common region identically, so they can share one record header.
func (t *Template) SameHeaderLayout(other *Template) bool {
	return other != nil && t.headerLayout == other.headerLayout
}

// MeasurementCount returns the number of measurements in the template.
func (t *Template) MeasurementCount() int {
	return len(t.measurements)
}

// Measurement returns the field handles of measurement i, or zero handles when i is
// out of range.
func (t *Template) Measurement(i int) MeasurementFields {
	if i < 0 || i >= len(t.measurements) {
		return MeasurementFields{}
	}

	return t.measurements[i]
}

// Header returns the field handles of the common region.
func (t *Template) Header() HeaderFields {
	return t.header
}

// Entries returns a copy of the index.
func (t *Template) Entries() []IndexEntry {
	out := make([]IndexEntry, len(t.entries))
	copy(out, t.entries)

	return out
}

// HeaderEntryCount returns the number of index entries that belong to the common
// region. They come first in the index.
func (t *Template) HeaderEntryCount() int {
	return t.headerEntries
}

// Entry returns the index entry of f.
func (t *Template) Entry(f Field) (IndexEntry, error) {
	if f.t != t || f.index < 0 || f.index >= len(t.entries) {
		return IndexEntry{}, errs.ErrInvalidField
	}

	return t.entries[f.index], nil
}

// View calls fn with the record buffer while holding the read lock. fn must not
// modify or retain the slice.
func (t *Template) View(fn func(record []byte) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return fn(t.buf)
}

// WriteTo writes the record to w while holding the read lock.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, err := w.Write(t.buf)

	return int64(n), err
}

// Bytes returns a copy of the record.
func (t *Template) Bytes() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]byte, len(t.buf))
	copy(out, t.buf)

	return out
}

// AppendCommon appends the common region (without the fixed header) to dst.
func (t *Template) AppendCommon(dst []byte) []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append(dst, t.buf[section.RecordHeaderSize:t.commonEnd]...)
}

// AppendMeasurements appends the measurement region to dst.
func (t *Template) AppendMeasurements(dst []byte) []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append(dst, t.buf[t.commonEnd:]...)
}

// AppendBaseline appends the common region (when withCommon is set) and the
// measurement region to dst and clears every change mark, atomically with respect
// to patches.
func (t *Template) AppendBaseline(dst []byte, withCommon bool) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if withCommon {
		dst = append(dst, t.buf[section.RecordHeaderSize:t.commonEnd]...)
	}
	dst = append(dst, t.buf[t.commonEnd:]...)
	clear(t.changed)

	return dst
}

// Load overwrites the common region and the measurement region with bytes received
// from a peer template of the same shape. A nil common leaves the common region
// untouched.
//
// The count and length bytes inside every indexed window are checked against the
// reserved capacities before anything is copied.
//
// Returns:
//   - error: errs.ErrInvalidLength if a region does not match the template size or a
//     window declares more content than its capacity
func (t *Template) Load(common, measurements []byte) error {
	if common != nil && len(common) != t.CommonSize() {
		return fmt.Errorf("%w: common region of %d bytes, template has %d", errs.ErrInvalidLength, len(common), t.CommonSize())
	}
	if len(measurements) != t.MeasurementsSize() {
		return fmt.Errorf("%w: measurement region of %d bytes, template has %d", errs.ErrInvalidLength, len(measurements), t.MeasurementsSize())
	}

	for i := range t.entries {
		e := &t.entries[i]
		var w []byte
		switch {
		case !e.IsHeader():
			w = measurements[e.Offset-t.commonEnd:][:e.Length]
		case common != nil:
			w = common[e.Offset-section.RecordHeaderSize:][:e.Length]
		default:
			continue
		}
		if err := checkWindow(e, w, t.engine); err != nil {
			return fmt.Errorf("%w: entry %d: %w", errs.ErrInvalidLength, i, err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if common != nil {
		copy(t.buf[section.RecordHeaderSize:t.commonEnd], common)
	}
	copy(t.buf[t.commonEnd:], measurements)

	return nil
}

// CommonSize returns the size of the common region.
func (t *Template) CommonSize() int {
	return t.commonEnd - section.RecordHeaderSize
}

// MeasurementsSize returns the size of the measurement region.
func (t *Template) MeasurementsSize() int {
	return len(t.buf) - t.commonEnd
}

// Renew assigns a fresh measurement id from the context to every measurement, for a
// new instance of the same shape. The group id does not change.
func (t *Template) Renew() error {
	for _, m := range t.measurements {
		if err := t.SetMeasurementID(m.ID, t.ctx.NextMeasurementID()); err != nil {
			return err
		}
	}

	return nil
}

// Changed reports whether entry i was patched since the marks were last cleared.
func (t *Template) Changed(i int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.isChanged(i)
}

// ChangedCount returns the number of entries patched since the marks were last cleared.
func (t *Template) ChangedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, w := range t.changed {
		n += bits.OnesCount64(w)
	}

	return n
}

// ClearChanges clears every change mark.
func (t *Template) ClearChanges() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.changed)
}

// MarkAllChanged marks every entry as changed.
func (t *Template) MarkAllChanged() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		t.markChanged(i)
	}
}

func (t *Template) isChanged(i int) bool {
	return t.changed[i>>6]&(1<<(uint(i)&63)) != 0
}

func (t *Template) markChanged(i int) {
	t.changed[i>>6] |= 1 << (uint(i) & 63)
}

// AppendChanges appends a change set to dst and clears every change mark.
//
// The change set starts with a bitmap of ceil(n/8) bytes, bit i (LSB first) set when
// entry i changed, followed by the windows of the changed entries in index order.
// With includeHeader the bitmap covers the whole index, otherwise only the
// measurement entries.
func (t *Template) AppendChanges(dst []byte, includeHeader bool) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	first := t.changeBase(includeHeader)
	n := len(t.entries) - first
	start := len(dst)
	for i := 0; i < (n+7)/8; i++ {
		dst = append(dst, 0)
	}

	for i := 0; i < n; i++ {
		if !t.isChanged(first + i) {
			continue
		}
		dst[start+i>>3] |= 1 << (uint(i) & 7)
		e := &t.entries[first+i]
		dst = append(dst, t.buf[e.Offset:e.Offset+e.Length]...)
	}

	clear(t.changed)

	return dst
}

// ApplyChanges applies a change set produced by AppendChanges on a template of the
// same shape and returns the number of bytes consumed. The buffer is left unchanged
// when the change set is malformed.
//
// Returns:
//   - int: bytes of body consumed
//   - error: errs.ErrInvalidChangeSet if the body is truncated, has stray bitmap bits or
//     a window declares more content than its capacity
func (t *Template) ApplyChanges(body []byte, includeHeader bool) (int, error) {
	first := t.changeBase(includeHeader)
	n := len(t.entries) - first
	bitmapLen := (n + 7) / 8
	if len(body) < bitmapLen {
		return 0, fmt.Errorf("%w: bitmap needs %d bytes, have %d", errs.ErrInvalidChangeSet, bitmapLen, len(body))
	}

	if n&7 != 0 && body[bitmapLen-1]>>(uint(n)&7) != 0 {
		return 0, fmt.Errorf("%w: bits set past entry %d", errs.ErrInvalidChangeSet, n)
	}

	need := bitmapLen
	for i := 0; i < n; i++ {
		if body[i>>3]&(1<<(uint(i)&7)) != 0 {
			need += t.entries[first+i].Length
		}
	}

	if len(body) < need {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrInvalidChangeSet, need, len(body))
	}

	pos := bitmapLen
	for i := 0; i < n; i++ {
		if body[i>>3]&(1<<(uint(i)&7)) == 0 {
			continue
		}
		e := &t.entries[first+i]
		if err := checkWindow(e, body[pos:pos+e.Length], t.engine); err != nil {
			return 0, fmt.Errorf("%w: entry %d: %w", errs.ErrInvalidChangeSet, first+i, err)
		}
		pos += e.Length
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	pos = bitmapLen
	for i := 0; i < n; i++ {
		if body[i>>3]&(1<<(uint(i)&7)) == 0 {
			continue
		}
		e := &t.entries[first+i]
		pos += copy(t.buf[e.Offset:e.Offset+e.Length], body[pos:pos+e.Length])
	}

	return need, nil
}

func (t *Template) changeBase(includeHeader bool) int {
	if includeHeader {
		return 0
	}

	return t.headerEntries
}

// lookup resolves f to its entry and checks its kind.
func (t *Template) lookup(f Field, want format.FieldKind) (*IndexEntry, error) {
	if f.t != t || f.index < 0 || f.index >= len(t.entries) || t.entries[f.index].Kind != f.kind {
		return nil, errs.ErrInvalidField
	}

	if f.kind != want {
		return nil, fmt.Errorf("%w: field is %s, want %s", errs.ErrTypeMismatch, f.kind, want)
	}

	return &t.entries[f.index], nil
}

// lookupCompound resolves a compound or complex compound field.
func (t *Template) lookupCompound(f Field) (*IndexEntry, error) {
	if f.kind == format.FieldComplexCompound {
		return t.lookup(f, format.FieldComplexCompound)
	}

	return t.lookup(f, format.FieldCompound)
}

// window returns the byte window of e.
func (t *Template) window(e *IndexEntry) []byte {
	return t.buf[e.Offset : e.Offset+e.Length]
}

// checkWindow checks the count and length bytes of a received window against the
// capacities of e, so readers can trust them.
func checkWindow(e *IndexEntry, w []byte, engine endian.EndianEngine) error {
	switch e.Kind {
	case format.FieldStringEnum:
		if n := int(w[0]); n > e.Count {
			return fmt.Errorf("string of %d bytes in %d", n, e.Count)
		}
	case format.FieldRTSA:
		if n := int(engine.Uint16(w)); n > e.Count {
			return fmt.Errorf("%d samples in %d", n, e.Count)
		}
	case format.FieldSupplementalTypes, format.FieldReferences:
		if n := int(w[0]); n > e.Count {
			return fmt.Errorf("%d %s items in %d", n, e.Kind, e.Count)
		}
	case format.FieldAVAs:
		n := int(w[0])
		if n > e.Count {
			return fmt.Errorf("%d AVAs in %d", n, e.Count)
		}
		valueCap := e.Stride - section.AVAEntryHeaderSize
		for i := 0; i < n; i++ {
			if l := int(w[1+i*e.Stride+2]); l > valueCap {
				return fmt.Errorf("AVA %d value of %d bytes in %d", i, l, valueCap)
			}
		}
	}

	return nil
}
