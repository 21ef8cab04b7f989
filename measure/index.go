package measure

import (
	"github.com/arloliu/phdpack/format"
)

// IndexEntry records the byte window of one mutable field of a compiled template.
//
// Patches write only inside [Offset, Offset+Length). Windows of different entries
// never overlap.
type IndexEntry struct {
	// Kind is the field kind.
	Kind format.FieldKind
	// Width is the Mder width of numeric, compound, RTSA and duration fields.
	Width format.FloatWidth
	// Offset is the absolute byte offset of the window within the template buffer.
	Offset int
	// Length is the window size in bytes.
	Length int
	// Count is the element count (compounds) or the reserved capacity (lists,
	// strings, RTSA samples).
	Count int
	// Stride is the distance in bytes between consecutive elements.
	Stride int
	// Bits is the RTSA sample width or the bit enum width.
	Bits int
	// Measurement is the index of the owning measurement, or -1 for header fields.
	Measurement int
}

// IsHeader reports whether the entry belongs to the common region.
func (e IndexEntry) IsHeader() bool {
	return e.Measurement < 0
}

// Field is a typed handle to one IndexEntry of a template. The zero Field refers to
// no field; operations on it fail with errs.ErrInvalidField.
type Field struct {
	t     *Template
	index int
	kind  format.FieldKind
}

// IsValid reports whether f refers to a field.
func (f Field) IsValid() bool {
	return f.t != nil
}

// Kind returns the field kind, or format.FieldInvalid for the zero Field.
func (f Field) Kind() format.FieldKind {
	return f.kind
}

// Index returns the position of the field in the template index.
func (f Field) Index() int {
	return f.index
}

// MeasurementFields lists the handles of one measurement. Handles of regions the
// measurement does not carry are zero.
type MeasurementFields struct {
	Kind              format.MeasurementKind
	Offset            int
	ID                Field
	Value             Field
	SupplementalTypes Field
	References        Field
	Duration          Field
	AVAs              Field
}

// HeaderFields lists the handles of the common region. Handles of fields the header
// does not carry are zero.
type HeaderFields struct {
	Timestamp         Field
	PersonID          Field
	Duration          Field
	SupplementalTypes Field
	References        Field
	AVAs              Field
}

// AVA is an attribute-value pair.
type AVA struct {
	ID    uint16
	Value []byte
}
