package section

import (
	"github.com/arloliu/phdpack/errs"
)

// RecordHeader is the fixed 8-byte header at the start of every record.
type RecordHeader struct {
	// Flag declares the common fields, the continuation state and the byte order.
	//
	// Offset: 0, Size: 2 bytes (always little-endian)
	Flag HeaderFlag

	// Length is the total length of the record in bytes, header included.
	//
	// Offset: 2, Size: 2 bytes
	Length uint16

	// GroupID identifies the measurement shape. It is stable across repeated
	// transmissions of the same kind of record.
	//
	// Offset: 4, Size: 2 bytes
	GroupID uint16

	// Count is the number of measurements in the record.
	//
	// Offset: 6, Size: 1 byte (offset 7 is reserved and always zero)
	Count uint8
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly 8 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 8 bytes, or flag validation errors
func (h *RecordHeader) Parse(data []byte) error {
	if len(data) != RecordHeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag = HeaderFlag(uint16(data[0]) | uint16(data[1])<<8)
	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.Length = engine.Uint16(data[2:4])
	h.GroupID = engine.Uint16(data[4:6])
	h.Count = data[6]

	if data[7] != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// Bytes serializes the header into a new byte slice.
func (h *RecordHeader) Bytes() []byte {
	b := make([]byte, RecordHeaderSize)
	h.WriteToSlice(b, 0)

	return b
}

// WriteToSlice writes the header to a pre-allocated slice and returns the next position.
//
// Parameters:
//   - data: Pre-allocated byte slice (must have space for 8 bytes at offset)
//   - offset: Starting position in data slice
//
// Returns:
//   - int: Next write position (offset + 8)
func (h *RecordHeader) WriteToSlice(data []byte, offset int) int {
	b := data[offset : offset+RecordHeaderSize]
	b[0] = byte(h.Flag)
	b[1] = byte(h.Flag >> 8)

	engine := h.Flag.GetEndianEngine()
	engine.PutUint16(b[2:4], h.Length)
	engine.PutUint16(b[4:6], h.GroupID)
	b[6] = h.Count
	b[7] = 0

	return offset + RecordHeaderSize
}

// ParseRecordHeader parses a RecordHeader from the start of a record.
//
// Parameters:
//   - data: Byte slice containing the record (must be at least 8 bytes)
//
// Returns:
//   - RecordHeader: Parsed header
//   - error: ErrInvalidHeaderSize or flag validation errors
func ParseRecordHeader(data []byte) (RecordHeader, error) {
	if len(data) < RecordHeaderSize {
		return RecordHeader{}, errs.ErrInvalidHeaderSize
	}

	h := RecordHeader{}
	if err := h.Parse(data[:RecordHeaderSize]); err != nil {
		return RecordHeader{}, err
	}

	return h, nil
}
