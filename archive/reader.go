package archive

import (
	"fmt"

	"github.com/arloliu/phdpack/compress"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/hash"
	"github.com/arloliu/phdpack/section"
)

// Header is the fixed archive header.
type Header struct {
	Compression format.CompressionType
	Count       uint32
	RawLength   uint32
	Checksum    uint64
}

// ParseHeader parses and checks the fixed header of an archive.
//
// Returns:
//   - Header: The parsed header
//   - error: errs.ErrInvalidArchive, joined with errs.ErrInvalidMagicNumber for a
//     foreign magic number
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", errs.ErrInvalidArchive, len(data))
	}
	if magic := engine.Uint16(data[0:2]); magic != Magic {
		return Header{}, fmt.Errorf("%w: %w 0x%04X", errs.ErrInvalidArchive, errs.ErrInvalidMagicNumber, magic)
	}
	if data[2] != Version {
		return Header{}, fmt.Errorf("%w: version %d", errs.ErrInvalidArchive, data[2])
	}

	return Header{
		Compression: format.CompressionType(data[3]),
		Count:       engine.Uint32(data[4:8]),
		RawLength:   engine.Uint32(data[8:12]),
		Checksum:    engine.Uint64(data[12:20]),
	}, nil
}

// Read restores the records of an archive in append order.
//
// Returns:
//   - [][]byte: The records; they share one freshly decompressed buffer, except with
//     format.CompressionNone where they alias data
//   - error: errs.ErrInvalidArchive, joined with errs.ErrChecksumMismatch when the
//     header fields or the payload do not match the checksum
func Read(data []byte) ([][]byte, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(hdr.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}

	raw, err := codec.Decompress(data[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}
	if len(raw) != int(hdr.RawLength) {
		return nil, fmt.Errorf("%w: payload of %d bytes, header says %d", errs.ErrInvalidArchive, len(raw), hdr.RawLength)
	}
	if maxRecords := len(raw) / (recordPrefixSize + section.RecordHeaderSize); int64(hdr.Count) > int64(maxRecords) {
		return nil, fmt.Errorf("%w: %d records cannot fit %d payload bytes", errs.ErrInvalidArchive, hdr.Count, len(raw))
	}
	if sum := hash.Sum(data[:checksumOffset], raw); sum != hdr.Checksum {
		return nil, fmt.Errorf("%w: %w: 0x%016X != 0x%016X", errs.ErrInvalidArchive, errs.ErrChecksumMismatch, sum, hdr.Checksum)
	}

	records := make([][]byte, 0, hdr.Count)
	for len(raw) > 0 {
		if len(raw) < recordPrefixSize {
			return nil, fmt.Errorf("%w: dangling record prefix", errs.ErrInvalidArchive)
		}
		n := int(engine.Uint16(raw))
		raw = raw[recordPrefixSize:]
		if n < section.RecordHeaderSize || n > len(raw) {
			return nil, fmt.Errorf("%w: record %d of %d bytes", errs.ErrInvalidArchive, len(records), n)
		}

		records = append(records, raw[:n:n])
		raw = raw[n:]
	}

	if len(records) != int(hdr.Count) {
		return nil, fmt.Errorf("%w: %d records, header says %d", errs.ErrInvalidArchive, len(records), hdr.Count)
	}

	return records, nil
}
