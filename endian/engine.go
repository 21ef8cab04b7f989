// Package endian provides the byte order engines used to lay out records.
//
// Health-device records default to little-endian, which is the byte order of the
// Bluetooth LE health profiles. Big-endian records are supported for peers that
// speak the classic IEEE 11073-20601 MDER encoding. The choice is carried in bit 15
// of the record header flags so a reader can pick the engine before touching any
// other multi-byte field.
//
// # Basic Usage
//
//	engine := endian.GetLittleEndianEngine()
//	engine.PutUint16(buf[2:4], totalLength)
//	buf = engine.AppendUint32(buf, typeCode)
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ForBigEndian returns the big-endian engine when big is true, otherwise the
// little-endian engine.
func ForBigEndian(big bool) EndianEngine {
	if big {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}

// PutUint24 writes the low 24 bits of v into b[0:3].
func PutUint24(engine EndianEngine, b []byte, v uint32) {
	_ = b[2] // bounds check hint
	if IsBigEndian(engine) {
		b[0] = byte(v >> 16)
		b[1] = byte(v >> 8)
		b[2] = byte(v)

		return
	}

	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// Uint24 reads a 24-bit unsigned integer from b[0:3].
func Uint24(engine EndianEngine, b []byte) uint32 {
	_ = b[2] // bounds check hint
	if IsBigEndian(engine) {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}

	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
