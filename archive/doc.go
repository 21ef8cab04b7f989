// Package archive stores assembled records in compressed, checksummed batches.
//
// A gateway that cannot forward records right away appends them to a Writer and keeps
// the finished archive until the uplink returns. Read restores the records in append
// order.
//
// # Layout
//
// All multi-byte fields are little-endian.
//
//	magic       u16  0x4850
//	version     u8   1
//	compression u8   format.CompressionType
//	count       u32  number of records
//	rawLen      u32  payload size before compression
//	checksum    u64  xxHash64 of the header fields above and the uncompressed payload
//	payload          count × (length u16, record), compressed
//
// Which records to keep and when to drop them is left to the caller.
package archive
