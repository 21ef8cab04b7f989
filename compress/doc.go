// Package compress provides the payload codecs of record archives.
//
// An archive stores many records back to back and compresses them as one payload.
// Records of one shape repeat their static bytes (types, units, flags, capacities)
// in every copy, so general-purpose compression removes most of the size.
//
// # Supported Algorithms
//
//   - format.CompressionNone: the payload is stored as is
//   - format.CompressionZstd: best ratio; klauspost/compress by default, gozstd with
//     cgo and the gozstd build tag
//   - format.CompressionS2: balanced speed and ratio
//   - format.CompressionLZ4: fastest, moderate ratio
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(payload)
//	...
//	payload, err = codec.Decompress(compressed)
//
// Every built-in codec is safe for concurrent use; the zstd and LZ4 codecs pool their
// encoder state internally. Decompression output is capped at 128MiB.
package compress
