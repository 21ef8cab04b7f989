// Package hash derives stable identifiers from template shapes and record payloads.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Sum computes the xxHash64 of the concatenation of parts.
func Sum(parts ...[]byte) uint64 {
	if len(parts) == 1 {
		return xxhash.Sum64(parts[0])
	}

	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
	}

	return d.Sum64()
}

// GroupID folds the xxHash64 of a shape signature into a 16-bit group id.
//
// The four 16-bit lanes of the hash are XORed together. Zero is reserved for "no
// group id" and is mapped to 0xFFFF.
func GroupID(signature []byte) uint16 {
	h := xxhash.Sum64(signature)
	id := uint16(h) ^ uint16(h>>16) ^ uint16(h>>32) ^ uint16(h>>48) //nolint: gosec
	if id == 0 {
		id = 0xFFFF
	}

	return id
}
