// Package bitpack packs fixed-width unsigned samples into a byte window, most
// significant bit first, with no padding between samples.
//
// Sample i of width w occupies bits [i×w, (i+1)×w) counted from the most significant
// bit of b[0]. Writes only touch the bits of the sample being written, so adjacent
// samples sharing a byte are preserved.
package bitpack

// Put writes the low bits of v at bit position pos.
//
// Panics if the window b is too short for pos+bits.
func Put(b []byte, pos, bits int, v uint32) {
	for bits > 0 {
		idx := pos >> 3
		avail := 8 - pos&7
		n := min(avail, bits)

		chunk := (v >> uint(bits-n)) & (uint32(1)<<uint(n) - 1)
		shift := uint(avail - n)
		mask := byte((uint32(1)<<uint(n) - 1) << shift)

		b[idx] = b[idx]&^mask | byte(chunk<<shift)

		bits -= n
		pos += n
	}
}

// Get reads bits bits at bit position pos.
//
// Panics if the window b is too short for pos+bits.
func Get(b []byte, pos, bits int) uint32 {
	var v uint32
	for bits > 0 {
		idx := pos >> 3
		avail := 8 - pos&7
		n := min(avail, bits)

		chunk := (uint32(b[idx]) >> uint(avail-n)) & (uint32(1)<<uint(n) - 1)
		v = v<<uint(n) | chunk

		bits -= n
		pos += n
	}

	return v
}

// Fits reports whether v can be represented in bits bits.
func Fits(v uint32, bits int) bool {
	return bits >= 32 || v < uint32(1)<<uint(bits)
}

// PutSamples packs samples into b starting at bit 0 and zeroes every bit after the
// last sample. The caller checks capacity and sample widths.
func PutSamples(b []byte, bits int, samples []uint32) {
	for i, s := range samples {
		Put(b, i*bits, bits, s)
	}

	end := len(samples) * bits
	if end&7 != 0 {
		idx := end >> 3
		keep := byte(0xFF) << uint(8-end&7)
		b[idx] &= keep
		end = (idx + 1) * 8
	}

	clear(b[end>>3:])
}

// AppendSamples unpacks count samples from b and appends them to dst.
func AppendSamples(dst []uint32, b []byte, bits, count int) []uint32 {
	for i := 0; i < count; i++ {
		dst = append(dst, Get(b, i*bits, bits))
	}

	return dst
}
