package msgcore

// LZ77 implements the well-known handheld-console LZ77 variant: a 4-byte
// header (0x10 magic, 24-bit little-endian decompressed size) followed
// by 8-flag blocks. Each flag bit, read MSB first, selects either one
// literal byte or a (length, distance) back-reference: length in
// [3, 18] packed as a 4-bit nibble biased by 3, distance in [1, 4096]
// packed as 12 bits biased by 1.
//
// The core only ever trial-decompresses (§4.5): callers ask "is this
// valid, plausible LZ77?" and get nothing back if not, falling through
// to uncompressed parsing. Compress exists for completeness and for
// tooling that authors fresh compressed archives, but the driver's ROM
// write path never calls it -- insertion always writes uncompressed,
// per spec §6.
const (
	lz77Magic          = 0x10
	lz77MinLength      = 3
	lz77MaxLength      = 18
	lz77MaxDistance    = 4096
	lz77PlausibleFloor = 5
)

// TryDecompress attempts to LZ77-decompress data. maxCapacity, if
// positive, bounds the accepted decompressed size (e.g. a scanner
// checking against a known entry size); pass 0 to accept whatever size
// the stream's header claims. It returns (nil, 0, false) if data is not
// a well-formed stream for this format, if a back-reference would read
// before the start of the output (TestableProperty 6), or if the
// decoded stream is implausibly short (< 5 bytes) -- signalling the
// caller should fall back to uncompressed parsing rather than treating
// this as an error. On success, consumed is the number of bytes of data
// the compressed stream itself occupied (the header plus every flag and
// literal/back-reference byte read), letting a caller record the true
// on-disk size of the compressed archive.
func TryDecompress(data []byte, maxCapacity int) (out []byte, consumed int, ok bool) {
	if len(data) < 4 || data[0] != lz77Magic {
		return nil, 0, false
	}

	size := int(data[1]) | int(data[2])<<8 | int(data[3])<<16
	if size == 0 {
		return nil, 0, false
	}
	if maxCapacity > 0 && size > maxCapacity {
		return nil, 0, false
	}

	out = make([]byte, 0, size)
	pos := 4

	for len(out) < size {
		if pos >= len(data) {
			return nil, 0, false
		}
		flags := data[pos]
		pos++

		for bit := 7; bit >= 0 && len(out) < size; bit-- {
			if flags&(1<<uint(bit)) != 0 {
				if pos+1 >= len(data) {
					return nil, 0, false
				}
				b1, b2 := data[pos], data[pos+1]
				pos += 2

				length := int(b1>>4) + lz77MinLength
				distance := (int(b1&0x0F)<<8 | int(b2)) + 1
				if distance > len(out) || distance > lz77MaxDistance {
					return nil, 0, false
				}

				start := len(out) - distance
				for i := 0; i < length && len(out) < size; i++ {
					out = append(out, out[start+i])
				}
			} else {
				if pos >= len(data) {
					return nil, 0, false
				}
				out = append(out, data[pos])
				pos++
			}
		}
	}

	if len(out) < lz77PlausibleFloor {
		return nil, 0, false
	}
	return out, pos, true
}

// Compress produces a valid LZ77 stream decoding back to data, using a
// straightforward longest-match search over the sliding window.
func Compress(data []byte) []byte {
	out := make([]byte, 4)
	out[0] = lz77Magic
	size := len(data)
	out[1] = byte(size)
	out[2] = byte(size >> 8)
	out[3] = byte(size >> 16)

	cursor := 0
	for cursor < len(data) {
		flagPos := len(out)
		out = append(out, 0)
		var flags byte

		for block := 0; block < 8 && cursor < len(data); block++ {
			bestLen, bestDist := 0, 0
			minStart := cursor - lz77MaxDistance
			if minStart < 0 {
				minStart = 0
			}
			for start := cursor - 1; start >= minStart; start-- {
				length := 0
				for length < lz77MaxLength && cursor+length < len(data) && data[start+length] == data[cursor+length] {
					length++
				}
				if length > bestLen {
					bestLen = length
					bestDist = cursor - start
				}
			}

			if bestLen >= lz77MinLength {
				flags |= 1 << uint(7-block)
				distance := bestDist - 1
				out = append(out, byte((bestLen-lz77MinLength)<<4|((distance>>8)&0x0F)), byte(distance))
				cursor += bestLen
			} else {
				out = append(out, data[cursor])
				cursor++
			}
		}

		out[flagPos] = flags
	}

	return out
}
