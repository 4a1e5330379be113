package msgtext

import (
	"errors"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrNoEncoding is returned by an encoder when no registered token is a
// prefix of the remaining input.
var ErrNoEncoding = errors.New("msgtext: no table entry encodes this text")

type tableEncoding struct {
	table *Table
}

func (e tableEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &tableDecoder{table: e.table}}
}

func (e tableEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: &tableEncoder{table: e.table}}
}

type tableDecoder struct {
	table *Table
}

func (d *tableDecoder) Reset() {}

func (d *tableDecoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for len(src[nSrc:]) > 0 {
		text, consumed, ok, short := d.table.decodeNext(src[nSrc:])
		if short && !atEOF {
			// The trie walk ran off the end of this chunk while a longer
			// (or first) match was still reachable; ask the x/text
			// pipeline for more bytes rather than committing to a
			// possibly-truncated match.
			return nDst, nSrc, transform.ErrShortSrc
		}
		if !ok {
			// Unmapped byte: pass it through as a single raw byte, the
			// same fallback the binary script reader uses for bytes it
			// can't otherwise place.
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = src[nSrc]
			nDst++
			nSrc++
			continue
		}
		if nDst+len(text) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], text)
		nDst += len(text)
		nSrc += consumed
	}
	return nDst, nSrc, nil
}

type tableEncoder struct {
	table *Table
}

func (e *tableEncoder) Reset() {}

func (e *tableEncoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for len(src[nSrc:]) > 0 {
		data, consumed, ok := e.table.EncodeNext(string(src[nSrc:]))
		if !ok {
			return nDst, nSrc, ErrNoEncoding
		}
		if nDst+len(data) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], data)
		nDst += len(data)
		nSrc += consumed
	}
	return nDst, nSrc, nil
}
