package msgtext

import (
	"io"
	"io/ioutil"
	"testing"

	"golang.org/x/text/transform"
)

func TestTableDecoderRequestsMoreOnSplitToken(t *testing.T) {
	dec := &tableDecoder{table: buildTable()}
	dst := make([]byte, 16)

	// 0xFE is the first byte of the two-byte [PAUSE] token; on its own,
	// with atEOF false, the decoder must ask for more input rather than
	// guessing it's an unmapped byte.
	nDst, nSrc, err := dec.Transform(dst, []byte{0xFE}, false)
	if err != transform.ErrShortSrc {
		t.Fatalf("err = %v, want ErrShortSrc", err)
	}
	if nDst != 0 || nSrc != 0 {
		t.Fatalf("got (nDst=%d, nSrc=%d), want (0, 0)", nDst, nSrc)
	}

	nDst, nSrc, err = dec.Transform(dst, []byte{0xFE, 0x01}, true)
	if err != nil {
		t.Fatalf("Transform with full token: %v", err)
	}
	if nSrc != 2 || string(dst[:nDst]) != "[PAUSE]" {
		t.Fatalf("got (%q, nSrc=%d), want ([PAUSE], 2)", dst[:nDst], nSrc)
	}
}

func TestTableDecoderUnmappedByteAtEOF(t *testing.T) {
	dec := &tableDecoder{table: buildTable()}
	dst := make([]byte, 16)

	// 0xFE is a genuine trie prefix, but at EOF there's no more input
	// coming, so the lone byte must be passed through rather than waited
	// on forever.
	_, nSrc, err := dec.Transform(dst, []byte{0xFE}, true)
	if err != nil {
		t.Fatalf("Transform at EOF: %v", err)
	}
	if nSrc != 1 || dst[0] != 0xFE {
		t.Fatalf("got (dst[0]=%#x, nSrc=%d), want (0xfe, 1)", dst[0], nSrc)
	}
}

func TestTableDecoderViaReaderAcrossChunkBoundary(t *testing.T) {
	tbl := buildTable()
	r := transform.NewReader(&chunkedReader{data: []byte{0x41, 0xFE, 0x01, 0x42}}, tbl.AsEncoding().NewDecoder())

	out, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(out) != "A[PAUSE]B" {
		t.Fatalf("got %q, want A[PAUSE]B", out)
	}
}

// chunkedReader serves data one byte per Read call, forcing the x/text
// transform pipeline to call Transform with atEOF false on buffers that
// end mid-token.
type chunkedReader struct {
	data []byte
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}
