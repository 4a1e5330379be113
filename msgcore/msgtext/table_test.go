package msgtext

import "testing"

func buildTable() *Table {
	t := NewTable()
	t.Add([]byte{0x41}, "A")
	t.Add([]byte{0x42}, "B")
	t.Add([]byte{0xFE, 0x01}, "[PAUSE]")
	return t
}

func TestDecodeNextLongestMatch(t *testing.T) {
	tbl := buildTable()

	text, n, ok := tbl.DecodeNext([]byte{0xFE, 0x01, 0x41})
	if !ok || text != "[PAUSE]" || n != 2 {
		t.Fatalf("got (%q, %d, %v), want ([PAUSE], 2, true)", text, n, ok)
	}

	text, n, ok = tbl.DecodeNext([]byte{0x41})
	if !ok || text != "A" || n != 1 {
		t.Fatalf("got (%q, %d, %v), want (A, 1, true)", text, n, ok)
	}
}

func TestDecodeNextUnmapped(t *testing.T) {
	tbl := buildTable()
	_, _, ok := tbl.DecodeNext([]byte{0xFF})
	if ok {
		t.Fatal("expected no match for unmapped byte")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tbl := buildTable()
	seq, n, ok := tbl.EncodeNext("[PAUSE]rest")
	if !ok || n != len("[PAUSE]") {
		t.Fatalf("EncodeNext failed: %v %d %v", seq, n, ok)
	}

	text, consumed, ok := tbl.DecodeNext(seq)
	if !ok || text != "[PAUSE]" || consumed != len(seq) {
		t.Fatalf("round trip failed: %q %d %v", text, consumed, ok)
	}
}

func TestAsEncodingDecoder(t *testing.T) {
	tbl := buildTable()
	dec := tbl.AsEncoding().NewDecoder()
	out, err := dec.Bytes([]byte{0x41, 0x42, 0xFE, 0x01})
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(out) != "AB[PAUSE]" {
		t.Fatalf("got %q, want AB[PAUSE]", out)
	}
}
