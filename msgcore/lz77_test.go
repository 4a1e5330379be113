package msgcore

import (
	"bytes"
	"testing"
)

func TestLZ77RoundTrip(t *testing.T) {
	original := []byte("abcabcabcabcabcabc hello hello hello world world world")
	compressed := Compress(original)
	decompressed, consumed, ok := TryDecompress(compressed, 0)
	if !ok {
		t.Fatal("TryDecompress rejected our own Compress output")
	}
	if !bytes.Equal(decompressed, original) {
		t.Fatalf("round trip mismatch: got %q, want %q", decompressed, original)
	}
	if consumed != len(compressed) {
		t.Fatalf("consumed = %d, want %d (all of the compressed stream)", consumed, len(compressed))
	}
}

func TestLZ77RejectsNonLZ77(t *testing.T) {
	_, _, ok := TryDecompress([]byte{0x00, 0x01, 0x02, 0x03, 0x04}, 0)
	if ok {
		t.Fatal("expected rejection of non-LZ77 data")
	}
}

func TestLZ77RejectsImplausiblyShort(t *testing.T) {
	// Header claims 2 bytes decompressed, below the 5-byte floor.
	data := []byte{0x10, 0x02, 0x00, 0x00, 0x00, 0xAA, 0xBB}
	_, _, ok := TryDecompress(data, 0)
	if ok {
		t.Fatal("expected rejection of implausibly short decompression")
	}
}

func TestLZ77RejectsBackReferenceBeforeStart(t *testing.T) {
	// Flag byte 0x80 marks the first token as a back-reference with no
	// output yet to reference.
	data := []byte{0x10, 0x08, 0x00, 0x00, 0x80, 0x00, 0x00}
	_, _, ok := TryDecompress(data, 0)
	if ok {
		t.Fatal("expected rejection of a back-reference before the output start")
	}
}

func TestLZ77RespectsCapacity(t *testing.T) {
	original := bytes.Repeat([]byte{'x'}, 20)
	compressed := Compress(original)
	if _, _, ok := TryDecompress(compressed, 10); ok {
		t.Fatal("expected rejection when decompressed size exceeds caller capacity")
	}
	if _, _, ok := TryDecompress(compressed, 20); !ok {
		t.Fatal("expected acceptance when decompressed size fits capacity exactly")
	}
}
