package msgcore

import (
	"fmt"

	"github.com/HikariCalyx/TextPet/internal/bitio"
)

// OffsetKind selects how a parameter's write-time base offset is
// resolved: from the start of the command buffer, from the buffer's
// current length (for trailing variable-length payloads), or from a
// previously written parameter recorded under a label name.
type OffsetKind int

const (
	OffsetStart OffsetKind = iota
	OffsetEnd
	OffsetLabel
)

func (k OffsetKind) String() string {
	switch k {
	case OffsetStart:
		return "start"
	case OffsetEnd:
		return "end"
	case OffsetLabel:
		return "label"
	default:
		return "unknown"
	}
}

// ParameterDefinition is a named, immutable descriptor of one field
// inside a command's byte layout. Values decode to add + rawBits, so the
// legal range is [Add, Add + 2^Bits - 1].
type ParameterDefinition struct {
	Name string

	Offset int
	Shift  int
	Bits   int
	Add    int64

	IsJump bool

	// ValueEncoding names a lookup-table encoding to decode this
	// parameter's raw bytes as text instead of an integer. Empty means
	// "plain integer".
	ValueEncoding string

	// DataGroups gives a per-group entry-count override when this
	// definition is used as an element's length parameter and the
	// element has more than one data group of differing size. Empty
	// means every data group uses the same decoded count. Carried
	// mostly for round-trip fidelity; only a handful of odd commands in
	// practice need heterogeneous group counts.
	DataGroups []int

	// OffsetKindWrite/LabelName control write-time relative addressing;
	// see OffsetKind.
	OffsetKindWrite OffsetKind
	LabelName       string
}

// MinimumByteCount is ceil((Shift+Bits)/8).
func (p *ParameterDefinition) MinimumByteCount() int {
	return bitio.MinByteCount(p.Shift, p.Bits)
}

// InRange reports whether v is a legal decoded value for this parameter.
func (p *ParameterDefinition) InRange(v int64) bool {
	if p.Bits >= 64 {
		return true
	}
	max := p.Add + (int64(1)<<uint(p.Bits) - 1)
	return v >= p.Add && v <= max
}

// Decode reads this parameter's bits out of buf at the given base byte
// offset (offset + p.Offset is the first byte touched) and returns the
// decoded integer value (after Add). Callers that need the field's raw
// byte form (value encodings) recover it from that value with RawBytes.
func (p *ParameterDefinition) Decode(buf []byte, base int) (int64, error) {
	need := base + p.Offset + p.MinimumByteCount()
	if need > len(buf) {
		return 0, fmt.Errorf("%w: parameter %q needs %d bytes, have %d", ErrFormat, p.Name, need, len(buf))
	}
	raw := bitio.ReadBits(buf, base+p.Offset, p.Shift, p.Bits)
	value := int64(raw) + p.Add
	if !p.InRange(value) {
		return 0, fmt.Errorf("%w: parameter %q value %d", ErrOutOfRange, p.Name, value)
	}
	return value, nil
}

// RawBytes packs value's field bits (ignoring Offset, i.e. as if the
// field started at byte 0 of a fresh buffer) into a little-endian byte
// slice. Used to hand a value-encoded parameter's byte form to the
// lookup-table encoding, which only cares about the field's bits, not
// where they live inside the command.
func (p *ParameterDefinition) RawBytes(value int64) []byte {
	buf := make([]byte, p.MinimumByteCount())
	raw := uint64(value - p.Add)
	bitio.WriteBits(buf, 0, p.Shift, p.Bits, raw)
	return buf
}

// Encode writes value's bits into buf at the given base byte offset.
// The caller must have already extended buf to at least
// base+p.Offset+p.MinimumByteCount() bytes.
func (p *ParameterDefinition) Encode(buf []byte, base int, value int64) error {
	if !p.InRange(value) {
		return fmt.Errorf("%w: parameter %q value %d", ErrOutOfRange, p.Name, value)
	}
	raw := uint64(value - p.Add)
	bitio.WriteBits(buf, base+p.Offset, p.Shift, p.Bits, raw)
	return nil
}

// Parameter is a concrete decoded value bound to a ParameterDefinition.
// Value is the integer the field decodes to; the field's little-endian
// byte packing is recomputed from it with Def.RawBytes, so value-encoded
// parameters round trip through their byte form exactly, per design
// note in spec §9.
type Parameter struct {
	Def   *ParameterDefinition
	Value int64
	// Text holds the decoded string when Def.ValueEncoding is set and
	// the raw bytes decoded successfully through that table.
	Text string
}
