package msgcore

import (
	"encoding/binary"
	"fmt"

	"github.com/HikariCalyx/TextPet/msgcore/msgtext"
)

// ScannerConfig controls the text-archive scanner's behaviour.
type ScannerConfig struct {
	// Deep disables the strict plausibility gates (§4.6 step 6); a deep
	// scan accepts anything the reader could parse.
	Deep bool
	// ToEOF forces an uncompressed, unknown-size read to consume to the
	// end of the buffer even if the trailing script looks incomplete.
	ToEOF bool
	// PointerScan enables the whole-stream sweep for ROM pointers
	// referencing the discovered archive (§4.6 step 7).
	PointerScan bool
	// UpdateIndex inserts newly discovered entries into Index.
	UpdateIndex bool

	Encoding *msgtext.Table
	LogFunc  func(level int, format string, args ...interface{})
}

func (c ScannerConfig) log(level int, format string, args ...interface{}) {
	if c.LogFunc != nil {
		c.LogFunc(level, format, args...)
	}
}

// Scanner walks a file/ROM byte buffer and produces text archives, per
// spec §4.6. It shares the same "trial, then fall back" shape as the
// teacher's romEepromVerify/patch install probing: try the aggressive
// path, and if it doesn't hold up, retreat to the conservative one.
type Scanner struct {
	DB     *CommandDatabase
	Index  *EntryIndex
	Config ScannerConfig
}

// NewScanner returns a scanner bound to db and index.
func NewScanner(db *CommandDatabase, index *EntryIndex, cfg ScannerConfig) *Scanner {
	return &Scanner{DB: db, Index: index, Config: cfg}
}

// Scan attempts to produce a text archive starting at start in data.
// filenameStem, if non-empty, prefixes the archive's identifier. It
// returns (nil, nil) if no plausible archive was found there (not an
// error, per §4.6/§7: plausibility gates never report errors).
func (s *Scanner) Scan(data []byte, start int, filenameStem string) (*TextArchive, error) {
	if start < 0 || start > len(data) {
		return nil, fmt.Errorf("%w: start %#x out of range", ErrInvalidInput, start)
	}

	entry, hasEntry := s.Index.Get(start)
	tryCompressed := !hasEntry || entry.Compressed

	var archive *TextArchive
	compressedResult := false
	sizeHeader := false
	compressedSize := 0

	if tryCompressed {
		if decompressed, consumed, ok := TryDecompress(data[start:], 0); ok {
			buf := decompressed
			if _, rest, ok2 := stripSizeHeader(buf); ok2 {
				sizeHeader = true
				buf = rest
			}
			if a := s.readAllComplete(buf); a != nil {
				archive = a
				compressedResult = true
				compressedSize = consumed
			}
		}
		if hasEntry && entry.Compressed && archive == nil {
			return nil, fmt.Errorf("%w: entry at %#x declares compressed data that failed to decompress", ErrInconsistency, start)
		}
	}

	consumed := 0
	if archive == nil {
		var buf []byte
		forceToEnd := hasEntry || s.Config.ToEOF

		if hasEntry {
			end := start + entry.Size
			if end > len(data) {
				end = len(data)
			}
			buf = data[start:end]
		} else {
			buf = data[start:]
		}

		archive, consumed = s.readUntilStop(buf, forceToEnd)

		if archive != nil && !hasEntry {
			if next := s.Index.NextEntryAfter(start); next != nil && start+consumed > next.Offset && len(archive.Scripts) > 0 {
				archive.Scripts = archive.Scripts[:len(archive.Scripts)-1]
				s.Config.log(2, "dropped trailing script overlapping known entry at %#x", next.Offset)
			}
		}
	}

	if archive == nil {
		return nil, nil
	}

	if !s.Config.Deep && !passesPlausibility(archive) {
		s.Config.log(2, "archive at %#x rejected by plausibility gates", start)
		return nil, nil
	}

	archive.Identifier = identifierFor(start, filenameStem)

	var pointers []int
	if s.Config.PointerScan {
		pointers = scanPointers(data, start)
	}

	if !hasEntry && s.Config.UpdateIndex {
		size := consumed
		if compressedResult {
			size = compressedSize
		}
		_ = s.Index.Insert(&Entry{
			Offset:     start,
			Size:       size,
			Compressed: compressedResult,
			SizeHeader: sizeHeader,
			Pointers:   pointers,
		})
	}

	return archive, nil
}

// readAllComplete reads scripts from buf from the start until buf is
// exhausted or a script fails to end with an EndAlways command,
// discarding that trailing incomplete script.
func (s *Scanner) readAllComplete(buf []byte) *TextArchive {
	ta, _ := s.readUntilStop(buf, false)
	return ta
}

// readUntilStop reads scripts from buf sequentially. When forceToEnd is
// false, a trailing script that does not end in an EndAlways command is
// dropped (the reader "stopped" without a clean ending). When true, that
// trailing script is kept anyway (used when a known size or an
// explicit to-end-of-file request makes the byte range authoritative).
func (s *Scanner) readUntilStop(buf []byte, forceToEnd bool) (*TextArchive, int) {
	ta := &TextArchive{}
	pos := 0

	for pos < len(buf) {
		r := NewBinaryScriptReader(s.DB, s.Config.Encoding)
		script, newPos, err := r.ReadScript(buf, pos, 0)
		if err != nil || newPos <= pos || len(script.Elements) == 0 {
			break
		}

		complete := scriptEndsWithAlways(script)
		if !complete && !forceToEnd {
			break
		}

		ta.Scripts = append(ta.Scripts, script)
		pos = newPos

		if !complete {
			break
		}
	}

	if len(ta.Scripts) == 0 {
		return nil, 0
	}
	return ta, pos
}

func scriptEndsWithAlways(s *Script) bool {
	if len(s.Elements) == 0 {
		return false
	}
	cmd, ok := s.Elements[len(s.Elements)-1].(*Command)
	return ok && cmd.Def.EndType == EndAlways
}

// passesPlausibility implements the strict-mode gates of §4.6 step 6: at
// least one command anywhere in the archive has end_type == Always, and
// every script's post-ending overflow (elements after its first
// script-ending element, Always or Default) is within tolerance.
func passesPlausibility(archive *TextArchive) bool {
	hasAlwaysEnd := false
	scriptCount := int64(len(archive.Scripts))

	for _, sc := range archive.Scripts {
		for _, e := range sc.Elements {
			if cmd, ok := e.(*Command); ok && cmd.Def.EndType == EndAlways {
				hasAlwaysEnd = true
				break
			}
		}

		if endIdx := sc.FirstEndingIndex(); endIdx >= 0 {
			if overflow := len(sc.Elements) - (endIdx + 1); overflow > 3 {
				return false
			}
		}

		if !jumpsInRange(sc, scriptCount) {
			return false
		}
	}

	return hasAlwaysEnd
}

func jumpsInRange(sc *Script, scriptCount int64) bool {
	for _, e := range sc.Elements {
		cmd, ok := e.(*Command)
		if !ok {
			continue
		}
		for _, elem := range cmd.Elements {
			for _, p := range elem.Scalars {
				if !jumpOK(p, scriptCount) {
					return false
				}
			}
			for _, entry := range elem.Entries {
				for _, p := range entry {
					if !jumpOK(p, scriptCount) {
						return false
					}
				}
			}
		}
	}
	return true
}

func jumpOK(p *Parameter, scriptCount int64) bool {
	if !p.Def.IsJump {
		return true
	}
	if p.Value == 0xFF {
		return true
	}
	return p.Value >= 0 && p.Value < scriptCount
}

// stripSizeHeader recognises a leading "00 LL LL LL" size header whose
// 24-bit little-endian value equals either the buffer's own length or
// that length minus 4, and returns the header bytes and the remainder.
func stripSizeHeader(buf []byte) (header, rest []byte, ok bool) {
	if len(buf) < 4 || buf[0] != 0x00 {
		return nil, buf, false
	}
	ll := int(buf[1]) | int(buf[2])<<8 | int(buf[3])<<16
	if ll == len(buf) || ll == len(buf)-4 {
		return buf[:4], buf[4:], true
	}
	return nil, buf, false
}

// identifierFor renders the archive identifier: the 6-digit upper-case
// hex of start, optionally prefixed by a filename stem.
func identifierFor(start int, filenameStem string) string {
	hex := fmt.Sprintf("%06X", start)
	if filenameStem == "" {
		return hex
	}
	return filenameStem + "_" + hex
}

// scanPointers sweeps data for little-endian 32-bit values whose low 24
// bits equal start, after masking off the ROM-mapped high bit.
func scanPointers(data []byte, start int) []int {
	var found []int
	for i := 0; i+4 <= len(data); i++ {
		v := binary.LittleEndian.Uint32(data[i : i+4])
		masked := v & 0x7FFFFFFF
		if int(masked&0x00FFFFFF) == start {
			found = append(found, i)
		}
	}
	return found
}
