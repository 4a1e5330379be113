package msgcore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/HikariCalyx/TextPet/msgcore/msgtext"
)

// Driver is the core's single entry point, orchestrating the reader,
// writer, scanner, patcher, and entry index around one loaded command
// database and lookup-table encoding. It mirrors the teacher's HAL: one
// struct holding config plus whatever state a session accumulates,
// constructed once and driven by a thin CLI layer.
type Driver struct {
	DB       *CommandDatabase
	Encoding *msgtext.Table
	Index    *EntryIndex

	config DriverConfig
}

// NewDriver returns a driver bound to db and encoding (encoding may be
// nil if the game has no lookup-table text). An empty entry index is
// created; call LoadEntryIndexFile to populate one from disk.
func NewDriver(db *CommandDatabase, encoding *msgtext.Table, config DriverConfig) *Driver {
	return &Driver{
		DB:       db,
		Encoding: encoding,
		Index:    NewEntryIndex(),
		config:   config,
	}
}

func (d *Driver) log(level int, format string, args ...interface{}) {
	if d.config.LogFunc != nil {
		d.config.LogFunc(level, format, args...)
	}
}

// LoadEntryIndexFile reads the entry index from config.EntryIndex.Path.
func (d *Driver) LoadEntryIndexFile() error {
	if d.config.EntryIndex.Path == "" {
		return fmt.Errorf("%w: no entry index path configured", ErrInvalidInput)
	}
	f, err := os.Open(d.config.EntryIndex.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx, err := LoadEntryIndex(f)
	if err != nil {
		return err
	}
	d.Index = idx
	d.log(1, "loaded %d entries from %s", len(idx.Entries()), d.config.EntryIndex.Path)
	return nil
}

// SaveEntryIndexFile writes the entry index to config.EntryIndex.Path.
func (d *Driver) SaveEntryIndexFile() error {
	if d.config.EntryIndex.Path == "" {
		return fmt.Errorf("%w: no entry index path configured", ErrInvalidInput)
	}
	f, err := os.Create(d.config.EntryIndex.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.Index.Save(f)
}

// ReadBinary decodes one script from data starting at start; maxBytes
// bounds the read (0 means unbounded).
func (d *Driver) ReadBinary(data []byte, start, maxBytes int) (*Script, int, error) {
	r := NewBinaryScriptReader(d.DB, d.Encoding)
	return r.ReadScript(data, start, maxBytes)
}

// WriteBinary serialises script back to bytes.
func (d *Driver) WriteBinary(script *Script) ([]byte, error) {
	w := NewBinaryScriptWriter(d.Encoding)
	return w.Write(script)
}

// TestRoundTrip writes script, reads the result back, and reports
// whether every parameter value the original script carried survives —
// the direct exercise of Testable Property 2.
func (d *Driver) TestRoundTrip(script *Script) error {
	encoded, err := d.WriteBinary(script)
	if err != nil {
		return err
	}
	decoded, _, err := d.ReadBinary(encoded, 0, 0)
	if err != nil {
		return err
	}
	reencoded, err := d.WriteBinary(decoded)
	if err != nil {
		return err
	}
	if !bytes.Equal(encoded, reencoded) {
		return fmt.Errorf("%w: round trip produced different bytes on second pass", ErrInconsistency)
	}
	return nil
}

// ScanOne runs the scanner once at start, honoring config.Scanner and
// updating the entry index if configured to.
func (d *Driver) ScanOne(data []byte, start int, filenameStem string) (*TextArchive, error) {
	cfg := d.config.Scanner
	cfg.UpdateIndex = d.config.EntryIndex.UpdateOnScan
	if cfg.Encoding == nil {
		cfg.Encoding = d.Encoding
	}
	scanner := NewScanner(d.DB, d.Index, cfg)
	return scanner.Scan(data, start, filenameStem)
}

// ScanROM sweeps data byte by byte from start to end, yielding every
// plausible archive the scanner finds, skipping forward past whatever
// each discovered archive consumed to avoid rescanning its interior.
func (d *Driver) ScanROM(data []byte, start, end int, filenameStem string) ([]*TextArchive, error) {
	return d.ScanROMProgress(data, start, end, filenameStem, nil)
}

// ScanROMProgress is ScanROM plus an optional callback invoked after every
// position advance with the current offset, the sweep's end offset, and
// how many archives have been found so far — the hook a "--watch" style
// live display polls to redraw its progress line.
func (d *Driver) ScanROMProgress(data []byte, start, end int, filenameStem string, onProgress func(pos, end, found int)) ([]*TextArchive, error) {
	if end <= 0 || end > len(data) {
		end = len(data)
	}

	if err := d.checkOrSetSourceChecksum(data); err != nil {
		return nil, err
	}

	var archives []*TextArchive
	pos := start
	for pos < end {
		archive, err := d.ScanOne(data, pos, filenameStem)
		if err != nil {
			return archives, err
		}
		if archive == nil {
			pos++
		} else {
			archives = append(archives, archive)
			consumed := 0
			if e, ok := d.Index.Get(pos); ok {
				// The entry index (just inserted by this scan, or already
				// known) records the true on-disk stride, compressed or
				// not; re-serialising decompressed script bytes would
				// under-advance past a compressed archive.
				consumed = e.Size
			}
			if consumed <= 0 {
				consumed = archiveBinaryLength(d, archive)
			}
			if consumed <= 0 {
				consumed = 1
			}
			pos += consumed
		}
		if onProgress != nil {
			onProgress(pos, end, len(archives))
		}
	}
	return archives, nil
}

// checkOrSetSourceChecksum records data's CRC-16 on the driver's entry
// index the first time a ROM is scanned, and on every later scan
// confirms the ROM being operated on still matches -- catching an entry
// index loaded against the wrong (or since-rebuilt) ROM before it
// silently misreads stale offsets.
func (d *Driver) checkOrSetSourceChecksum(data []byte) error {
	sum := ChecksumSource(data)
	if d.Index.SourceCRC16 == 0 {
		d.Index.SourceCRC16 = sum
		return nil
	}
	if d.Index.SourceCRC16 != sum {
		return fmt.Errorf("%w: entry index was built against a different ROM (have crc16 %04X, scanning one with %04X)", ErrInconsistency, d.Index.SourceCRC16, sum)
	}
	return nil
}

func archiveBinaryLength(d *Driver, archive *TextArchive) int {
	total := 0
	for _, sc := range archive.Scripts {
		buf, err := d.WriteBinary(sc)
		if err != nil {
			continue
		}
		total += len(buf)
	}
	return total
}

// ExtractTextBoxes returns the printed content of every text box in
// script, rendering commands as "<Name>" placeholders, per spec §6's
// "extract text boxes" driver operation.
func ExtractTextBoxes(script *Script) []string {
	var boxes []string
	var cur strings.Builder
	inBox := false

	flush := func() {
		if inBox {
			boxes = append(boxes, cur.String())
			cur.Reset()
			inBox = false
		}
	}

	for _, el := range script.Elements {
		if el.IsPrinted() {
			inBox = true
			switch v := el.(type) {
			case *TextElement:
				cur.WriteString(v.Text)
			case *ByteElement:
				fmt.Fprintf(&cur, "\\x%02X", v.Value)
			case *Command:
				fmt.Fprintf(&cur, "<%s>", v.Def.Name)
			}
			continue
		}
		if el.EndsTextBox() {
			flush()
		}
	}
	flush()

	return boxes
}

// FormatTPL renders archive as the structured-text ("tpl") format: one
// block per script, one line per element.
func FormatTPL(archive *TextArchive) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; archive %s\n", archive.Identifier)
	for si, sc := range archive.Scripts {
		fmt.Fprintf(&sb, "; script %d\n", si)
		for _, el := range sc.Elements {
			writeTPLElement(&sb, el)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeTPLElement(sb *strings.Builder, el ScriptElement) {
	switch v := el.(type) {
	case *TextElement:
		fmt.Fprintf(sb, "TEXT %s\n", strconv.Quote(v.Text))
	case *ByteElement:
		fmt.Fprintf(sb, "BYTE %02X\n", v.Value)
	case *DirectiveElement:
		fmt.Fprintf(sb, "DIRECTIVE %s %s\n", v.Kind, strconv.Quote(v.Payload))
	case *Command:
		writeTPLCommand(sb, v)
	}
}

func writeTPLCommand(sb *strings.Builder, cmd *Command) {
	fmt.Fprintf(sb, "CMD %s", cmd.Def.Name)
	for _, elem := range cmd.Elements {
		names := make([]string, 0, len(elem.Scalars))
		for name := range elem.Scalars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := elem.Scalars[name]
			fmt.Fprintf(sb, " %s.%s=%d", elem.Def.Name, name, p.Value)
		}
		for ei, entry := range elem.Entries {
			enames := make([]string, 0, len(entry))
			for name := range entry {
				enames = append(enames, name)
			}
			sort.Strings(enames)
			for _, name := range enames {
				fmt.Fprintf(sb, " %s[%d].%s=%d", elem.Def.Name, ei, name, entry[name].Value)
			}
		}
	}
	sb.WriteString("\n")
}

// ParseTPL is FormatTPL's inverse for the command portion: it re-derives
// a Script's commands from db by name and parameter assignment, used by
// the "write TPL" driver path. It reads TEXT, BYTE and CMD lines into one
// script; DIRECTIVE lines are rejected as unknown. Command re-parsing
// validates names against db but does not attempt arbitrary expression
// parsing.
func ParseTPL(db *CommandDatabase, r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	script := &Script{DatabaseName: db.Name}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "TEXT":
			text, err := strconv.Unquote(strings.TrimPrefix(line, "TEXT "))
			if err != nil {
				return nil, fmt.Errorf("%w: bad TEXT line %q: %v", ErrFormat, line, err)
			}
			script.Elements = append(script.Elements, &TextElement{Text: text})
		case "BYTE":
			v, err := strconv.ParseUint(fields[1], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: bad BYTE line %q: %v", ErrFormat, line, err)
			}
			script.Elements = append(script.Elements, &ByteElement{Value: byte(v)})
		case "CMD":
			cmd, err := parseTPLCommand(db, fields[1:])
			if err != nil {
				return nil, err
			}
			script.Elements = append(script.Elements, cmd)
		default:
			return nil, fmt.Errorf("%w: unknown TPL line %q", ErrFormat, line)
		}
	}
	return script, nil
}

func parseTPLCommand(db *CommandDatabase, fields []string) (*Command, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: CMD line missing a name", ErrFormat)
	}
	defs := db.Find(fields[0])
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: unknown command %q", ErrFormat, fields[0])
	}
	cmd := newCommand(defs[0])

	for _, assignment := range fields[1:] {
		path, valStr, ok := strings.Cut(assignment, "=")
		if !ok {
			return nil, fmt.Errorf("%w: bad assignment %q", ErrFormat, assignment)
		}
		val, err := strconv.ParseInt(valStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad value in %q: %v", ErrFormat, assignment, err)
		}

		elemPath, paramName, ok := strings.Cut(path, ".")
		if !ok {
			return nil, fmt.Errorf("%w: bad assignment path %q", ErrFormat, path)
		}

		elemName := elemPath
		entryIdx := -1
		if open := strings.IndexByte(elemPath, '['); open >= 0 && strings.HasSuffix(elemPath, "]") {
			elemName = elemPath[:open]
			n, err := strconv.Atoi(elemPath[open+1 : len(elemPath)-1])
			if err != nil {
				return nil, fmt.Errorf("%w: bad entry index in %q", ErrFormat, elemPath)
			}
			entryIdx = n
		}

		elem := cmd.Element(elemName)
		if elem == nil {
			return nil, fmt.Errorf("%w: command %q has no element %q", ErrMissingElement, fields[0], elemName)
		}

		if entryIdx < 0 {
			if p := elem.Def.FindScalarParam(paramName); p != nil {
				elem.Scalars[paramName] = &Parameter{Def: p, Value: val}
			}
			continue
		}

		for entryIdx >= len(elem.Entries) {
			elem.Entries = append(elem.Entries, make(DataEntry))
		}
		var pdef *ParameterDefinition
		for _, group := range elem.Def.DataGroups {
			for _, p := range group {
				if p.Name == paramName {
					pdef = p
				}
			}
		}
		if pdef != nil {
			elem.Entries[entryIdx][paramName] = &Parameter{Def: pdef, Value: val}
		}
	}

	return cmd, nil
}
