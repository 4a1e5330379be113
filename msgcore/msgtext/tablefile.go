package msgtext

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// LoadTableFile reads a Table from the ROM-hacking community's long
// standing ".tbl" convention: one mapping per line, "hex bytes=text",
// blank lines and lines starting with ';' ignored. A line of just
// "hex=" registers an empty-string token (a control code with no glyph).
func LoadTableFile(r io.Reader) (*Table, error) {
	table := NewTable()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		hexPart, text, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", lineNo, line)
		}
		seq, err := hex.DecodeString(strings.TrimSpace(hexPart))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad hex %q: %w", lineNo, hexPart, err)
		}
		if len(seq) == 0 {
			return nil, fmt.Errorf("line %d: empty byte sequence", lineNo)
		}

		table.Add(seq, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return table, nil
}
