package msgcore

import (
	"fmt"

	"github.com/HikariCalyx/TextPet/msgcore/msgtext"
)

// BinaryScriptReader drives the command database's matcher over a fully
// in-memory byte buffer and materialises Script elements. It holds no
// state between ReadScript calls beyond what's threaded through the
// underlying CommandDatabase's match cache (§5: callers must serialise
// concurrent matches against one database).
type BinaryScriptReader struct {
	DB       *CommandDatabase
	Encoding *msgtext.Table
}

// NewBinaryScriptReader returns a reader bound to db. encoding may be
// nil, in which case unmatched bytes always fall back to ByteElement.
func NewBinaryScriptReader(db *CommandDatabase, encoding *msgtext.Table) *BinaryScriptReader {
	return &BinaryScriptReader{DB: db, Encoding: encoding}
}

// matchAt narrows the matcher over data starting at pos and returns the
// chosen definition (or nil if no candidate survives) plus how many
// bytes were consumed to reach that decision. Ties among multiple
// still-matching definitions at the point the discriminating bytes run
// out are broken by shortest MinimumLength, then by insertion order.
func (r *BinaryScriptReader) matchAt(data []byte, pos int) (*CommandDefinition, int) {
	if pos >= len(data) {
		return nil, 0
	}

	n := 1
	candidates := r.DB.Match(data[pos : pos+n])
	for len(candidates) > 1 {
		maxLen := 0
		for _, c := range candidates {
			if c.MinimumLength() > maxLen {
				maxLen = c.MinimumLength()
			}
		}
		if n >= maxLen || pos+n >= len(data) {
			break
		}
		n++
		candidates = r.DB.Match(data[pos : pos+n])
	}

	if len(candidates) == 0 {
		return nil, n
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.MinimumLength() < best.MinimumLength() {
			best = c
		}
	}
	return best, n
}

// ReadScript reads elements from data starting at start until a command
// whose definition has EndType==EndAlways is consumed, maxBytes (if > 0)
// bytes have been read, or data is exhausted. It returns the script and
// the position immediately following the last consumed byte (after
// applying the terminating command's RewindCount).
func (r *BinaryScriptReader) ReadScript(data []byte, start int, maxBytes int) (*Script, int, error) {
	script := &Script{DatabaseName: r.DB.Name}

	pos := start
	limit := len(data)
	if maxBytes > 0 && start+maxBytes < limit {
		limit = start + maxBytes
	}

	for pos < limit {
		def, _ := r.matchAt(data, pos)
		if def == nil {
			var decoded string
			var consumed int
			var ok bool
			if r.Encoding != nil {
				decoded, consumed, ok = r.Encoding.DecodeNext(data[pos:])
			}
			if ok {
				script.Elements = append(script.Elements, &TextElement{Text: decoded})
				pos += consumed
				continue
			}
			script.Elements = append(script.Elements, &ByteElement{Value: data[pos]})
			pos++
			continue
		}

		cmd, end, err := r.decodeCommand(data, pos, def)
		if err != nil {
			return nil, pos, err
		}

		end -= def.RewindCount

		script.Elements = append(script.Elements, cmd)
		pos = end

		if def.EndType == EndAlways {
			break
		}
	}

	return script, pos, nil
}

// decodeCommand extracts every element's parameters for def starting at
// start, and returns the absolute position immediately past the last
// byte the command occupies (before rewind is applied).
func (r *BinaryScriptReader) decodeCommand(data []byte, start int, def *CommandDefinition) (*Command, int, error) {
	cmd := newCommand(def)
	cursor := start + def.MinimumLength()

	for _, edef := range def.Elements {
		elem := cmd.Element(edef.Name)

		for _, pdef := range edef.ScalarParams {
			need := start + pdef.Offset + pdef.MinimumByteCount()
			if need > len(data) {
				return nil, 0, fmt.Errorf("%w: command %q ran out of bytes decoding %q", ErrFormat, def.Name, pdef.Name)
			}
			val, err := pdef.Decode(data[start:], 0)
			if err != nil {
				return nil, 0, fmt.Errorf("command %q: %w", def.Name, err)
			}
			par := &Parameter{Def: pdef, Value: val}
			if pdef.ValueEncoding != "" && r.Encoding != nil {
				raw := pdef.RawBytes(val)
				if text, consumed, ok := r.Encoding.DecodeNext(raw); ok && consumed == len(raw) {
					par.Text = text
				}
			}
			elem.Scalars[pdef.Name] = par
			if need > cursor {
				cursor = need
			}
		}

		if !edef.HasMultipleDataEntries() {
			continue
		}

		need := start + edef.LengthParam.Offset + edef.LengthParam.MinimumByteCount()
		if need > len(data) {
			return nil, 0, fmt.Errorf("%w: command %q ran out of bytes decoding entry count", ErrFormat, def.Name)
		}
		countVal, err := edef.LengthParam.Decode(data[start:], 0)
		if err != nil {
			return nil, 0, fmt.Errorf("command %q: %w", def.Name, err)
		}
		if need > cursor {
			cursor = need
		}

		n := int(countVal)
		for i := 0; i < n; i++ {
			elem.Entries = append(elem.Entries, make(DataEntry))
		}

		groupStart := cursor - start
		for gi, group := range edef.DataGroups {
			groupN := n
			if gi < len(edef.LengthParam.DataGroups) {
				groupN = edef.LengthParam.DataGroups[gi]
			}

			rowWidth := 0
			for _, p := range group {
				if end := p.Offset + p.MinimumByteCount(); end > rowWidth {
					rowWidth = end
				}
			}

			for i := 0; i < groupN; i++ {
				rowBase := groupStart + i*rowWidth
				needAbs := start + rowBase + rowWidth
				if needAbs > len(data) {
					return nil, 0, fmt.Errorf("%w: command %q ran out of bytes decoding entry %d of group %d", ErrFormat, def.Name, i, gi)
				}
				for _, p := range group {
					val, err := p.Decode(data[start:], rowBase)
					if err != nil {
						return nil, 0, fmt.Errorf("command %q: %w", def.Name, err)
					}
					if i >= len(elem.Entries) {
						elem.Entries = append(elem.Entries, make(DataEntry))
					}
					elem.Entries[i][p.Name] = &Parameter{Def: p, Value: val}
				}
				if needAbs > cursor {
					cursor = needAbs
				}
			}
			groupStart += groupN * rowWidth
		}
	}

	return cmd, cursor, nil
}
