package msgcore

import (
	"fmt"

	"github.com/HikariCalyx/TextPet/msgcore/msgtext"
)

// BinaryScriptWriter is the binary script reader's inverse: it
// serialises a Script back to bytes, one command at a time, truncating
// each command's tail by its RewindCount so the next command's base can
// overlap it.
//
// Data-entry row parameters are addressed relative to their own row's
// start rather than through the Start/End/Label offset-kind mechanism;
// that mechanism is reserved for scalar parameters and cross-referencing
// (label) parameters, e.g. a jump target computed from a sibling
// parameter's written position. This keeps a repeating table's single
// shared ParameterDefinition meaningful across every row while leaving
// the label mechanism free for genuinely relative addressing.
type BinaryScriptWriter struct {
	Encoding *msgtext.Table
}

// NewBinaryScriptWriter returns a writer. encoding may be nil if the
// script contains no TextElements.
func NewBinaryScriptWriter(encoding *msgtext.Table) *BinaryScriptWriter {
	return &BinaryScriptWriter{Encoding: encoding}
}

// Write serialises every element of script in order and concatenates the
// results. Per spec §5, output bytes are the concatenation of
// per-command emissions in script order, each truncated by that
// command's RewindCount; adjacent commands' byte windows can therefore
// overlap intentionally. Note this also truncates the tail of the
// script's last command, which loses any intended end-padding -- kept
// for byte-exact fidelity with the source system (see SPEC_FULL.md Open
// Question decisions) rather than "fixed".
func (w *BinaryScriptWriter) Write(script *Script) ([]byte, error) {
	var out []byte
	for _, e := range script.Elements {
		switch v := e.(type) {
		case *Command:
			buf, err := w.writeCommand(v)
			if err != nil {
				return nil, err
			}
			out = append(out, buf...)
		case *TextElement:
			if w.Encoding == nil {
				return nil, fmt.Errorf("%w: script has text but no encoding is configured", ErrInvalidInput)
			}
			rest := v.Text
			for len(rest) > 0 {
				data, consumed, ok := w.Encoding.EncodeNext(rest)
				if !ok {
					return nil, fmt.Errorf("%w: no table entry encodes %q", ErrFormat, rest)
				}
				out = append(out, data...)
				rest = rest[consumed:]
			}
		case *ByteElement:
			out = append(out, v.Value)
		case *DirectiveElement:
			// Directives are logical markers for the patcher / alternate
			// serialisations; they emit no bytes of their own.
		}
	}
	return out, nil
}

func resolveOffset(buf []byte, labelMap map[string]int, p *ParameterDefinition) (int, error) {
	switch p.OffsetKindWrite {
	case OffsetStart:
		return 0, nil
	case OffsetEnd:
		return len(buf), nil
	case OffsetLabel:
		off, ok := labelMap[p.LabelName]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, p.LabelName)
		}
		return off, nil
	default:
		return 0, nil
	}
}

func extendTo(buf []byte, size int) []byte {
	if len(buf) >= size {
		return buf
	}
	grown := make([]byte, size)
	copy(grown, buf)
	return grown
}

func writeScalarParam(buf []byte, labelMap map[string]int, p *ParameterDefinition, value int64) ([]byte, error) {
	base, err := resolveOffset(buf, labelMap, p)
	if err != nil {
		return nil, err
	}
	required := base + p.Offset + p.MinimumByteCount()
	buf = extendTo(buf, required)
	labelMap[p.Name] = base + p.Offset
	if err := p.Encode(buf, base, value); err != nil {
		return nil, err
	}
	return buf, nil
}

func (w *BinaryScriptWriter) writeCommand(cmd *Command) ([]byte, error) {
	buf := make([]byte, len(cmd.Def.Mask))
	copy(buf, cmd.Def.Base)

	labelMap := make(map[string]int)

	for _, edef := range cmd.Def.Elements {
		elem := cmd.Element(edef.Name)
		if elem == nil {
			return nil, fmt.Errorf("%w: command %q missing element %q", ErrMissingElement, cmd.Def.Name, edef.Name)
		}

		for _, pdef := range edef.ScalarParams {
			par, ok := elem.Scalars[pdef.Name]
			if !ok {
				return nil, fmt.Errorf("%w: command %q element %q missing parameter %q", ErrMissingElement, cmd.Def.Name, edef.Name, pdef.Name)
			}
			var err error
			buf, err = writeScalarParam(buf, labelMap, pdef, par.Value)
			if err != nil {
				return nil, fmt.Errorf("command %q: %w", cmd.Def.Name, err)
			}
		}

		if !edef.HasMultipleDataEntries() {
			continue
		}

		n := len(elem.Entries)
		var err error
		buf, err = writeScalarParam(buf, labelMap, edef.LengthParam, int64(n))
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", cmd.Def.Name, err)
		}

		groupStart := len(buf)
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

			buf = extendTo(buf, groupStart+groupN*rowWidth)

			for i := 0; i < groupN; i++ {
				if i >= len(elem.Entries) {
					return nil, fmt.Errorf("%w: command %q group %d needs entry %d", ErrMissingElement, cmd.Def.Name, gi, i)
				}
				entry := elem.Entries[i]
				rowBase := groupStart + i*rowWidth
				for _, pdef := range group {
					par, ok := entry[pdef.Name]
					if !ok {
						return nil, fmt.Errorf("%w: command %q entry %d missing parameter %q", ErrMissingElement, cmd.Def.Name, i, pdef.Name)
					}
					if err := pdef.Encode(buf, rowBase, par.Value); err != nil {
						return nil, fmt.Errorf("command %q: %w", cmd.Def.Name, err)
					}
				}
			}
			groupStart += groupN * rowWidth
		}
	}

	if cmd.Def.RewindCount > 0 {
		if cmd.Def.RewindCount <= len(buf) {
			buf = buf[:len(buf)-cmd.Def.RewindCount]
		} else {
			buf = buf[:0]
		}
	}

	return buf, nil
}
