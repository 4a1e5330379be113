package msgcore

import "fmt"

// Patch splices every text box of patchScript into the corresponding text
// box window of baseScript, per spec §4.7: the base keeps its commands,
// the patch supplies the printed text. A base window is one printed run
// plus the single element that closes it (if any); any command embedded
// in that window ahead of the closer is a placeholder the patch must
// name-match, but the closer itself is never a placeholder — it is kept
// and reattached automatically.
//
// archiveIdentifier names the archive in any returned error, per spec
// §4.7's "user-surfaced argument error naming the archive identifier".
func Patch(db *CommandDatabase, baseScript, patchScript *Script, archiveIdentifier string) (*Script, error) {
	patched := &Script{DatabaseName: baseScript.DatabaseName}

	baseIdx := 0
	patchIdx := 0

	for baseIdx < len(baseScript.Elements) {
		el := baseScript.Elements[baseIdx]

		if !el.IsPrinted() {
			patched.Elements = append(patched.Elements, el)
			baseIdx++
			continue
		}

		window, windowLen := extractBaseWindow(baseScript.Elements[baseIdx:])

		patchIdx = skipSeparators(patchScript, patchIdx)
		box, newPatchIdx, err := extractPatchBox(patchScript, patchIdx)
		if err != nil {
			return nil, fmt.Errorf("patch archive %q: %w", archiveIdentifier, err)
		}

		if len(box) == 0 {
			merged, err := mergeWindow(db, window, archiveIdentifier)
			if err != nil {
				return nil, err
			}
			patched.Elements = append(patched.Elements, merged...)
			baseIdx += windowLen
			patchIdx = newPatchIdx
			continue
		}

		spliced, err := spliceWindow(window, box, archiveIdentifier)
		if err != nil {
			return nil, err
		}
		patched.Elements = append(patched.Elements, spliced...)

		baseIdx += windowLen
		patchIdx = newPatchIdx
	}

	if patchIdx < len(patchScript.Elements) {
		if idx := skipSeparators(patchScript, patchIdx); idx >= len(patchScript.Elements) {
			return patched, nil
		}
		return nil, fmt.Errorf("patch archive %q: %w", archiveIdentifier, ErrPatchLeftover)
	}

	return patched, nil
}

// extractBaseWindow returns the leading printed run of elements plus the
// single element that closes it (included), and how many elements that
// spans. If no closing element exists before elements runs out, the
// window is the entire remainder with no closer.
func extractBaseWindow(elements []ScriptElement) ([]ScriptElement, int) {
	i := 0
	for i < len(elements) && !elements[i].EndsTextBox() {
		i++
	}
	if i < len(elements) {
		i++ // include the closing element
	}
	return elements[:i], i
}

// skipSeparators advances idx past any leading TextBoxSeparator
// directives in script.
func skipSeparators(script *Script, idx int) int {
	for idx < len(script.Elements) {
		d, ok := script.Elements[idx].(*DirectiveElement)
		if !ok || d.Kind != DirectiveTextBoxSeparator {
			break
		}
		idx++
	}
	return idx
}

// extractPatchBox reads the next patch text box starting at idx: every
// element up to (but not including) the next element that ends a text
// box or marks a text-box split. Both kinds of stop element are
// consumed (idx advances past them) but never added to the box.
func extractPatchBox(script *Script, idx int) ([]ScriptElement, int, error) {
	var box []ScriptElement

	for idx < len(script.Elements) {
		el := script.Elements[idx]
		if el.EndsTextBox() || el.SplitsTextBox() {
			idx++
			return box, idx, nil
		}
		box = append(box, el)
		idx++
	}

	return box, idx, nil
}

// spliceWindow implements step 5: the window's trailing closer (if any)
// is set aside, every other command in the window becomes a named
// placeholder pool, box's own commands are matched against that pool by
// name and substituted in place, and the closer is reattached at the end.
func spliceWindow(window []ScriptElement, box []ScriptElement, archiveIdentifier string) ([]ScriptElement, error) {
	body, closer := splitCloser(window)

	var pool []*Command
	for _, el := range body {
		if cmd, ok := el.(*Command); ok {
			pool = append(pool, cmd)
		}
	}

	result := make([]ScriptElement, 0, len(box)+1)
	for _, el := range box {
		cmd, ok := el.(*Command)
		if !ok {
			result = append(result, el)
			continue
		}

		matchIdx := -1
		for i, c := range pool {
			if equalFoldName(c.Def.Name, cmd.Def.Name) {
				matchIdx = i
				break
			}
		}
		if matchIdx == -1 {
			return nil, fmt.Errorf("patch archive %q: %w: %q", archiveIdentifier, ErrPatchNameMismatch, cmd.Def.Name)
		}
		result = append(result, pool[matchIdx])
		pool = append(pool[:matchIdx], pool[matchIdx+1:]...)
	}

	if len(pool) != 0 {
		return nil, fmt.Errorf("patch archive %q: %w", archiveIdentifier, ErrPatchLeftover)
	}

	if closer != nil {
		result = append(result, closer)
	}
	return result, nil
}

// mergeWindow implements step 4: an empty patch box means the patch
// author deleted this box boundary. The window's printed content is
// dropped (the patch supplied nothing for it); its leading commands must
// then match the database's split snippet by name, in order, and all of
// the window's commands (including any beyond the snippet) are kept
// verbatim.
func mergeWindow(db *CommandDatabase, window []ScriptElement, archiveIdentifier string) ([]ScriptElement, error) {
	if db.TextBoxSplitSnippet == nil {
		return nil, fmt.Errorf("patch archive %q: %w", archiveIdentifier, ErrNoSplitSnippet)
	}

	var cmds []*Command
	for _, el := range window {
		if cmd, ok := el.(*Command); ok {
			cmds = append(cmds, cmd)
		}
	}

	snippet := db.TextBoxSplitSnippet.Elements
	if len(cmds) < len(snippet) {
		return nil, fmt.Errorf("patch archive %q: %w", archiveIdentifier, ErrPatchTooShort)
	}
	for i, se := range snippet {
		scmd, ok := se.(*Command)
		if !ok {
			continue
		}
		if !equalFoldName(cmds[i].Def.Name, scmd.Def.Name) {
			return nil, fmt.Errorf("patch archive %q: %w", archiveIdentifier, ErrPatchNameMismatch)
		}
	}

	out := make([]ScriptElement, len(cmds))
	for i, c := range cmds {
		out[i] = c
	}
	return out, nil
}

// splitCloser separates window's trailing closing element (if it ends a
// text box) from the rest.
func splitCloser(window []ScriptElement) (body []ScriptElement, closer ScriptElement) {
	if len(window) == 0 {
		return window, nil
	}
	last := window[len(window)-1]
	if last.EndsTextBox() {
		return window[:len(window)-1], last
	}
	return window, nil
}

func equalFoldName(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
