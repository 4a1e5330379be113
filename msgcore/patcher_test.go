package msgcore

import "testing"

func namedNonPrintDef(name string) *CommandDefinition {
	return &CommandDefinition{Name: name, Base: []byte{0x00}, Mask: []byte{0xFF}, Prints: false}
}

func cmdNamed(name string) *Command {
	return newCommand(namedNonPrintDef(name))
}

func TestPatchSplitBox(t *testing.T) {
	db := NewCommandDatabase("test")
	splitCmd := cmdNamed("split")
	db.TextBoxSplitSnippet = &Script{Elements: []ScriptElement{splitCmd}}

	cmdA := cmdNamed("cmdA")
	cmdB := cmdNamed("cmdB")
	cmdC := cmdNamed("cmdC")
	end := cmdNamed("end")

	base := &Script{Elements: []ScriptElement{
		cmdA,
		&TextElement{Text: "old"},
		cmdB,
		splitCmd,
		cmdC,
		&TextElement{Text: "rest"},
		end,
	}}

	patch := &Script{Elements: []ScriptElement{
		&TextElement{Text: "new"},
		&DirectiveElement{Kind: DirectiveTextBoxSplit},
		&TextElement{Text: "more"},
	}}

	result, err := Patch(db, base, patch, "test-archive")
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	want := []string{"cmdA", "text:new", "cmdB", "split", "cmdC", "text:more", "end"}
	if len(result.Elements) != len(want) {
		t.Fatalf("got %d elements, want %d: %v", len(result.Elements), len(want), describe(result.Elements))
	}
	for i, e := range result.Elements {
		got := describeOne(e)
		if got != want[i] {
			t.Fatalf("element %d = %q, want %q (full: %v)", i, got, want[i], describe(result.Elements))
		}
	}
}

func describe(elements []ScriptElement) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = describeOne(e)
	}
	return out
}

func describeOne(e ScriptElement) string {
	switch v := e.(type) {
	case *Command:
		return v.Def.Name
	case *TextElement:
		return "text:" + v.Text
	default:
		return "other"
	}
}

func printingCmdNamed(name string) *Command {
	return newCommand(&CommandDefinition{Name: name, Base: []byte{0x01}, Mask: []byte{0xFF}, Prints: true})
}

func TestPatchNameMismatchIsHardError(t *testing.T) {
	db := NewCommandDatabase("test")
	mugs := printingCmdNamed("mugshotX")
	end := cmdNamed("end")

	base := &Script{Elements: []ScriptElement{&TextElement{Text: "old"}, mugs, end}}
	badPatch := &Script{Elements: []ScriptElement{printingCmdNamed("doesNotExist")}}

	if _, err := Patch(db, base, badPatch, "mismatch-archive"); err == nil {
		t.Fatal("expected a name-mismatch error")
	}
}

func TestPatchLeftoverBaseCommandIsHardError(t *testing.T) {
	db := NewCommandDatabase("test")
	mugs := printingCmdNamed("mugshotX")
	end := cmdNamed("end")

	base := &Script{Elements: []ScriptElement{&TextElement{Text: "old"}, mugs, end}}
	// Patch supplies no placeholder at all for mugs, leaving it in the
	// pool after the walk.
	patch := &Script{Elements: []ScriptElement{&TextElement{Text: "new"}}}

	if _, err := Patch(db, base, patch, "leftover-archive"); err == nil {
		t.Fatal("expected a leftover-base-command error")
	}
}
