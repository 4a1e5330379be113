package msgcore

import (
	"errors"
	"strings"
	"testing"
)

func TestDriverTestRoundTrip(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(&CommandDefinition{Name: "End", Base: []byte{0xE0}, Mask: []byte{0xFF}, EndType: EndAlways})

	driver := NewDriver(db, nil, DriverConfig{})

	script := &Script{Elements: []ScriptElement{newCommand(db.Find("End")[0])}}
	if err := driver.TestRoundTrip(script); err != nil {
		t.Fatalf("TestRoundTrip: %v", err)
	}
}

func TestDriverScanROMGroupsConsecutiveScriptsIntoOneArchive(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(endAlwaysDef())

	// Each 0xE0 ends a script, and the scanner keeps reading complete
	// scripts until the buffer runs out, so all three land in the archive
	// found at offset 0 and the sweep then skips past them.
	data := []byte{0xE0, 0xE0, 0xE0}
	driver := NewDriver(db, nil, DriverConfig{})

	archives, err := driver.ScanROM(data, 0, len(data), "rom")
	if err != nil {
		t.Fatalf("ScanROM: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("got %d archives, want 1: %v", len(archives), archives)
	}
	if len(archives[0].Scripts) != 3 {
		t.Fatalf("got %d scripts, want 3", len(archives[0].Scripts))
	}
}

func TestDriverScanROMProgressReportsEveryAdvance(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(endAlwaysDef())

	data := []byte{0xE0, 0xE0, 0xE0}
	driver := NewDriver(db, nil, DriverConfig{})

	var calls int
	var lastPos, lastFound int
	archives, err := driver.ScanROMProgress(data, 0, len(data), "rom", func(pos, end, found int) {
		calls++
		lastPos = pos
		lastFound = found
		if end != len(data) {
			t.Fatalf("end = %d, want %d", end, len(data))
		}
	})
	if err != nil {
		t.Fatalf("ScanROMProgress: %v", err)
	}
	// One archive holding all three scripts, so the sweep advances once,
	// from 0 straight to the end.
	if len(archives) != 1 {
		t.Fatalf("got %d archives, want 1", len(archives))
	}
	if calls != 1 {
		t.Fatalf("progress callback called %d times, want 1", calls)
	}
	if lastPos != len(data) || lastFound != 1 {
		t.Fatalf("final callback (pos=%d, found=%d), want (pos=%d, found=1)", lastPos, lastFound, len(data))
	}
}

func TestDriverScanROMAcceptsRepeatScanOfSameROM(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(endAlwaysDef())

	data := []byte{0xE0, 0xE0, 0xE0}
	driver := NewDriver(db, nil, DriverConfig{})

	if _, err := driver.ScanROM(data, 0, len(data), "rom"); err != nil {
		t.Fatalf("first ScanROM: %v", err)
	}
	if driver.Index.SourceCRC16 == 0 {
		t.Fatal("expected SourceCRC16 to be set after the first scan")
	}
	if _, err := driver.ScanROM(data, 0, len(data), "rom"); err != nil {
		t.Fatalf("second ScanROM of the same ROM: %v", err)
	}
}

func TestDriverScanROMRejectsDifferentROMAfterIndexBuilt(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(endAlwaysDef())

	romA := []byte{0xE0, 0xE0, 0xE0}
	romB := []byte{0xE0, 0xE0, 0xE0, 0xE0}

	driver := NewDriver(db, nil, DriverConfig{})
	if _, err := driver.ScanROM(romA, 0, len(romA), "rom"); err != nil {
		t.Fatalf("ScanROM(romA): %v", err)
	}

	_, err := driver.ScanROM(romB, 0, len(romB), "rom")
	if err == nil {
		t.Fatal("expected an error scanning a different ROM against an index built from romA")
	}
	if !errors.Is(err, ErrInconsistency) {
		t.Fatalf("err = %v, want ErrInconsistency", err)
	}
}

func TestExtractTextBoxes(t *testing.T) {
	end := cmdNamed("end")
	script := &Script{Elements: []ScriptElement{
		&TextElement{Text: "hello "},
		&TextElement{Text: "world"},
		end,
	}}

	boxes := ExtractTextBoxes(script)
	if len(boxes) != 1 || boxes[0] != "hello world" {
		t.Fatalf("boxes = %v, want [\"hello world\"]", boxes)
	}
}

func TestFormatAndParseTPLRoundTrip(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(&CommandDefinition{
		Name: "SetFlag", Base: []byte{0x20}, Mask: []byte{0xFF},
		Elements: []*CommandElementDefinition{
			{Name: "Args", ScalarParams: []*ParameterDefinition{
				{Name: "Value", Offset: 0, Shift: 0, Bits: 8, Add: 0},
			}},
		},
	})

	cmd := newCommand(db.Find("SetFlag")[0])
	cmd.Element("Args").Scalars["Value"] = &Parameter{Def: cmd.Element("Args").Def.FindScalarParam("Value"), Value: 42}

	archive := &TextArchive{
		Identifier: "000000",
		Scripts: []*Script{
			{Elements: []ScriptElement{&TextElement{Text: "hi"}, cmd}},
		},
	}

	tpl := FormatTPL(archive)

	parsed, err := ParseTPL(db, strings.NewReader(tpl))
	if err != nil {
		t.Fatalf("ParseTPL: %v", err)
	}
	if len(parsed.Elements) != 2 {
		t.Fatalf("got %d elements, want 2: %s", len(parsed.Elements), tpl)
	}
	text, ok := parsed.Elements[0].(*TextElement)
	if !ok || text.Text != "hi" {
		t.Fatalf("element 0 = %+v, want text \"hi\"", parsed.Elements[0])
	}
	gotCmd, ok := parsed.Elements[1].(*Command)
	if !ok || gotCmd.Def.Name != "SetFlag" {
		t.Fatalf("element 1 = %+v, want SetFlag command", parsed.Elements[1])
	}
	if v := gotCmd.Element("Args").Scalars["Value"].Value; v != 42 {
		t.Fatalf("Value = %d, want 42", v)
	}
}
