package msgcore

import (
	"bytes"
	"testing"
)

func TestReadScriptSingleCommandNoParameters(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(&CommandDefinition{
		Name:    "END",
		Base:    []byte{0xE0},
		Mask:    []byte{0xFF},
		EndType: EndAlways,
	})

	r := NewBinaryScriptReader(db, nil)
	data := []byte{0xE0, 0xFF}
	script, pos, err := r.ReadScript(data, 0, 0)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if len(script.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(script.Elements))
	}
	cmd, ok := script.Elements[0].(*Command)
	if !ok || cmd.Def.Name != "END" {
		t.Fatalf("got %#v, want END command", script.Elements[0])
	}
	if pos != 1 {
		t.Fatalf("pos = %d, want 1 (0xFF left unconsumed)", pos)
	}
}

func TestReadScriptBitPackedParameter(t *testing.T) {
	db := NewCommandDatabase("test")
	def := &CommandDefinition{
		Name: "SETVAL",
		Base: []byte{0x10},
		Mask: []byte{0xF0},
		Elements: []*CommandElementDefinition{
			{
				Name: "main",
				ScalarParams: []*ParameterDefinition{
					{Name: "value", Offset: 0, Shift: 0, Bits: 4},
				},
			},
		},
	}
	db.Add(def)

	r := NewBinaryScriptReader(db, nil)
	data := []byte{0x17}
	script, pos, err := r.ReadScript(data, 0, 0)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if pos != 1 {
		t.Fatalf("pos = %d, want 1", pos)
	}
	cmd := script.Elements[0].(*Command)
	par := cmd.Element("main").Scalars["value"]
	if par.Value != 7 {
		t.Fatalf("value = %d, want 7", par.Value)
	}

	w := NewBinaryScriptWriter(nil)
	out, err := w.Write(script)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(out, []byte{0x17}) {
		t.Fatalf("got %x, want 17", out)
	}
}

func TestReadScriptDataEntries(t *testing.T) {
	db := NewCommandDatabase("test")
	lengthParam := &ParameterDefinition{Name: "count", Offset: 1, Bits: 8}
	def := &CommandDefinition{
		Name: "TABLE",
		Base: []byte{0x80},
		Mask: []byte{0xFF},
		Elements: []*CommandElementDefinition{
			{
				Name:        "rows",
				LengthParam: lengthParam,
				DataGroups: [][]*ParameterDefinition{
					{
						{Name: "a", Offset: 0, Bits: 8},
						{Name: "b", Offset: 1, Bits: 8},
						{Name: "c", Offset: 2, Bits: 8},
					},
				},
			},
		},
	}
	db.Add(def)

	r := NewBinaryScriptReader(db, nil)
	data := []byte{0x80, 0x02, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	script, pos, err := r.ReadScript(data, 0, 0)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if pos != len(data) {
		t.Fatalf("pos = %d, want %d", pos, len(data))
	}

	cmd := script.Elements[0].(*Command)
	rows := cmd.Element("rows")
	if len(rows.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(rows.Entries))
	}
	want := [][3]int64{{0xAA, 0xBB, 0xCC}, {0xDD, 0xEE, 0xFF}}
	for i, w := range want {
		e := rows.Entries[i]
		if e["a"].Value != w[0] || e["b"].Value != w[1] || e["c"].Value != w[2] {
			t.Fatalf("entry %d = %v, want %v", i, e, w)
		}
	}

	w := NewBinaryScriptWriter(nil)
	out, err := w.Write(script)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip: got %x, want %x", out, data)
	}
}

func TestReadScriptUnmatchedByteFallsBack(t *testing.T) {
	db := NewCommandDatabase("test")
	db.Add(&CommandDefinition{Name: "END", Base: []byte{0xE0}, Mask: []byte{0xFF}, EndType: EndAlways})

	r := NewBinaryScriptReader(db, nil)
	data := []byte{0x01, 0xE0}
	script, pos, err := r.ReadScript(data, 0, 0)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if pos != 2 {
		t.Fatalf("pos = %d, want 2", pos)
	}
	if _, ok := script.Elements[0].(*ByteElement); !ok {
		t.Fatalf("first element = %#v, want ByteElement", script.Elements[0])
	}
	if _, ok := script.Elements[1].(*Command); !ok {
		t.Fatalf("second element = %#v, want Command", script.Elements[1])
	}
}
