package msgcore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCommandDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")

	contents := `
name = "test"
split_snippet_commands = ["Split"]

[[command]]
name = "Split"
base = "01"
mask = "FF"
end_type = "never"
prints = false

[[command]]
name = "SetFlag"
base = "20"
mask = "FF"
end_type = "never"
prints = false

  [[command.element]]
  name = "Args"

    [[command.element.scalar]]
    name = "Value"
    offset = 0
    shift = 0
    bits = 8

[[command]]
name = "End"
base = "E0"
mask = "FF"
end_type = "always"
prints = false
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	db, err := LoadCommandDatabaseFile(path)
	if err != nil {
		t.Fatalf("LoadCommandDatabaseFile: %v", err)
	}

	if db.Name != "test" {
		t.Fatalf("db.Name = %q, want %q", db.Name, "test")
	}
	if defs := db.Find("SetFlag"); len(defs) != 1 {
		t.Fatalf("Find(SetFlag) = %v, want one definition", defs)
	} else if v := defs[0].Elements[0].FindScalarParam("Value"); v == nil || v.Bits != 8 {
		t.Fatalf("SetFlag.Args.Value = %+v, want Bits=8", v)
	}
	if db.TextBoxSplitSnippet == nil || len(db.TextBoxSplitSnippet.Elements) != 1 {
		t.Fatalf("TextBoxSplitSnippet = %+v, want one element", db.TextBoxSplitSnippet)
	}
}

func TestLoadCommandDatabaseFileResolvesMugshotParam(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mugshot.toml")

	contents := `
name = "test"

[[command]]
name = "ShowFace"
base = "30"
mask = "FF"
end_type = "never"
mugshot_param = "Face"

  [[command.element]]
  name = "Args"

    [[command.element.scalar]]
    name = "Face"
    offset = 0
    shift = 0
    bits = 8
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	db, err := LoadCommandDatabaseFile(path)
	if err != nil {
		t.Fatalf("LoadCommandDatabaseFile: %v", err)
	}
	if p := db.Find("ShowFace")[0].FindMugshotParam(); p == nil || p.Name != "Face" {
		t.Fatalf("FindMugshotParam = %+v, want Face", p)
	}
}

func TestLoadCommandDatabaseFileRejectsUnresolvedMugshotParam(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mugshot_bad.toml")

	contents := `
name = "test"

[[command]]
name = "ShowFace"
base = "30"
mask = "FF"
end_type = "never"
mugshot_param = "NoSuchParam"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadCommandDatabaseFile(path); err == nil {
		t.Fatal("expected an error for an unresolved mugshot_param")
	}
}

func TestLoadCommandDatabaseFileRejectsBadHex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")

	contents := `
name = "test"

[[command]]
name = "Broken"
base = "ZZ"
mask = "FF"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadCommandDatabaseFile(path); err == nil {
		t.Fatal("expected an error for invalid base hex")
	}
}
