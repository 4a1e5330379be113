package msgcore

import (
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadCommandDatabaseFile reads a command database from a TOML file, the
// on-disk counterpart of the in-memory CommandDatabase the matcher and
// codec operate on. The format mirrors FileConfig's choice of TOML over a
// bespoke text format: nothing else in the corpus parses structured data,
// so the one structured-data library already in use carries this too.
func LoadCommandDatabaseFile(path string) (*CommandDatabase, error) {
	var f dbFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing command database %q: %v", ErrFormat, path, err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%w: command database %q missing name", ErrInvalidInput, path)
	}

	db := NewCommandDatabase(f.Name)
	for _, c := range f.Commands {
		def, err := c.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("%w: command %q in %q: %v", ErrFormat, c.Name, path, err)
		}
		if def.MugshotParameterName != "" && def.FindMugshotParam() == nil {
			return nil, fmt.Errorf("%w: command %q in %q: mugshot_param %q does not resolve to a scalar parameter on a non-repeating element", ErrFormat, def.Name, path, def.MugshotParameterName)
		}
		db.Add(def)
	}

	if len(f.SplitSnippet) > 0 {
		snippet := &Script{DatabaseName: f.Name}
		for _, name := range f.SplitSnippet {
			defs := db.Find(name)
			if len(defs) == 0 {
				return nil, fmt.Errorf("%w: split_snippet_commands names unknown command %q", ErrFormat, name)
			}
			snippet.Elements = append(snippet.Elements, newCommand(defs[0]))
		}
		db.TextBoxSplitSnippet = snippet
	}

	return db, nil
}

type dbFile struct {
	Name         string      `toml:"name"`
	SplitSnippet []string    `toml:"split_snippet_commands"`
	Commands     []dbCommand `toml:"command"`
}

type dbCommand struct {
	Name           string      `toml:"name"`
	Base           string      `toml:"base"`
	Mask           string      `toml:"mask"`
	EndType        string      `toml:"end_type"`
	Prints         bool        `toml:"prints"`
	MugshotParam   string      `toml:"mugshot_param"`
	RewindCount    int         `toml:"rewind_count"`
	PriorityLength int         `toml:"priority_length"`
	Elements       []dbElement `toml:"element"`
}

type dbElement struct {
	Name        string         `toml:"name"`
	Scalars     []dbParam      `toml:"scalar"`
	Length      *dbParam       `toml:"length"`
	GroupParams []dbGroupParam `toml:"group_param"`
}

type dbParam struct {
	Name          string `toml:"name"`
	Offset        int    `toml:"offset"`
	Shift         int    `toml:"shift"`
	Bits          int    `toml:"bits"`
	Add           int64  `toml:"add"`
	IsJump        bool   `toml:"is_jump"`
	ValueEncoding string `toml:"value_encoding"`
	DataGroups    []int  `toml:"data_groups"`
	OffsetKind    string `toml:"offset_kind"`
	LabelName     string `toml:"label_name"`
}

type dbGroupParam struct {
	Group int `toml:"group"`
	dbParam
}

func (c *dbCommand) toDefinition() (*CommandDefinition, error) {
	base, err := hex.DecodeString(c.Base)
	if err != nil {
		return nil, fmt.Errorf("bad base hex %q: %w", c.Base, err)
	}
	mask, err := hex.DecodeString(c.Mask)
	if err != nil {
		return nil, fmt.Errorf("bad mask hex %q: %w", c.Mask, err)
	}
	endType, err := parseEndType(c.EndType)
	if err != nil {
		return nil, err
	}

	def := &CommandDefinition{
		Name:                 c.Name,
		Base:                 base,
		Mask:                 mask,
		EndType:              endType,
		Prints:               c.Prints,
		MugshotParameterName: c.MugshotParam,
		RewindCount:          c.RewindCount,
		PriorityLength:       c.PriorityLength,
	}

	for _, e := range c.Elements {
		elemDef, err := e.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", e.Name, err)
		}
		def.Elements = append(def.Elements, elemDef)
	}

	return def, nil
}

func (e *dbElement) toDefinition() (*CommandElementDefinition, error) {
	elemDef := &CommandElementDefinition{Name: e.Name}

	for _, s := range e.Scalars {
		p, err := s.toDefinition()
		if err != nil {
			return nil, err
		}
		elemDef.ScalarParams = append(elemDef.ScalarParams, p)
	}

	if e.Length != nil {
		p, err := e.Length.toDefinition()
		if err != nil {
			return nil, err
		}
		elemDef.LengthParam = p
	}

	maxGroup := -1
	for _, gp := range e.GroupParams {
		if gp.Group > maxGroup {
			maxGroup = gp.Group
		}
	}
	if maxGroup >= 0 {
		elemDef.DataGroups = make([][]*ParameterDefinition, maxGroup+1)
		for _, gp := range e.GroupParams {
			p, err := gp.dbParam.toDefinition()
			if err != nil {
				return nil, err
			}
			elemDef.DataGroups[gp.Group] = append(elemDef.DataGroups[gp.Group], p)
		}
	}

	return elemDef, nil
}

func (p *dbParam) toDefinition() (*ParameterDefinition, error) {
	kind, err := parseOffsetKind(p.OffsetKind)
	if err != nil {
		return nil, err
	}
	return &ParameterDefinition{
		Name:            p.Name,
		Offset:          p.Offset,
		Shift:           p.Shift,
		Bits:            p.Bits,
		Add:             p.Add,
		IsJump:          p.IsJump,
		ValueEncoding:   p.ValueEncoding,
		DataGroups:      p.DataGroups,
		OffsetKindWrite: kind,
		LabelName:       p.LabelName,
	}, nil
}

func parseEndType(s string) (EndType, error) {
	switch s {
	case "", "never":
		return EndNever, nil
	case "default":
		return EndDefault, nil
	case "always":
		return EndAlways, nil
	default:
		return EndNever, fmt.Errorf("%w: unknown end_type %q", ErrFormat, s)
	}
}

func parseOffsetKind(s string) (OffsetKind, error) {
	switch s {
	case "", "start":
		return OffsetStart, nil
	case "end":
		return OffsetEnd, nil
	case "label":
		return OffsetLabel, nil
	default:
		return OffsetStart, fmt.Errorf("%w: unknown offset_kind %q", ErrFormat, s)
	}
}
