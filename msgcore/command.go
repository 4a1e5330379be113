package msgcore

// EndType signals whether executing a command terminates its script.
type EndType int

const (
	EndNever EndType = iota
	EndDefault
	EndAlways
)

func (t EndType) String() string {
	switch t {
	case EndNever:
		return "never"
	case EndDefault:
		return "default"
	case EndAlways:
		return "always"
	default:
		return "unknown"
	}
}

// CommandDefinition is the template for one opcode family: a fixed base
// byte sequence, an equal-length mask (matching is (b&mask[i])==base[i]),
// and the ordered element definitions that make up its parameters.
type CommandDefinition struct {
	Name string
	Base []byte
	Mask []byte

	EndType EndType
	// Prints marks a glyph-producing command that belongs inside a text
	// box, per spec §3.
	Prints bool

	// MugshotParameterName names a scalar parameter that selects the
	// active portrait; empty means "hides mugshot".
	MugshotParameterName string

	// RewindCount is how many trailing bytes of this command's emitted
	// buffer are left unconsumed on read / truncated on write, letting
	// the next command's base bytes overlap.
	RewindCount int

	// PriorityLength is carried for round-trip fidelity only; see
	// SPEC_FULL.md Open Question decisions. Never consulted by the
	// matcher.
	PriorityLength int

	Elements []*CommandElementDefinition
}

// MinimumLength is the number of bytes this definition's fixed base
// occupies.
func (d *CommandDefinition) MinimumLength() int {
	return len(d.Base)
}

// Matches reports whether s, taken as a byte-for-byte prefix of a
// command, is still compatible with this definition: every byte seen so
// far agrees with base under mask, and s has not outgrown the fixed
// part.
func (d *CommandDefinition) Matches(s []byte) bool {
	if len(s) > d.MinimumLength() {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i >= len(d.Mask) {
			return false
		}
		if s[i]&d.Mask[i] != d.Base[i] {
			return false
		}
	}
	return true
}

// FindMugshotParam resolves MugshotParameterName to its scalar parameter
// definition, or nil if unset or unresolved.
func (d *CommandDefinition) FindMugshotParam() *ParameterDefinition {
	if d.MugshotParameterName == "" {
		return nil
	}
	for _, e := range d.Elements {
		if e.HasMultipleDataEntries() {
			continue
		}
		if p := e.FindScalarParam(d.MugshotParameterName); p != nil {
			return p
		}
	}
	return nil
}

// Command is a concrete command instance bound to one definition, with
// per-element decoded data. Def is a non-owning reference: it stays
// valid as long as the CommandDatabase that produced it is alive.
type Command struct {
	Def      *CommandDefinition
	Elements []*CommandElement
}

func newCommand(def *CommandDefinition) *Command {
	c := &Command{Def: def}
	for _, ed := range def.Elements {
		c.Elements = append(c.Elements, newCommandElement(ed))
	}
	return c
}

// Element returns the decoded element with the given name, or nil.
func (c *Command) Element(name string) *CommandElement {
	for _, e := range c.Elements {
		if e.Def.Name == name {
			return e
		}
	}
	return nil
}

// EndsScript reports whether executing this command instance ends its
// script. For EndDefault it currently behaves like EndAlways (the
// distinction exists for definitions whose conditional termination is
// expressed purely via a differently-matched overload, per §3); the
// hook is kept explicit rather than collapsed into the matcher so a
// future conditional predicate has a home.
func (c *Command) EndsScript() bool {
	switch c.Def.EndType {
	case EndAlways, EndDefault:
		return true
	default:
		return false
	}
}
