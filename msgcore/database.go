package msgcore

import (
	"bytes"
	"strings"
)

// CommandDatabase is a named collection of command definitions, indexed
// by upper-cased name (multi-valued: overloads with different byte
// layouts share a name) and backed by a small one-entry "last match"
// cache keyed by byte prefix (§4.1). The cache is interior mutability
// behind the database handle; Match's signature looks pure to callers.
type CommandDatabase struct {
	Name string

	defs   []*CommandDefinition
	byName map[string][]*CommandDefinition

	cacheSeq        []byte
	cacheCandidates []*CommandDefinition

	// TextBoxSplitSnippet is a short script the patcher checks a base
	// window's commands against when merging two text boxes into one (an
	// empty patch box). A TextBoxSplit directive in the patch ends the
	// current patch box; the snippet is not substituted for it. Optional.
	TextBoxSplitSnippet *Script
}

// NewCommandDatabase returns an empty, named database.
func NewCommandDatabase(name string) *CommandDatabase {
	return &CommandDatabase{
		Name:   name,
		byName: make(map[string][]*CommandDefinition),
	}
}

// Add appends a definition and invalidates the match cache.
func (db *CommandDatabase) Add(def *CommandDefinition) {
	db.defs = append(db.defs, def)
	key := strings.ToUpper(def.Name)
	db.byName[key] = append(db.byName[key], def)
	db.invalidateCache()
}

func (db *CommandDatabase) invalidateCache() {
	db.cacheSeq = nil
	db.cacheCandidates = nil
}

// Find returns every definition whose name matches (case-insensitively),
// in insertion order.
func (db *CommandDatabase) Find(name string) []*CommandDefinition {
	found := db.byName[strings.ToUpper(name)]
	out := make([]*CommandDefinition, len(found))
	copy(out, found)
	return out
}

// Definitions returns every definition in insertion order.
func (db *CommandDatabase) Definitions() []*CommandDefinition {
	out := make([]*CommandDefinition, len(db.defs))
	copy(out, db.defs)
	return out
}

// Match returns every definition still structurally possible given the
// bytes read so far, per the algorithm in spec §4.1.
func (db *CommandDatabase) Match(s []byte) []*CommandDefinition {
	var candidates []*CommandDefinition

	if db.cacheSeq != nil && len(db.cacheSeq) <= len(s) && bytes.Equal(db.cacheSeq, s[:len(db.cacheSeq)]) {
		candidates = make([]*CommandDefinition, len(db.cacheCandidates))
		copy(candidates, db.cacheCandidates)
	} else if len(s) > 0 {
		for _, def := range db.defs {
			if len(def.Mask) == 0 || len(def.Base) == 0 {
				continue
			}
			if s[0]&def.Mask[0] == def.Base[0] {
				candidates = append(candidates, def)
			}
		}
	}

	if len(s) > 0 {
		filtered := candidates[:0:0]
		for _, def := range candidates {
			if def.Matches(s) {
				filtered = append(filtered, def)
			}
		}
		candidates = filtered
	}

	seqCopy := make([]byte, len(s))
	copy(seqCopy, s)
	db.cacheSeq = seqCopy
	db.cacheCandidates = candidates

	out := make([]*CommandDefinition, len(candidates))
	copy(out, candidates)
	return out
}

// IsSuitable reports whether def could stand in for cmd: every element
// present in cmd exists in def by name, every parameter present in that
// element exists in the candidate element, and every present parameter
// value is InRange under the candidate's parameter definition.
func IsSuitable(cmd *Command, def *CommandDefinition) bool {
	for _, elem := range cmd.Elements {
		if len(elem.Scalars) == 0 && len(elem.Entries) == 0 {
			continue
		}

		var candElem *CommandElementDefinition
		for _, e := range def.Elements {
			if e.Name == elem.Def.Name {
				candElem = e
				break
			}
		}
		if candElem == nil {
			return false
		}

		for name, par := range elem.Scalars {
			cp := candElem.FindScalarParam(name)
			if cp == nil {
				return false
			}
			if !cp.InRange(par.Value) {
				return false
			}
		}

		for _, entry := range elem.Entries {
			for name, par := range entry {
				var cp *ParameterDefinition
				for _, group := range candElem.DataGroups {
					for _, p := range group {
						if p.Name == name {
							cp = p
						}
					}
				}
				if cp == nil {
					return false
				}
				if !cp.InRange(par.Value) {
					return false
				}
			}
		}
	}
	return true
}

// MakeValidCommand returns cmd unchanged if it is already suitable for
// its own definition, or a rebuilt command bound to the first
// alternative definition (among Find(cmd.Name)) that IsSuitable accepts,
// with parameter values copied entry-by-entry. Returns (nil, false) if
// no candidate fits.
func (db *CommandDatabase) MakeValidCommand(cmd *Command) (*Command, bool) {
	if IsSuitable(cmd, cmd.Def) {
		return cmd, true
	}

	for _, def := range db.Find(cmd.Def.Name) {
		if def == cmd.Def {
			continue
		}
		if !IsSuitable(cmd, def) {
			continue
		}

		rebuilt := newCommand(def)
		for _, elem := range cmd.Elements {
			target := rebuilt.Element(elem.Def.Name)
			if target == nil {
				continue
			}
			for name, par := range elem.Scalars {
				if cp := target.Def.FindScalarParam(name); cp != nil {
					target.Scalars[name] = &Parameter{Def: cp, Value: par.Value, Text: par.Text}
				}
			}
			for _, entry := range elem.Entries {
				newEntry := make(DataEntry, len(entry))
				for name, par := range entry {
					var cp *ParameterDefinition
					for _, group := range target.Def.DataGroups {
						for _, p := range group {
							if p.Name == name {
								cp = p
							}
						}
					}
					if cp == nil {
						continue
					}
					newEntry[name] = &Parameter{Def: cp, Value: par.Value, Text: par.Text}
				}
				target.Entries = append(target.Entries, newEntry)
			}
		}
		return rebuilt, true
	}

	return nil, false
}
