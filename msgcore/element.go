package msgcore

// CommandElementDefinition is a named grouping of parameter definitions
// inside a command. An element either carries a fixed set of scalar
// parameters, or a repeated "data entry" counted by LengthParam, laid out
// as one or more DataGroups (each group an ordered list of parameter
// definitions making up one column-set of the entry).
type CommandElementDefinition struct {
	Name string

	// ScalarParams is the element's fixed, non-repeated parameter list.
	// Empty when the element is purely a data-entry table.
	ScalarParams []*ParameterDefinition

	// LengthParam, when non-nil, marks this element as having multiple
	// data entries; its decoded value is the entry count.
	LengthParam *ParameterDefinition

	// DataGroups holds, per group, the ordered parameter definitions of
	// one data entry's row in that group.
	DataGroups [][]*ParameterDefinition
}

// HasMultipleDataEntries reports whether this element is a repeated
// data-entry table rather than (or in addition to) a fixed scalar set.
func (e *CommandElementDefinition) HasMultipleDataEntries() bool {
	return e.LengthParam != nil
}

// FindScalarParam returns the scalar parameter definition with the given
// name, or nil.
func (e *CommandElementDefinition) FindScalarParam(name string) *ParameterDefinition {
	for _, p := range e.ScalarParams {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// DataEntry is one row of a command's embedded tabular data: a mapping
// from parameter name to its decoded value.
type DataEntry map[string]*Parameter

// CommandElement is the instance-side counterpart of
// CommandElementDefinition: the concrete scalar parameters plus zero or
// more data entries actually present in a decoded command.
type CommandElement struct {
	Def *CommandElementDefinition

	// Scalars holds the decoded scalar parameters, keyed by name.
	Scalars map[string]*Parameter

	// Entries holds the decoded data-entry rows, one per repetition.
	// Populated only when Def.HasMultipleDataEntries().
	Entries []DataEntry
}

func newCommandElement(def *CommandElementDefinition) *CommandElement {
	return &CommandElement{
		Def:     def,
		Scalars: make(map[string]*Parameter),
	}
}
