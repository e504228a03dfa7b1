package tuple

import (
	"fmt"
	"strings"

	"recsrc/pkg/types"
)

// TupleDescription describes the schema of a tuple (like a table schema).
// It contains the types and names of fields in a tuple.
type TupleDescription struct {
	// Types contains the data type of each field in order
	Types []types.Type
	// FieldNames contains the name of each field (optional, may be nil)
	FieldNames []string
}

// NewTupleDesc creates a new TupleDescription given field types and optional field names.
// If fieldNames is nil, fields will have no names.
//
// Parameters:
//   - fieldTypes: slice of field types (must contain at least one element)
//   - fieldNames: optional slice of field names (must match fieldTypes length if provided)
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}

	typesCopy := make([]types.Type, len(fieldTypes))
	copy(typesCopy, fieldTypes)

	var namesCopy []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
				len(fieldNames), len(fieldTypes))
		}
		namesCopy = make([]string, len(fieldNames))
		copy(namesCopy, fieldNames)
	}

	return &TupleDescription{
		Types:      typesCopy,
		FieldNames: namesCopy,
	}, nil
}

// NumFields returns the number of fields in this tuple descriptor.
func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// TypeAtIndex returns the type of the ith field.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// FindFieldIndex looks a field up by (case-insensitive) name.
func (td *TupleDescription) FindFieldIndex(name string) (int, error) {
	for i, n := range td.FieldNames {
		if strings.EqualFold(n, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("field %q not found", name)
}

func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		name := ""
		if td.FieldNames != nil {
			name = td.FieldNames[i]
		}
		parts[i] = fmt.Sprintf("%s(%s)", name, t)
	}
	return strings.Join(parts, ", ")
}
