package tuple

import (
	"fmt"
	"strings"

	"recsrc/pkg/types"
)

// Tuple represents a row of data. A nil field is SQL NULL.
type Tuple struct {
	TupleDesc *TupleDescription // Schema of this tuple
	fields    []types.Field     // The actual field values
}

// NewTuple creates a new all-NULL tuple with the given schema
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// FromFields builds a tuple, checking that every non-NULL field matches the schema.
func FromFields(td *TupleDescription, fields ...types.Field) (*Tuple, error) {
	if len(fields) != td.NumFields() {
		return nil, fmt.Errorf("expected %d fields, got %d", td.NumFields(), len(fields))
	}

	t := NewTuple(td)
	for i, f := range fields {
		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SetField stores field at index i; a nil field sets the column to NULL.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	if field != nil {
		expectedType, _ := t.TupleDesc.TypeAtIndex(i)
		if field.Type() != expectedType {
			return fmt.Errorf("field type mismatch: expected %v, got %v",
				expectedType, field.Type())
		}
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Fields returns a copy of the field slice.
func (t *Tuple) Fields() []types.Field {
	out := make([]types.Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Clone creates a shallow copy of the tuple; fields are immutable values.
func (t *Tuple) Clone() *Tuple {
	return &Tuple{
		TupleDesc: t.TupleDesc,
		fields:    t.Fields(),
	}
}

// Equals compares schema width and field values, treating two NULLs as equal.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || len(t.fields) != len(other.fields) {
		return false
	}
	for i, f := range t.fields {
		o := other.fields[i]
		if f == nil || o == nil {
			if f != o {
				return false
			}
			continue
		}
		if !f.Equals(o) {
			return false
		}
	}
	return true
}

// String returns a string representation of this tuple
// Format: field1\tfield2\t...\tfieldN
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, field := range t.fields {
		parts[i] = types.FieldString(field)
	}
	return strings.Join(parts, "\t")
}
