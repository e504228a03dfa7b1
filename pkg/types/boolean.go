package types

import "strconv"

// BoolField represents a non-NULL boolean column value.
type BoolField struct {
	Value bool
}

func NewBoolField(value bool) *BoolField {
	return &BoolField{Value: value}
}

// Compare supports only = and <>.
func (f *BoolField) Compare(op Predicate, other Field) (bool, error) {
	otherField, ok := other.(*BoolField)
	if !ok {
		return false, mismatch(op, f, other)
	}

	switch op {
	case Equals:
		return f.Value == otherField.Value, nil
	case NotEqual:
		return f.Value != otherField.Value, nil
	default:
		return false, mismatch(op, f, other)
	}
}

func (f *BoolField) Type() Type {
	return BoolType
}

func (f *BoolField) String() string {
	return strconv.FormatBool(f.Value)
}

func (f *BoolField) Equals(other Field) bool {
	otherField, ok := other.(*BoolField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}
