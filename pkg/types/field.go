package types

// Field is a single non-NULL SQL value. SQL NULL is represented by a nil
// Field everywhere in the engine; Compare is never called with a nil operand.
type Field interface {
	Type() Type

	// Compare applies op with the receiver on the left. It fails when the
	// operand types are incompatible or the operator is not defined for them.
	Compare(op Predicate, other Field) (bool, error)

	String() string

	Equals(other Field) bool
}

// IsNull reports whether f is SQL NULL.
func IsNull(f Field) bool {
	return f == nil
}

// FieldString renders f, printing NULL for a nil field.
func FieldString(f Field) string {
	if f == nil {
		return "NULL"
	}
	return f.String()
}
