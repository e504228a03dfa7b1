package types

type Type int

const (
	IntType Type = iota
	StringType
	BoolType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	case BoolType:
		return "BOOL_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// ParseType maps a schema type name ("int", "string", "bool") to a Type.
func ParseType(name string) (Type, bool) {
	switch name {
	case "int", "INT", "integer", "INTEGER", "bigint", "BIGINT":
		return IntType, true
	case "string", "STRING", "text", "TEXT", "varchar", "VARCHAR":
		return StringType, true
	case "bool", "BOOL", "boolean", "BOOLEAN":
		return BoolType, true
	default:
		return 0, false
	}
}
