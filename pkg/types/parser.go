package types

import (
	"fmt"
	"strconv"
)

// FromValue converts a decoded scalar (from YAML, JSON or a database/sql
// driver) into a Field. nil maps to SQL NULL.
func FromValue(t Type, v any) (Field, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case IntType:
		switch n := v.(type) {
		case int:
			return NewIntField(int64(n)), nil
		case int32:
			return NewIntField(int64(n)), nil
		case int64:
			return NewIntField(n), nil
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("value %v is not an integer", n)
			}
			return NewIntField(int64(n)), nil
		case []byte:
			return parseInt(string(n))
		case string:
			return parseInt(n)
		}

	case StringType:
		switch s := v.(type) {
		case string:
			return NewStringField(s), nil
		case []byte:
			return NewStringField(string(s)), nil
		default:
			return NewStringField(fmt.Sprint(s)), nil
		}

	case BoolType:
		switch b := v.(type) {
		case bool:
			return NewBoolField(b), nil
		case int64:
			return NewBoolField(b != 0), nil
		case int:
			return NewBoolField(b != 0), nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, err
			}
			return NewBoolField(parsed), nil
		}
	}

	return nil, fmt.Errorf("cannot convert %T to %s", v, t)
}

func parseInt(s string) (Field, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return NewIntField(n), nil
}
