package types

import (
	"cmp"
	"fmt"
)

// compareOrdered performs a comparison between two ordered values using the given predicate.
func compareOrdered[T cmp.Ordered](a, b T, op Predicate) (bool, error) {
	switch op {
	case Equals:
		return a == b, nil
	case LessThan:
		return a < b, nil
	case GreaterThan:
		return a > b, nil
	case LessThanOrEqual:
		return a <= b, nil
	case GreaterThanOrEqual:
		return a >= b, nil
	case NotEqual:
		return a != b, nil
	default:
		return false, fmt.Errorf("operator %s is not defined for ordered values", op)
	}
}

func mismatch(op Predicate, left, right Field) error {
	return fmt.Errorf("cannot compare %s %s %s", left.Type(), op, right.Type())
}
