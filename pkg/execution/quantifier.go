package execution

import (
	"fmt"

	"recsrc/pkg/expr"
	"recsrc/pkg/request"
	"recsrc/pkg/types"
)

// QuantifierKind selects the quantified-comparison shape of a filter.
type QuantifierKind int

const (
	NoQuantifier QuantifierKind = iota
	QuantifierAny
	QuantifierAll
)

func (k QuantifierKind) String() string {
	switch k {
	case QuantifierAny:
		return "ANY"
	case QuantifierAll:
		return "ALL"
	default:
		return "NONE"
	}
}

// Quantifier describes an ANY / ALL comparison against a subquery.
//
// Column is the column comparison of the quantified predicate; without it
// the filter behaves as a plain filter. Select, when present, tells whether
// the current row belongs to the compared set at all.
type Quantifier struct {
	Kind    QuantifierKind
	Negated bool
	Select  expr.Boolean
	Column  expr.Boolean
}

func (q Quantifier) String() string {
	s := q.Kind.String()
	if q.Negated {
		s = "NOT " + s
	}
	return s
}

// selection is the row-selection algorithm of a FilteredStream, chosen once
// at construction.
type selection interface {
	// evaluate pulls from the child until the outcome is known. unknown
	// reports an Unknown predicate seen by a scan that found no match.
	evaluate(req *request.Request, next RecordSource, boolean expr.Boolean) (matched, unknown bool, err error)

	// singleVerdict is true for quantified selections, which deliver one
	// verdict per open/close cycle.
	singleVerdict() bool

	String() string
}

func newSelection(q *Quantifier) (selection, error) {
	if q == nil || q.Kind == NoQuantifier || q.Column == nil {
		return plainFilter{}, nil
	}

	switch q.Kind {
	case QuantifierAny:
		if q.Negated {
			return notAnyQuantifier{sel: q.Select, column: q.Column}, nil
		}
		return anyQuantifier{}, nil
	case QuantifierAll:
		return allQuantifier{negated: q.Negated, sel: q.Select}, nil
	default:
		return nil, fmt.Errorf("unsupported quantifier kind %d", q.Kind)
	}
}

// plainFilter returns the first row whose predicate is True.
type plainFilter struct{}

func (plainFilter) evaluate(req *request.Request, next RecordSource, boolean expr.Boolean) (bool, bool, error) {
	sawUnknown := false
	for {
		ok, err := next.GetRecord(req)
		if err != nil || !ok {
			return false, sawUnknown, err
		}

		v, err := boolean.Evaluate(req)
		if err != nil {
			return false, sawUnknown, err
		}

		switch v {
		case types.True:
			return true, sawUnknown, nil
		case types.Unknown:
			sawUnknown = true
		}
	}
}

func (plainFilter) singleVerdict() bool { return false }
func (plainFilter) String() string    { return "" }

// anyQuantifier is true on the first True row. Unknown rows never make it
// true and an empty input is false.
type anyQuantifier struct{}

func (anyQuantifier) evaluate(req *request.Request, next RecordSource, boolean expr.Boolean) (bool, bool, error) {
	for {
		ok, err := next.GetRecord(req)
		if err != nil || !ok {
			return false, false, err
		}

		v, err := boolean.Evaluate(req)
		if err != nil {
			return false, false, err
		}
		if v == types.True {
			return true, false, nil
		}
	}
}

func (anyQuantifier) singleVerdict() bool { return true }
func (anyQuantifier) String() string    { return "ANY" }

// notAnyQuantifier stops at the first True row (anyTrue) or at the first
// row whose comparison is Unknown (anyNull) and yields anyTrue || anyNull.
// An empty input yields false.
type notAnyQuantifier struct {
	sel    expr.Boolean
	column expr.Boolean
}

func (q notAnyQuantifier) evaluate(req *request.Request, next RecordSource, boolean expr.Boolean) (bool, bool, error) {
	for {
		ok, err := next.GetRecord(req)
		if err != nil || !ok {
			return false, false, err
		}

		v, err := boolean.Evaluate(req)
		if err != nil {
			return false, false, err
		}
		if v == types.True {
			return true, false, nil
		}

		if q.sel == nil {
			if v == types.Unknown {
				return true, false, nil
			}
			continue
		}

		inSet, err := q.sel.Evaluate(req)
		if err != nil {
			return false, false, err
		}
		if inSet != types.True {
			continue
		}

		cmp, err := q.column.Evaluate(req)
		if err != nil {
			return false, false, err
		}
		if cmp == types.Unknown {
			return true, false, nil
		}
	}
}

func (notAnyQuantifier) singleVerdict() bool { return true }
func (notAnyQuantifier) String() string    { return "NOT ANY" }

// allQuantifier is false once a row's predicate is definitely False and,
// when a select predicate is present, the row belongs to the compared set.
// Unknown rows do not falsify it; an empty input yields true.
type allQuantifier struct {
	negated bool
	sel     expr.Boolean
}

func (q allQuantifier) evaluate(req *request.Request, next RecordSource, boolean expr.Boolean) (bool, bool, error) {
	for {
		ok, err := next.GetRecord(req)
		if err != nil {
			return false, false, err
		}
		if !ok {
			return true, false, nil
		}

		v, err := boolean.Evaluate(req)
		if err != nil {
			return false, false, err
		}
		if v != types.False {
			continue
		}

		if q.sel == nil {
			return false, false, nil
		}

		inSet, err := q.sel.Evaluate(req)
		if err != nil {
			return false, false, err
		}
		if inSet == types.True {
			return false, false, nil
		}
	}
}

func (allQuantifier) singleVerdict() bool { return true }

func (q allQuantifier) String() string {
	if q.negated {
		return "NOT ALL"
	}
	return "ALL"
}
