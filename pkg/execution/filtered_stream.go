package execution

import (
	dberror "recsrc/pkg/error"
	"recsrc/pkg/expr"
	"recsrc/pkg/request"
)

// filterState is the per-request state of a FilteredStream.
type filterState struct {
	open       bool
	exhausted  bool
	sawUnknown bool
}

// FilteredStream passes on the rows of its input for which a boolean
// predicate is True, or, when built with a Quantifier, delivers a single
// ANY / ALL verdict over the whole input.
type FilteredStream struct {
	unary
	boolean    expr.Boolean
	quantifier *Quantifier
	selection  selection
	impure     request.Slot[filterState]
}

var (
	_ RecordSource    = (*FilteredStream)(nil)
	_ UnknownReporter = (*FilteredStream)(nil)
)

// NewFilteredStream creates a plain filter over next.
func NewFilteredStream(c *request.Compiler, next RecordSource, boolean expr.Boolean) (*FilteredStream, error) {
	return newFilteredStream(c, next, boolean, nil)
}

// NewQuantifiedStream creates a filter evaluating an ANY / ALL predicate.
// A quantifier without a Column comparison degrades to a plain filter.
func NewQuantifiedStream(c *request.Compiler, next RecordSource, boolean expr.Boolean, q Quantifier) (*FilteredStream, error) {
	return newFilteredStream(c, next, boolean, &q)
}

func newFilteredStream(c *request.Compiler, next RecordSource, boolean expr.Boolean, q *Quantifier) (*FilteredStream, error) {
	if c == nil {
		return nil, invalidPlan("compiler cannot be nil")
	}
	if next == nil {
		return nil, invalidPlan("child record source cannot be nil")
	}
	if boolean == nil {
		return nil, invalidPlan("predicate cannot be nil")
	}

	sel, err := newSelection(q)
	if err != nil {
		return nil, invalidPlan(err.Error())
	}

	return &FilteredStream{
		unary:      unary{next: next},
		boolean:    boolean,
		quantifier: q,
		selection:  sel,
		impure:     request.Allocate[filterState](c),
	}, nil
}

func invalidPlan(msg string) error {
	return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, msg).
		WithOperation("NewFilteredStream", "FilteredStream")
}

func (f *FilteredStream) Open(req *request.Request) error {
	state := f.impure.Get(req)
	*state = filterState{open: true}

	return f.next.Open(req)
}

// Close invalidates the rows below before it clears the open flag, and
// closes the input only once per open.
func (f *FilteredStream) Close(req *request.Request) error {
	f.InvalidateRecords(req)

	state := f.impure.Get(req)
	if !state.open {
		return nil
	}

	*state = filterState{}
	return f.next.Close(req)
}

// GetRecord returns false without touching the input when the stream is
// closed or already exhausted in this open/close cycle. Errors from the input
// or the predicate are returned unchanged after the rows are invalidated.
func (f *FilteredStream) GetRecord(req *request.Request) (bool, error) {
	state := f.impure.Get(req)
	if !state.open || state.exhausted {
		return false, nil
	}

	matched, unknown, err := f.selection.evaluate(req, f.next, f.boolean)
	if err != nil {
		f.InvalidateRecords(req)
		return false, err
	}

	state.sawUnknown = unknown
	if !matched {
		state.exhausted = true
		f.InvalidateRecords(req)
		return false, nil
	}

	if f.selection.singleVerdict() {
		state.exhausted = true
	}
	return true, nil
}

// RefetchRecord re-reads the current row and re-checks the predicate on it.
func (f *FilteredStream) RefetchRecord(req *request.Request) (bool, error) {
	ok, err := f.next.RefetchRecord(req)
	if err != nil || !ok {
		return false, err
	}

	v, err := f.boolean.Evaluate(req)
	if err != nil {
		return false, err
	}
	return v.IsTrue(), nil
}

// SawUnknown reports whether the last unsuccessful scan in req met a row
// whose predicate was Unknown. Quantified streams always report false.
func (f *FilteredStream) SawUnknown(req *request.Request) bool {
	return f.impure.Get(req).sawUnknown
}

// Describe lists the input first, then one subquery node per sub-plan
// evaluated by the predicate or the quantifier.
func (f *FilteredStream) Describe() Description {
	detail := f.boolean.String()
	if q := f.selection.String(); q != "" {
		detail = q + " " + detail
	}

	children := []Description{f.next.Describe()}
	predicates := []expr.Boolean{f.boolean}
	if f.quantifier != nil {
		predicates = append(predicates, f.quantifier.Select, f.quantifier.Column)
	}
	for _, sub := range subqueries(predicates...) {
		children = append(children, Description{
			Kind:     KindSubquery,
			Children: []Description{sub.Source().Describe()},
		})
	}

	return Description{
		Kind:     KindFilter,
		Detail:   detail,
		Children: children,
	}
}
