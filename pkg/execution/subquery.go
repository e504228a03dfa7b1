package execution

import (
	"github.com/hashicorp/go-multierror"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/expr"
	"recsrc/pkg/request"
	"recsrc/pkg/types"
)

// SubqueryPredicate evaluates a record source as a boolean: True when it
// yields a row, Unknown when it yields none but reports an Unknown predicate,
// False otherwise. Quantified streams make this the ANY / ALL verdict.
type SubqueryPredicate struct {
	source    RecordSource
	recursive bool
}

var _ expr.Boolean = (*SubqueryPredicate)(nil)

func NewSubqueryPredicate(source RecordSource) (*SubqueryPredicate, error) {
	if source == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "subquery source cannot be nil").
			WithOperation("NewSubqueryPredicate", "SubqueryPredicate")
	}
	return &SubqueryPredicate{source: source}, nil
}

// MarkRecursive makes every evaluation save and restore the source's records, for
// subqueries that scan streams the enclosing query is positioned on.
func (p *SubqueryPredicate) MarkRecursive() {
	p.recursive = true
	p.source.MarkRecursive()
}

// Source returns the record source the predicate evaluates.
func (p *SubqueryPredicate) Source() RecordSource { return p.source }

func (p *SubqueryPredicate) Evaluate(req *request.Request) (types.TriState, error) {
	if p.recursive {
		p.source.SaveRecords(req)
		defer p.source.RestoreRecords(req)
	}

	var result error
	found := false
	if err := p.source.Open(req); err != nil {
		result = multierror.Append(result, err)
	} else {
		found, err = p.source.GetRecord(req)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	unknown := false
	if !found && result == nil {
		if r, ok := p.source.(UnknownReporter); ok {
			unknown = r.SawUnknown(req)
		}
	}

	if err := p.source.Close(req); err != nil {
		result = multierror.Append(result, err)
	}

	if result != nil {
		if merr, ok := result.(*multierror.Error); ok && len(merr.Errors) == 1 {
			return types.Unknown, merr.Errors[0]
		}
		return types.Unknown, result
	}

	switch {
	case found:
		return types.True, nil
	case unknown:
		return types.Unknown, nil
	default:
		return types.False, nil
	}
}

func (p *SubqueryPredicate) String() string {
	return "SUBQUERY(" + p.source.Describe().Kind + ")"
}

// subqueries collects the subquery predicates reachable through AND, OR and
// NOT, in predicate order. Nil predicates are skipped.
func subqueries(predicates ...expr.Boolean) []*SubqueryPredicate {
	var found []*SubqueryPredicate
	var walk func(b expr.Boolean)
	walk = func(b expr.Boolean) {
		switch n := b.(type) {
		case *SubqueryPredicate:
			found = append(found, n)
		case expr.NotNode:
			walk(n.Operand)
		case expr.AndNode:
			for _, op := range n.Operands {
				walk(op)
			}
		case expr.OrNode:
			for _, op := range n.Operands {
				walk(op)
			}
		}
	}
	for _, b := range predicates {
		if b != nil {
			walk(b)
		}
	}
	return found
}
