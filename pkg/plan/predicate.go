package plan

import (
	"fmt"
	"strings"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/execution"
	"recsrc/pkg/expr"
	"recsrc/pkg/types"
)

func (pc *compiler) predicate(p *Predicate, sc *scope) (expr.Boolean, error) {
	set := 0
	for _, present := range []bool{
		p.Compare != nil, len(p.And) > 0, len(p.Or) > 0, p.Not != nil,
		p.IsNull != nil, p.Literal != "", p.Subquery != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, invalidPlan("predicate", "a predicate needs exactly one of compare, and, or, not, is_null, literal or subquery")
	}

	switch {
	case p.Compare != nil:
		op, err := types.ParsePredicate(p.Compare.Op)
		if err != nil {
			return nil, invalidPlan("predicate", err.Error())
		}
		left, err := operand(p.Compare.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := operand(p.Compare.Right, sc)
		if err != nil {
			return nil, err
		}
		return expr.Compare(op, left, right), nil

	case len(p.And) > 0, len(p.Or) > 0:
		parts := p.And
		if len(parts) == 0 {
			parts = p.Or
		}
		operands := make([]expr.Boolean, len(parts))
		for i := range parts {
			b, err := pc.predicate(&parts[i], sc)
			if err != nil {
				return nil, err
			}
			operands[i] = b
		}
		if len(p.And) > 0 {
			return expr.And(operands...), nil
		}
		return expr.Or(operands...), nil

	case p.Not != nil:
		b, err := pc.predicate(p.Not, sc)
		if err != nil {
			return nil, err
		}
		return expr.Not(b), nil

	case p.IsNull != nil:
		v, err := operand(*p.IsNull, sc)
		if err != nil {
			return nil, err
		}
		return expr.IsNull(v), nil

	case p.Literal != "":
		switch strings.ToLower(p.Literal) {
		case "true":
			return expr.Literal(types.True), nil
		case "false":
			return expr.Literal(types.False), nil
		case "unknown", "null":
			return expr.Literal(types.Unknown), nil
		}
		return nil, invalidPlan("predicate", "literal must be true, false or unknown, got "+p.Literal)

	default:
		src, _, err := pc.node(p.Subquery.Node, sc)
		if err != nil {
			return nil, err
		}
		sub, err := execution.NewSubqueryPredicate(src)
		if err != nil {
			return nil, err
		}
		if p.Subquery.Recursive {
			sub.MarkRecursive()
		}
		return sub, nil
	}
}

func operand(o Operand, sc *scope) (expr.Value, error) {
	switch {
	case o.Column != "":
		b, index, err := sc.resolve(o.Column)
		if err != nil {
			return nil, err
		}
		return expr.Column(b.stream, index, o.Column), nil
	case o.Null:
		return expr.Null(), nil
	case o.Value == nil:
		return nil, invalidPlan("operand", "an operand needs a column, a value or null: true")
	}

	switch v := o.Value.(type) {
	case int:
		return expr.Int(int64(v)), nil
	case int64:
		return expr.Int(v), nil
	case string:
		return expr.String(v), nil
	case bool:
		return expr.Const(types.NewBoolField(v)), nil
	default:
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeTypeMismatch,
			fmt.Sprintf("unsupported constant %v of type %T", v, v)).
			WithOperation("operand", "plan")
	}
}
