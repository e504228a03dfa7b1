// Package expr is the tri-state predicate evaluator used by record sources.
//
// Boolean expressions return types.TriState by value; Unknown is the SQL
// NULL outcome. Value expressions read the current row of a stream from the
// request's record buffers, so the same compiled expression can be evaluated
// under any number of requests.
package expr

import (
	"fmt"
	"strings"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/request"
	"recsrc/pkg/types"
)

// Boolean is a compiled predicate.
type Boolean interface {
	Evaluate(req *request.Request) (types.TriState, error)
	String() string
}

// Value is a compiled scalar expression. A nil Field result is SQL NULL.
type Value interface {
	Eval(req *request.Request) (types.Field, error)
	String() string
}

// ColumnRef reads column Index of the current row of Stream.
type ColumnRef struct {
	Stream request.StreamID
	Index  int
	Name   string
}

func Column(stream request.StreamID, index int, name string) ColumnRef {
	return ColumnRef{Stream: stream, Index: index, Name: name}
}

func (c ColumnRef) Eval(req *request.Request) (types.Field, error) {
	return req.Record(c.Stream).Field(c.Index)
}

func (c ColumnRef) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("s%d.#%d", c.Stream, c.Index)
}

// ConstValue is a literal; a nil Field is the NULL literal.
type ConstValue struct {
	Field types.Field
}

func Const(f types.Field) ConstValue {
	return ConstValue{Field: f}
}

func Int(v int64) ConstValue     { return Const(types.NewIntField(v)) }
func String(v string) ConstValue { return Const(types.NewStringField(v)) }
func Null() ConstValue           { return Const(nil) }

func (c ConstValue) Eval(*request.Request) (types.Field, error) {
	return c.Field, nil
}

func (c ConstValue) String() string {
	if s, ok := c.Field.(*types.StringField); ok {
		return "'" + strings.ReplaceAll(s.Value, "'", "''") + "'"
	}
	return types.FieldString(c.Field)
}

// Comparison is Left Op Right. Any NULL operand yields Unknown.
type Comparison struct {
	Op    types.Predicate
	Left  Value
	Right Value
}

func Compare(op types.Predicate, left, right Value) Comparison {
	return Comparison{Op: op, Left: left, Right: right}
}

func Equal(left, right Value) Comparison       { return Compare(types.Equals, left, right) }
func NotEqual(left, right Value) Comparison    { return Compare(types.NotEqual, left, right) }
func LessThan(left, right Value) Comparison    { return Compare(types.LessThan, left, right) }
func GreaterThan(left, right Value) Comparison { return Compare(types.GreaterThan, left, right) }

func (c Comparison) Evaluate(req *request.Request) (types.TriState, error) {
	left, err := c.Left.Eval(req)
	if err != nil {
		return types.Unknown, err
	}
	right, err := c.Right.Eval(req)
	if err != nil {
		return types.Unknown, err
	}

	if left == nil || right == nil {
		return types.Unknown, nil
	}

	ok, err := left.Compare(c.Op, right)
	if err != nil {
		return types.Unknown, dberror.New(dberror.ErrCategoryUser, dberror.CodeTypeMismatch, err.Error()).
			WithOperation("Evaluate", "Comparison").
			WithDetail(c.String()).
			WithCause(err)
	}
	return types.FromBool(ok), nil
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// AndNode is Kleene conjunction. It stops at the first False operand.
type AndNode struct {
	Operands []Boolean
}

func And(operands ...Boolean) AndNode {
	return AndNode{Operands: operands}
}

func (n AndNode) Evaluate(req *request.Request) (types.TriState, error) {
	result := types.True
	for _, op := range n.Operands {
		v, err := op.Evaluate(req)
		if err != nil {
			return types.Unknown, err
		}
		result = result.And(v)
		if result == types.False {
			return types.False, nil
		}
	}
	return result, nil
}

func (n AndNode) String() string { return join(n.Operands, " AND ") }

// OrNode is Kleene disjunction. It stops at the first True operand.
type OrNode struct {
	Operands []Boolean
}

func Or(operands ...Boolean) OrNode {
	return OrNode{Operands: operands}
}

func (n OrNode) Evaluate(req *request.Request) (types.TriState, error) {
	result := types.False
	for _, op := range n.Operands {
		v, err := op.Evaluate(req)
		if err != nil {
			return types.Unknown, err
		}
		result = result.Or(v)
		if result == types.True {
			return types.True, nil
		}
	}
	return result, nil
}

func (n OrNode) String() string { return join(n.Operands, " OR ") }

// NotNode negates its operand; NOT Unknown stays Unknown.
type NotNode struct {
	Operand Boolean
}

func Not(operand Boolean) NotNode {
	return NotNode{Operand: operand}
}

func (n NotNode) Evaluate(req *request.Request) (types.TriState, error) {
	v, err := n.Operand.Evaluate(req)
	if err != nil {
		return types.Unknown, err
	}
	return v.Not(), nil
}

func (n NotNode) String() string { return "NOT (" + n.Operand.String() + ")" }

// IsNullNode is never Unknown.
type IsNullNode struct {
	Operand Value
}

func IsNull(operand Value) IsNullNode {
	return IsNullNode{Operand: operand}
}

func (n IsNullNode) Evaluate(req *request.Request) (types.TriState, error) {
	v, err := n.Operand.Eval(req)
	if err != nil {
		return types.Unknown, err
	}
	return types.FromBool(v == nil), nil
}

func (n IsNullNode) String() string { return n.Operand.String() + " IS NULL" }

// LiteralNode is a constant truth value.
type LiteralNode struct {
	Value types.TriState
}

func Literal(v types.TriState) LiteralNode {
	return LiteralNode{Value: v}
}

func (n LiteralNode) Evaluate(*request.Request) (types.TriState, error) {
	return n.Value, nil
}

func (n LiteralNode) String() string { return n.Value.String() }

func join(operands []Boolean, sep string) string {
	parts := make([]string, len(operands))
	for i, op := range operands {
		parts[i] = "(" + op.String() + ")"
	}
	return strings.Join(parts, sep)
}
