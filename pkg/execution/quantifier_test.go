package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recsrc/pkg/expr"
	"recsrc/pkg/request"
	"recsrc/pkg/types"
)

const (
	T = types.True
	F = types.False
	U = types.Unknown
)

// row builds a truth row of (predicate, select, column) outcomes.
func row(pred, sel, col types.TriState) []types.Field {
	return []types.Field{truth(pred), truth(sel), truth(col)}
}

// verdict builds a quantified stream over truth rows and returns the first
// verdict along with the mock input.
func verdict(t *testing.T, kind QuantifierKind, negated, withSelect bool, rows ...[]types.Field) (bool, *mockSource) {
	t.Helper()
	c := request.NewCompiler()
	child := newMockSource(t, c, truthDesc(t), rows)

	q := Quantifier{
		Kind:    kind,
		Negated: negated,
		Column:  isTrue(child.stream, 2, "col"),
	}
	if withSelect {
		q.Select = isTrue(child.stream, 1, "sel")
	}

	stream, err := NewQuantifiedStream(c, child, isTrue(child.stream, 0, "pred"), q)
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	defer func() { require.NoError(t, stream.Close(req)) }()

	ok, err := stream.GetRecord(req)
	require.NoError(t, err)
	return ok, child
}

func TestQuantifier_String(t *testing.T) {
	assert.Equal(t, "ANY", Quantifier{Kind: QuantifierAny}.String())
	assert.Equal(t, "NOT ANY", Quantifier{Kind: QuantifierAny, Negated: true}.String())
	assert.Equal(t, "ALL", Quantifier{Kind: QuantifierAll}.String())
	assert.Equal(t, "NOT ALL", Quantifier{Kind: QuantifierAll, Negated: true}.String())
	assert.Equal(t, "NONE", NoQuantifier.String())
}

// ============================================================================
// ANY
// ============================================================================

func TestAny_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		rows [][]types.Field
		want bool
	}{
		{"empty input", nil, false},
		{"single true", [][]types.Field{row(T, U, U)}, true},
		{"true after false", [][]types.Field{row(F, U, U), row(T, U, U)}, true},
		{"only unknown", [][]types.Field{row(U, U, U), row(U, U, U)}, false},
		{"false and unknown", [][]types.Field{row(F, U, U), row(U, U, U)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := verdict(t, QuantifierAny, false, false, tt.rows...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAny_StopsAtFirstTrue(t *testing.T) {
	got, child := verdict(t, QuantifierAny, false, false, row(F, U, U), row(T, U, U), row(T, U, U), row(F, U, U))
	assert.True(t, got)
	assert.Equal(t, 2, child.calls["GetRecord"])
}

func TestAny_EmptySetWithIntegerComparison(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), nil)
	eq := expr.Equal(expr.Column(child.stream, 0, "value"), expr.Int(5))

	stream, err := NewQuantifiedStream(c, child, eq, Quantifier{Kind: QuantifierAny, Column: eq})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	ok, err := stream.GetRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ============================================================================
// NOT ANY
// ============================================================================

func TestNotAny_WithoutSelect(t *testing.T) {
	tests := []struct {
		name string
		rows [][]types.Field
		want bool
	}{
		{"empty input", nil, false},
		{"all false", [][]types.Field{row(F, U, U), row(F, U, U)}, false},
		{"true row", [][]types.Field{row(F, U, U), row(T, U, U)}, true},
		{"unknown row", [][]types.Field{row(F, U, U), row(U, U, U)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := verdict(t, QuantifierAny, true, false, tt.rows...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotAny_WithSelect(t *testing.T) {
	tests := []struct {
		name string
		rows [][]types.Field
		want bool
	}{
		{"unknown column inside the set", [][]types.Field{row(U, T, U)}, true},
		{"unknown column outside the set", [][]types.Field{row(U, F, U)}, false},
		{"unknown select", [][]types.Field{row(U, U, U)}, false},
		{"known column inside the set", [][]types.Field{row(F, T, F), row(U, T, T)}, false},
		{"true predicate ignores select", [][]types.Field{row(T, F, F)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := verdict(t, QuantifierAny, true, true, tt.rows...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotAny_NullInSetIsTrue(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(nil, 2))
	eq := expr.Equal(expr.Column(child.stream, 0, "value"), expr.Int(5))

	stream, err := NewQuantifiedStream(c, child, eq, Quantifier{Kind: QuantifierAny, Negated: true, Column: eq})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	ok, err := stream.GetRecord(req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, child.calls["GetRecord"], "stops at the NULL row")
}

// ============================================================================
// ALL / NOT ALL
// ============================================================================

func TestAll_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		withSelect bool
		rows       [][]types.Field
		want       bool
	}{
		{"empty input", false, nil, true},
		{"all true", false, [][]types.Field{row(T, U, U), row(T, U, U)}, true},
		{"one false", false, [][]types.Field{row(T, U, U), row(F, U, U)}, false},
		{"unknown does not falsify", false, [][]types.Field{row(U, U, U), row(T, U, U)}, true},
		{"false inside the set", true, [][]types.Field{row(F, T, U)}, false},
		{"false outside the set", true, [][]types.Field{row(F, F, U), row(T, T, U)}, true},
		{"false with unknown select", true, [][]types.Field{row(F, U, U)}, true},
	}

	for _, kind := range []bool{false, true} {
		for _, tt := range tests {
			name := tt.name
			if kind {
				name = "not " + name
			}
			t.Run(name, func(t *testing.T) {
				got, _ := verdict(t, QuantifierAll, kind, tt.withSelect, tt.rows...)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestAll_IntegerBound(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 2, 3))
	lt := expr.LessThan(expr.Column(child.stream, 0, "value"), expr.Int(10))

	stream, err := NewQuantifiedStream(c, child, lt, Quantifier{Kind: QuantifierAll, Column: lt})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	ok, err := stream.GetRecord(req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, req.Record(child.stream).Valid(), "the input was drained")
}

func TestAll_StopsAtFirstFalse(t *testing.T) {
	got, child := verdict(t, QuantifierAll, false, false, row(T, U, U), row(F, U, U), row(T, U, U))
	assert.False(t, got)
	assert.Equal(t, 2, child.calls["GetRecord"])
}

// ============================================================================
// SHARED BEHAVIOUR
// ============================================================================

func TestQuantifiedStream_DeliversOneVerdict(t *testing.T) {
	for _, kind := range []QuantifierKind{QuantifierAny, QuantifierAll} {
		t.Run(kind.String(), func(t *testing.T) {
			c := request.NewCompiler()
			child := newMockSource(t, c, truthDesc(t), [][]types.Field{row(T, U, U), row(T, U, U), row(T, U, U)})
			stream, err := NewQuantifiedStream(c, child, isTrue(child.stream, 0, "pred"),
				Quantifier{Kind: kind, Column: isTrue(child.stream, 2, "col")})
			require.NoError(t, err)

			req := newRequest(c)
			require.NoError(t, stream.Open(req))
			ok, err := stream.GetRecord(req)
			require.NoError(t, err)
			require.True(t, ok)

			pulls := child.calls["GetRecord"]
			ok, err = stream.GetRecord(req)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, pulls, child.calls["GetRecord"])

			// A new open/close cycle yields a fresh verdict.
			require.NoError(t, Rewind(req, stream))
			ok, err = stream.GetRecord(req)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestQuantifiedStream_WithoutColumnIsPlainFilter(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 3, 4))
	stream, err := NewQuantifiedStream(c, child, greaterThan(child.stream, 2), Quantifier{Kind: QuantifierAll})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	rows, err := Collect(req, stream)
	require.NoError(t, err)
	assert.Equal(t, []any{3, 4}, values(t, rows))
	assert.Equal(t, "value > 2", stream.Describe().Detail)
}

func TestQuantifiedStream_NeverReportsUnknown(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, truthDesc(t), [][]types.Field{row(U, U, U)})
	stream, err := NewQuantifiedStream(c, child, isTrue(child.stream, 0, "pred"),
		Quantifier{Kind: QuantifierAny, Column: isTrue(child.stream, 2, "col")})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	ok, err := stream.GetRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, stream.SawUnknown(req))
}

func TestQuantifiedStream_SelectErrorPropagates(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, truthDesc(t), [][]types.Field{row(F, T, U)})
	stream, err := NewQuantifiedStream(c, child, isTrue(child.stream, 0, "pred"),
		Quantifier{Kind: QuantifierAll, Select: errBoolean{err: errMockFetch}, Column: isTrue(child.stream, 2, "col")})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, stream.Open(req))
	_, err = stream.GetRecord(req)
	assert.Same(t, errMockFetch, err)
	assert.False(t, req.Record(child.stream).Valid())
}
