package execution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/expr"
	"recsrc/pkg/request"
	"recsrc/pkg/types"
)

func greaterThan(stream request.StreamID, v int64) expr.Boolean {
	return expr.GreaterThan(expr.Column(stream, 0, "value"), expr.Int(v))
}

// ============================================================================
// CONSTRUCTOR TESTS
// ============================================================================

func TestNewFilteredStream_RejectsMissingParts(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), nil)

	_, err := NewFilteredStream(c, nil, expr.Literal(types.True))
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeInvalidPlan))

	_, err = NewFilteredStream(c, child, nil)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeInvalidPlan))

	_, err = NewFilteredStream(nil, child, expr.Literal(types.True))
	assert.Error(t, err)

	_, err = NewQuantifiedStream(c, child, expr.Literal(types.True), Quantifier{Kind: QuantifierKind(9), Column: expr.Literal(types.True)})
	assert.Error(t, err)
}

// ============================================================================
// PLAIN FILTER
// ============================================================================

func TestFilteredStream_YieldsMatchingRowsInOrder(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 2, 3, 4))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	rows, err := Collect(req, filter)
	require.NoError(t, err)
	require.NoError(t, filter.Close(req))

	assert.Equal(t, []any{3, 4}, values(t, rows))
}

func TestFilteredStream_ExcludesUnknownAndFalseRows(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(5, nil, 1, 7, 3, nil))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	rows, err := Collect(req, filter)
	require.NoError(t, err)

	assert.Equal(t, []any{5, 7, 3}, values(t, rows))
	assert.True(t, filter.SawUnknown(req), "the trailing NULL is seen by the final scan")
}

func TestFilteredStream_SawUnknownOnlyForUnknownRows(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 2))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 5))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	ok, err := filter.GetRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, filter.SawUnknown(req))
}

func TestFilteredStream_LeavesMatchedRowLoaded(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 9))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	ok, err := filter.GetRecord(req)
	require.NoError(t, err)
	require.True(t, ok)

	f, err := req.Record(child.stream).Field(0)
	require.NoError(t, err)
	assert.True(t, f.Equals(types.NewIntField(9)))
}

func TestFilteredStream_ExhaustionInvalidatesAndSticks(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))

	ok, err := filter.GetRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, req.Record(child.stream).Valid())

	pulls := child.calls["GetRecord"]
	for i := 0; i < 3; i++ {
		ok, err = filter.GetRecord(req)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, pulls, child.calls["GetRecord"], "an exhausted stream must not pull again")
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestFilteredStream_GetRecordWhenClosedDoesNotTouchChild(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 2, 3))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 0))
	require.NoError(t, err)

	req := newRequest(c)

	ok, err := filter.GetRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, child.calls["GetRecord"], "never opened")

	require.NoError(t, filter.Open(req))
	ok, err = filter.GetRecord(req)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, filter.Close(req))

	pulls := child.calls["GetRecord"]
	ok, err = filter.GetRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, pulls, child.calls["GetRecord"])
	assert.Zero(t, child.getWhileClosed)
}

func TestFilteredStream_CloseIsIdempotent(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 0))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	require.NoError(t, filter.Close(req))
	require.NoError(t, filter.Close(req))

	assert.Equal(t, 1, child.calls["Close"])
	assert.Equal(t, 2, child.calls["InvalidateRecords"], "close always invalidates")
}

func TestFilteredStream_CloseWithoutOpen(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 0))
	require.NoError(t, err)

	require.NoError(t, filter.Close(newRequest(c)))
	assert.Zero(t, child.calls["Close"])
}

func TestFilteredStream_CloseInvalidatesRowsBeforeChildClose(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(4))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 0))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	ok, err := filter.GetRecord(req)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, req.Record(child.stream).Valid())

	require.NoError(t, filter.Close(req))
	assert.False(t, req.Record(child.stream).Valid())
}

func TestFilteredStream_ReopenStartsFresh(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 3))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	first, err := Collect(req, filter)
	require.NoError(t, err)

	require.NoError(t, Rewind(req, filter))
	second, err := Collect(req, filter)
	require.NoError(t, err)
	require.NoError(t, filter.Close(req))

	assert.Equal(t, values(t, first), values(t, second))
	assert.Equal(t, 2, child.calls["Open"])
}

// ============================================================================
// ERRORS
// ============================================================================

func TestFilteredStream_PropagatesChildErrorUnchanged(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1, 2, 3))
	child.failAt = 2
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 5))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))

	_, err = filter.GetRecord(req)
	assert.Same(t, errMockFetch, err)
	assert.False(t, req.Record(child.stream).Valid(), "rows are invalidated on error")

	require.NoError(t, filter.Close(req))
	assert.Equal(t, 1, child.calls["Close"])
}

func TestFilteredStream_PropagatesEvaluationError(t *testing.T) {
	evalErr := errors.New("division by zero")
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1))
	filter, err := NewFilteredStream(c, child, errBoolean{err: evalErr})
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	_, err = filter.GetRecord(req)
	assert.Same(t, evalErr, err)
}

// ============================================================================
// DELEGATION
// ============================================================================

func TestFilteredStream_RefetchReevaluatesPredicate(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(3))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)

	req := newRequest(c)
	require.NoError(t, filter.Open(req))
	ok, err := filter.GetRecord(req)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = filter.RefetchRecord(req)
	require.NoError(t, err)
	assert.True(t, ok)

	// The row changed underneath the cursor and no longer qualifies.
	req.Record(child.stream).SetNull()
	ok, err = filter.RefetchRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)

	req.Record(child.stream).Invalidate()
	ok, err = filter.RefetchRecord(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, child.calls["RefetchRecord"])
}

func TestFilteredStream_DelegatesBufferOperations(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), intRows(1))
	filter, err := NewFilteredStream(c, child, greaterThan(child.stream, 0))
	require.NoError(t, err)
	req := newRequest(c)

	ok, err := filter.LockRecord(req)
	require.NoError(t, err)
	assert.True(t, ok)

	filter.NullRecords(req)
	filter.SaveRecords(req)
	filter.RestoreRecords(req)
	filter.InvalidateRecords(req)
	filter.MarkRecursive()

	assert.Equal(t, []request.StreamID{child.stream}, UsedStreams(filter))
	for _, call := range []string{"LockRecord", "NullRecords", "SaveRecords", "RestoreRecords", "InvalidateRecords", "MarkRecursive", "FindUsedStreams"} {
		assert.Equal(t, 1, child.calls[call], call)
	}
	assert.Same(t, child, filter.next)
}

func TestFilteredStream_Describe(t *testing.T) {
	c := request.NewCompiler()
	child := newMockSource(t, c, intDesc(t), nil)

	plain, err := NewFilteredStream(c, child, greaterThan(child.stream, 2))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"begin", "type:filter", "detail:value > 2", "begin", "type:mock", "end", "end"},
		plain.Describe().Tokens())

	all, err := NewQuantifiedStream(c, child, greaterThan(child.stream, 2),
		Quantifier{Kind: QuantifierAll, Negated: true, Column: greaterThan(child.stream, 2)})
	require.NoError(t, err)
	assert.Equal(t, "NOT ALL value > 2", all.Describe().Detail)
	assert.Equal(t, "NOT ALL", all.quantifier.String())
}
