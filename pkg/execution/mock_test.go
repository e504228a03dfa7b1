package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"recsrc/pkg/expr"
	"recsrc/pkg/request"
	"recsrc/pkg/tuple"
	"recsrc/pkg/types"
)

var errMockFetch = errors.New("mock fetch error")

// mockSource is a leaf that records every call made on it. It keeps its
// position on the struct, so it is only used with a single request.
type mockSource struct {
	desc   *tuple.TupleDescription
	stream request.StreamID
	rows   []*tuple.Tuple

	pos    int
	open   bool
	failAt int // 1-based GetRecord call that fails; 0 disables

	calls          map[string]int
	getWhileClosed int
}

func newMockSource(t *testing.T, c *request.Compiler, desc *tuple.TupleDescription, rows [][]types.Field) *mockSource {
	t.Helper()
	m := &mockSource{
		desc:   desc,
		stream: c.NewStream(desc),
		calls:  map[string]int{},
	}
	for _, fields := range rows {
		row, err := tuple.FromFields(desc, fields...)
		require.NoError(t, err)
		m.rows = append(m.rows, row)
	}
	return m
}

func (m *mockSource) Open(*request.Request) error {
	m.calls["Open"]++
	m.open = true
	m.pos = 0
	return nil
}

func (m *mockSource) GetRecord(req *request.Request) (bool, error) {
	m.calls["GetRecord"]++
	if !m.open {
		m.getWhileClosed++
		return false, nil
	}
	if m.failAt > 0 && m.calls["GetRecord"] == m.failAt {
		return false, errMockFetch
	}
	if m.pos >= len(m.rows) {
		req.Record(m.stream).Invalidate()
		return false, nil
	}
	req.Record(m.stream).Set(m.rows[m.pos])
	m.pos++
	return true, nil
}

func (m *mockSource) Close(req *request.Request) error {
	m.calls["Close"]++
	m.open = false
	return nil
}

func (m *mockSource) RefetchRecord(req *request.Request) (bool, error) {
	m.calls["RefetchRecord"]++
	return req.Record(m.stream).Valid(), nil
}

func (m *mockSource) LockRecord(*request.Request) (bool, error) {
	m.calls["LockRecord"]++
	return true, nil
}

func (m *mockSource) InvalidateRecords(req *request.Request) {
	m.calls["InvalidateRecords"]++
	req.Record(m.stream).Invalidate()
}

func (m *mockSource) NullRecords(req *request.Request) {
	m.calls["NullRecords"]++
	req.Record(m.stream).SetNull()
}

func (m *mockSource) SaveRecords(*request.Request)    { m.calls["SaveRecords"]++ }
func (m *mockSource) RestoreRecords(*request.Request) { m.calls["RestoreRecords"]++ }

func (m *mockSource) Describe() Description {
	return Description{Kind: "mock"}
}

func (m *mockSource) FindUsedStreams(streams *StreamSet) {
	m.calls["FindUsedStreams"]++
	streams.Add(m.stream)
}

func (m *mockSource) MarkRecursive() { m.calls["MarkRecursive"]++ }

// intDesc is a single INT column named "value".
func intDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"value"})
	require.NoError(t, err)
	return td
}

// intRows turns values into single-column rows; nil becomes NULL.
func intRows(values ...any) [][]types.Field {
	rows := make([][]types.Field, len(values))
	for i, v := range values {
		if v == nil {
			rows[i] = []types.Field{nil}
			continue
		}
		rows[i] = []types.Field{types.NewIntField(int64(v.(int)))}
	}
	return rows
}

// truthDesc has three BOOL columns holding the outcome of the predicate, the
// select predicate and the column comparison for each row.
func truthDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.BoolType, types.BoolType, types.BoolType},
		[]string{"pred", "sel", "col"},
	)
	require.NoError(t, err)
	return td
}

// truth encodes a TriState as a nullable BOOL field.
func truth(v types.TriState) types.Field {
	switch v {
	case types.True:
		return types.NewBoolField(true)
	case types.False:
		return types.NewBoolField(false)
	default:
		return nil
	}
}

// isTrue is "column = TRUE", which is Unknown for a NULL column.
func isTrue(stream request.StreamID, index int, name string) expr.Boolean {
	return expr.Equal(expr.Column(stream, index, name), expr.Const(types.NewBoolField(true)))
}

type errBoolean struct{ err error }

func (e errBoolean) Evaluate(*request.Request) (types.TriState, error) { return types.Unknown, e.err }
func (e errBoolean) String() string                                    { return "error" }

func newRequest(c *request.Compiler) *request.Request {
	return request.New(context.Background(), c.Layout())
}

func values(t *testing.T, rows []Row) []any {
	t.Helper()
	out := make([]any, len(rows))
	for i, row := range rows {
		f, err := row[0].GetField(0)
		require.NoError(t, err)
		if f == nil {
			out[i] = nil
			continue
		}
		out[i] = int(f.(*types.IntField).Value)
	}
	return out
}
