package execution

import (
	"strconv"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/request"
)

type firstRowsState struct {
	open     bool
	returned int64
}

// FirstRows passes on at most limit rows of its input.
type FirstRows struct {
	unary
	limit  int64
	impure request.Slot[firstRowsState]
}

var _ RecordSource = (*FirstRows)(nil)

func NewFirstRows(c *request.Compiler, next RecordSource, limit int64) (*FirstRows, error) {
	if c == nil || next == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "child record source cannot be nil").
			WithOperation("NewFirstRows", "FirstRows")
	}
	if limit < 0 {
		return nil, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "limit must be non-negative, got %d", limit).
			WithOperation("NewFirstRows", "FirstRows")
	}

	return &FirstRows{
		unary:  unary{next: next},
		limit:  limit,
		impure: request.Allocate[firstRowsState](c),
	}, nil
}

func (f *FirstRows) Open(req *request.Request) error {
	*f.impure.Get(req) = firstRowsState{open: true}
	return f.next.Open(req)
}

func (f *FirstRows) Close(req *request.Request) error {
	f.InvalidateRecords(req)

	state := f.impure.Get(req)
	if !state.open {
		return nil
	}
	*state = firstRowsState{}
	return f.next.Close(req)
}

func (f *FirstRows) GetRecord(req *request.Request) (bool, error) {
	state := f.impure.Get(req)
	if !state.open || state.returned >= f.limit {
		f.InvalidateRecords(req)
		return false, nil
	}

	ok, err := f.next.GetRecord(req)
	if err != nil || !ok {
		return false, err
	}
	state.returned++
	return true, nil
}

func (f *FirstRows) RefetchRecord(req *request.Request) (bool, error) {
	return f.next.RefetchRecord(req)
}

// SawUnknown forwards to the input when it tracks Unknown results.
func (f *FirstRows) SawUnknown(req *request.Request) bool {
	if r, ok := f.next.(UnknownReporter); ok {
		return r.SawUnknown(req)
	}
	return false
}

func (f *FirstRows) Describe() Description {
	return Description{
		Kind:     KindFirstRows,
		Detail:   strconv.FormatInt(f.limit, 10),
		Children: []Description{f.next.Describe()},
	}
}
