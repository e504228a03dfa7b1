package scanner

import (
	"database/sql"
	"io"

	"github.com/hashicorp/go-multierror"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/execution"
	"recsrc/pkg/logging"
	"recsrc/pkg/request"
	"recsrc/pkg/tuple"
	"recsrc/pkg/types"
)

// SQLScan streams the result set of a query run against a database/sql
// handle. Each Open issues the query again under the request's context.
//
// Columns are matched to the schema by position; the driver's values are
// converted with types.FromValue, so NULL columns become NULL fields.
type SQLScan struct {
	db        *sql.DB
	name      string
	query     string
	args      []any
	desc      *tuple.TupleDescription
	stream    request.StreamID
	impure    request.Slot[sqlScanState]
	recursive bool
}

type sqlScanState struct {
	rows  *sql.Rows
	saved []savedCursor
}

type savedCursor struct {
	rows   *sql.Rows
	record request.Record
}

var _ execution.RecordSource = (*SQLScan)(nil)

// NewSQLScan registers a stream for desc. name labels the scan in plans and
// errors.
func NewSQLScan(c *request.Compiler, db *sql.DB, name string, desc *tuple.TupleDescription, query string, args ...any) (*SQLScan, error) {
	if c == nil || db == nil || desc == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "sql scan needs a compiler, a database and a schema").
			WithOperation("NewSQLScan", "SQLScan").
			WithDetail(name)
	}
	if query == "" {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "sql scan query cannot be empty").
			WithOperation("NewSQLScan", "SQLScan").
			WithDetail(name)
	}

	return &SQLScan{
		db:     db,
		name:   name,
		query:  query,
		args:   args,
		desc:   desc,
		stream: c.NewStream(desc),
		impure: request.Allocate[sqlScanState](c),
	}, nil
}

// Stream returns the stream the scan loads rows into.
func (s *SQLScan) Stream() request.StreamID { return s.stream }

func (s *SQLScan) Open(req *request.Request) error {
	state := s.impure.Get(req)
	if state.rows != nil {
		if err := state.rows.Close(); err != nil {
			return s.sourceFailed("Open", err)
		}
		state.rows = nil
	}

	rows, err := s.db.QueryContext(req.Context(), s.query, s.args...)
	if err != nil {
		return s.sourceFailed("Open", err)
	}
	state.rows = rows
	return nil
}

func (s *SQLScan) GetRecord(req *request.Request) (bool, error) {
	state := s.impure.Get(req)
	if state.rows == nil {
		return false, nil
	}

	if !state.rows.Next() {
		s.InvalidateRecords(req)
		if err := state.rows.Err(); err != nil {
			return false, s.sourceFailed("GetRecord", err)
		}
		return false, nil
	}

	raw := make([]any, s.desc.NumFields())
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := state.rows.Scan(dest...); err != nil {
		s.InvalidateRecords(req)
		return false, s.sourceFailed("GetRecord", err)
	}

	row, err := s.convert(raw)
	if err != nil {
		s.InvalidateRecords(req)
		return false, err
	}

	req.Record(s.stream).Set(row)
	return true, nil
}

// convert builds a tuple from one scanned row.
func (s *SQLScan) convert(raw []any) (*tuple.Tuple, error) {
	row := tuple.NewTuple(s.desc)
	for i, v := range raw {
		t, err := s.desc.TypeAtIndex(i)
		if err != nil {
			return nil, s.sourceFailed("GetRecord", err)
		}
		field, err := types.FromValue(t, v)
		if err != nil {
			return nil, dberror.New(dberror.ErrCategoryData, dberror.CodeTypeMismatch, err.Error()).
				WithOperation("GetRecord", "SQLScan").
				WithDetail(s.name)
		}
		if err := row.SetField(i, field); err != nil {
			return nil, s.sourceFailed("GetRecord", err)
		}
	}
	return row, nil
}

// Close releases the cursor and any cursors left saved by an unbalanced
// SaveRecords.
func (s *SQLScan) Close(req *request.Request) error {
	s.InvalidateRecords(req)

	state := s.impure.Get(req)
	var result error
	if state.rows != nil {
		if err := state.rows.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		state.rows = nil
	}
	for _, saved := range state.saved {
		if saved.rows == nil {
			continue
		}
		if err := saved.rows.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	state.saved = nil

	if result != nil {
		return s.sourceFailed("Close", result)
	}
	return nil
}

func (s *SQLScan) RefetchRecord(req *request.Request) (bool, error) {
	return req.Record(s.stream).Valid(), nil
}

// LockRecord does not take database locks; rows are read-only snapshots.
func (s *SQLScan) LockRecord(req *request.Request) (bool, error) {
	return req.Record(s.stream).Valid(), nil
}

func (s *SQLScan) InvalidateRecords(req *request.Request) {
	req.Record(s.stream).Invalidate()
}

func (s *SQLScan) NullRecords(req *request.Request) {
	req.Record(s.stream).SetNull()
}

// SaveRecords parks the open cursor so a nested Open starts a fresh one.
func (s *SQLScan) SaveRecords(req *request.Request) {
	state := s.impure.Get(req)
	state.saved = append(state.saved, savedCursor{
		rows:   state.rows,
		record: req.Record(s.stream).Snapshot(),
	})
	state.rows = nil
}

// RestoreRecords closes the nested cursor and resumes the parked one.
func (s *SQLScan) RestoreRecords(req *request.Request) {
	state := s.impure.Get(req)
	if len(state.saved) == 0 {
		return
	}

	if state.rows != nil {
		s.discard(state.rows)
	}
	last := state.saved[len(state.saved)-1]
	state.saved = state.saved[:len(state.saved)-1]
	state.rows = last.rows
	req.Record(s.stream).Restore(last.record)
}

// discard closes a nested cursor. RestoreRecords has no error return, so a
// failure is only logged.
func (s *SQLScan) discard(rows io.Closer) {
	if err := rows.Close(); err != nil {
		logging.WithOperator(execution.KindSQLScan).Warnw("failed to close nested cursor",
			"scan", s.name, "error", err)
	}
}

func (s *SQLScan) Describe() execution.Description {
	detail := s.name
	if s.recursive {
		detail += ", recursive"
	}
	return execution.Description{Kind: execution.KindSQLScan, Detail: detail}
}

func (s *SQLScan) FindUsedStreams(streams *execution.StreamSet) {
	streams.Add(s.stream)
}

func (s *SQLScan) MarkRecursive() {
	s.recursive = true
}

func (s *SQLScan) sourceFailed(op string, err error) error {
	return dberror.Newf(dberror.ErrCategoryTransient, dberror.CodeSourceFailed, "scan %s failed", s.name).
		WithOperation(op, "SQLScan").
		WithDetail(s.name).
		WithCause(err)
}
