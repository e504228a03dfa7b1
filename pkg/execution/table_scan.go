package execution

import (
	"fmt"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/request"
	"recsrc/pkg/tuple"
)

// Table is an in-memory relation.
type Table struct {
	Name string
	Desc *tuple.TupleDescription
	Rows []*tuple.Tuple
}

// NewTable validates that every row has the table's width.
func NewTable(name string, desc *tuple.TupleDescription, rows []*tuple.Tuple) (*Table, error) {
	if desc == nil {
		return nil, fmt.Errorf("table %s: tuple description cannot be nil", name)
	}
	for i, row := range rows {
		if row == nil || row.TupleDesc.NumFields() != desc.NumFields() {
			return nil, fmt.Errorf("table %s: row %d does not match schema %s", name, i, desc)
		}
	}
	return &Table{Name: name, Desc: desc, Rows: rows}, nil
}

type scanState struct {
	open  bool
	pos   int
	saved []savedScan
}

type savedScan struct {
	open   bool
	pos    int
	record request.Record
}

// TableScan reads every row of a Table, in order, into its stream.
type TableScan struct {
	table     *Table
	stream    request.StreamID
	impure    request.Slot[scanState]
	recursive bool
}

var _ RecordSource = (*TableScan)(nil)

// NewTableScan registers a stream for the table and allocates the scan state.
func NewTableScan(c *request.Compiler, table *Table) (*TableScan, error) {
	if c == nil || table == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "table scan needs a compiler and a table").
			WithOperation("NewTableScan", "TableScan")
	}

	return &TableScan{
		table:  table,
		stream: c.NewStream(table.Desc),
		impure: request.Allocate[scanState](c),
	}, nil
}

// Stream returns the stream the scan loads rows into.
func (s *TableScan) Stream() request.StreamID { return s.stream }

// Table returns the scanned relation.
func (s *TableScan) Table() *Table { return s.table }

func (s *TableScan) Open(req *request.Request) error {
	state := s.impure.Get(req)
	state.open = true
	state.pos = 0
	return nil
}

func (s *TableScan) Close(req *request.Request) error {
	s.InvalidateRecords(req)

	state := s.impure.Get(req)
	state.open = false
	state.pos = 0
	return nil
}

// GetRecord checks the request for cancellation before each row.
func (s *TableScan) GetRecord(req *request.Request) (bool, error) {
	state := s.impure.Get(req)
	if !state.open {
		return false, nil
	}

	if err := req.Err(); err != nil {
		s.InvalidateRecords(req)
		return false, dberror.New(dberror.ErrCategoryTransient, dberror.CodeCancelled, "request cancelled").
			WithOperation("GetRecord", "TableScan").
			WithDetail(s.table.Name).
			WithCause(err)
	}

	if state.pos >= len(s.table.Rows) {
		s.InvalidateRecords(req)
		return false, nil
	}

	req.Record(s.stream).Set(s.table.Rows[state.pos])
	state.pos++
	return true, nil
}

// RefetchRecord succeeds while the stream holds a row; in-memory rows cannot
// change underneath the scan.
func (s *TableScan) RefetchRecord(req *request.Request) (bool, error) {
	return req.Record(s.stream).Valid(), nil
}

// LockRecord grants the lock whenever a current row exists; in-memory tables
// carry no lock manager.
func (s *TableScan) LockRecord(req *request.Request) (bool, error) {
	return req.Record(s.stream).Valid(), nil
}

func (s *TableScan) InvalidateRecords(req *request.Request) {
	req.Record(s.stream).Invalidate()
}

func (s *TableScan) NullRecords(req *request.Request) {
	req.Record(s.stream).SetNull()
}

// SaveRecords pushes the current row and scan position so a re-entrant
// evaluation can reuse the scan.
func (s *TableScan) SaveRecords(req *request.Request) {
	state := s.impure.Get(req)
	state.saved = append(state.saved, savedScan{
		open:   state.open,
		pos:    state.pos,
		record: req.Record(s.stream).Snapshot(),
	})
}

func (s *TableScan) RestoreRecords(req *request.Request) {
	state := s.impure.Get(req)
	if len(state.saved) == 0 {
		return
	}

	last := state.saved[len(state.saved)-1]
	state.saved = state.saved[:len(state.saved)-1]
	state.open = last.open
	state.pos = last.pos
	req.Record(s.stream).Restore(last.record)
}

func (s *TableScan) Describe() Description {
	detail := s.table.Name
	if s.recursive {
		detail += ", recursive"
	}
	return Description{Kind: KindTableScan, Detail: detail}
}

func (s *TableScan) FindUsedStreams(streams *StreamSet) {
	streams.Add(s.stream)
}

func (s *TableScan) MarkRecursive() {
	s.recursive = true
}
