package request

import (
	"context"

	"github.com/google/uuid"

	"recsrc/pkg/tuple"
	"recsrc/pkg/types"
)

// Record is the row buffer of one stream. Scans load rows into it and
// expressions read columns from it.
type Record struct {
	desc  *tuple.TupleDescription
	tuple *tuple.Tuple
	valid bool
}

// Set loads t as the current row.
func (rec *Record) Set(t *tuple.Tuple) {
	rec.tuple = t
	rec.valid = true
}

// Invalidate marks the buffer as holding no row.
func (rec *Record) Invalidate() {
	rec.valid = false
}

// SetNull loads an all-NULL row.
func (rec *Record) SetNull() {
	rec.tuple = tuple.NewTuple(rec.desc)
	rec.valid = true
}

// Valid reports whether the buffer currently holds a row.
func (rec *Record) Valid() bool { return rec.valid }

// Tuple returns the current row or nil when the buffer is invalid.
func (rec *Record) Tuple() *tuple.Tuple {
	if !rec.valid {
		return nil
	}
	return rec.tuple
}

// Field reads column i of the current row. Reading an invalid buffer yields NULL.
func (rec *Record) Field(i int) (types.Field, error) {
	if !rec.valid {
		return nil, nil
	}
	return rec.tuple.GetField(i)
}

// Snapshot returns a copy of the buffer state, used to save and restore
// records around re-entrant evaluation.
func (rec *Record) Snapshot() Record {
	return *rec
}

// Restore resets the buffer to a previous snapshot.
func (rec *Record) Restore(s Record) {
	*rec = s
}

// Request is one execution of a compiled plan. It must be used by one
// goroutine at a time.
type Request struct {
	id      string
	ctx     context.Context
	layout  *Layout
	impure  []any
	records []Record
}

// New creates a request for a plan compiled into layout.
func New(ctx context.Context, layout *Layout) *Request {
	if ctx == nil {
		ctx = context.Background()
	}

	r := &Request{
		id:     uuid.NewString(),
		ctx:    ctx,
		layout: layout,
	}
	r.Reset()
	return r
}

// ID returns the unique id of this execution.
func (r *Request) ID() string { return r.id }

// Context returns the context the request runs under.
func (r *Request) Context() context.Context { return r.ctx }

// Err reports cancellation of the request's context.
func (r *Request) Err() error { return r.ctx.Err() }

// Layout returns the layout the request was built from.
func (r *Request) Layout() *Layout { return r.layout }

// Record returns the row buffer for a stream.
func (r *Request) Record(id StreamID) *Record {
	return &r.records[id]
}

// Reset discards all impure state and record buffers so the request can be
// executed again from scratch.
func (r *Request) Reset() {
	r.impure = make([]any, r.layout.slots)
	r.records = make([]Record, len(r.layout.streams))
	for i, desc := range r.layout.streams {
		r.records[i].desc = desc
	}
}
