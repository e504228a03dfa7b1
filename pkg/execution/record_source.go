package execution

import (
	"slices"

	"recsrc/pkg/request"
)

// RecordSource is the capability set every execution operator implements.
type RecordSource interface {
	// Open marks the operator open in req and opens its inputs.
	Open(req *request.Request) error

	// GetRecord advances to the next qualifying row, loading it into the
	// request's record buffers. It returns false once the source is exhausted.
	GetRecord(req *request.Request) (bool, error)

	// Close invalidates cached rows and closes the inputs. Closing a source
	// that is not open is a no-op.
	Close(req *request.Request) error

	// RefetchRecord re-reads the current row and re-checks any condition the
	// operator applies to it.
	RefetchRecord(req *request.Request) (bool, error)

	// LockRecord requests a lock on the current row from the leaf that owns it.
	LockRecord(req *request.Request) (bool, error)

	InvalidateRecords(req *request.Request)
	NullRecords(req *request.Request)
	SaveRecords(req *request.Request)
	RestoreRecords(req *request.Request)

	// Describe returns the operator tree for plan introspection.
	Describe() Description

	// FindUsedStreams adds every base stream read by the subtree.
	FindUsedStreams(streams *StreamSet)

	// MarkRecursive flags the subtree as participating in re-entrant
	// evaluation. It must be called before the plan is shared.
	MarkRecursive()
}

// UnknownReporter is implemented by sources that remember whether their last
// scan met an Unknown predicate result without finding a qualifying row.
type UnknownReporter interface {
	SawUnknown(req *request.Request) bool
}

// StreamSet is an insertion-ordered set of stream ids.
type StreamSet struct {
	ids []request.StreamID
}

// Add inserts id if it is not already present.
func (s *StreamSet) Add(id request.StreamID) {
	if !s.Contains(id) {
		s.ids = append(s.ids, id)
	}
}

func (s *StreamSet) Contains(id request.StreamID) bool {
	return slices.Contains(s.ids, id)
}

func (s *StreamSet) Len() int { return len(s.ids) }

// IDs returns the streams in insertion order.
func (s *StreamSet) IDs() []request.StreamID {
	return slices.Clone(s.ids)
}

// UsedStreams is a convenience wrapper around FindUsedStreams.
func UsedStreams(src RecordSource) []request.StreamID {
	var set StreamSet
	src.FindUsedStreams(&set)
	return set.IDs()
}

// unary provides the pure delegation shared by single-input operators that
// hold no row buffers of their own.
type unary struct {
	next RecordSource
}

func (u *unary) LockRecord(req *request.Request) (bool, error) {
	return u.next.LockRecord(req)
}

func (u *unary) InvalidateRecords(req *request.Request) {
	u.next.InvalidateRecords(req)
}

func (u *unary) NullRecords(req *request.Request) {
	u.next.NullRecords(req)
}

func (u *unary) SaveRecords(req *request.Request) {
	u.next.SaveRecords(req)
}

func (u *unary) RestoreRecords(req *request.Request) {
	u.next.RestoreRecords(req)
}

func (u *unary) FindUsedStreams(streams *StreamSet) {
	u.next.FindUsedStreams(streams)
}

func (u *unary) MarkRecursive() {
	u.next.MarkRecursive()
}
