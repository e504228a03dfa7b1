package execution

import (
	"recsrc/pkg/request"
	"recsrc/pkg/tuple"
)

// Row is a snapshot of the current record of each requested stream.
type Row []*tuple.Tuple

// Iterate pulls from an open source until it is exhausted or fn returns false.
func Iterate(req *request.Request, src RecordSource, fn func() (continueLooping bool, err error)) error {
	for {
		ok, err := src.GetRecord(req)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		more, err := fn()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Count returns the number of rows the open source still yields.
func Count(req *request.Request, src RecordSource) (int, error) {
	n := 0
	err := Iterate(req, src, func() (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

// Collect drains an open source, snapshotting the given streams for each row.
// With no streams given, every stream the source uses is captured.
func Collect(req *request.Request, src RecordSource, streams ...request.StreamID) ([]Row, error) {
	if len(streams) == 0 {
		streams = UsedStreams(src)
	}

	var rows []Row
	err := Iterate(req, src, func() (bool, error) {
		rows = append(rows, Snapshot(req, streams...))
		return true, nil
	})
	return rows, err
}

// Snapshot copies the current record of each stream; invalid buffers yield nil.
func Snapshot(req *request.Request, streams ...request.StreamID) Row {
	row := make(Row, len(streams))
	for i, id := range streams {
		if t := req.Record(id).Tuple(); t != nil {
			row[i] = t.Clone()
		}
	}
	return row
}

// Rewind restarts an open source from its first row.
func Rewind(req *request.Request, src RecordSource) error {
	if err := src.Close(req); err != nil {
		return err
	}
	return src.Open(req)
}
