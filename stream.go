package shellz

import (
	"context"
	"time"
)

// InputStream wraps a row receiver with its schema (spec.md §4.4). Every
// row pulled is validated: cell count must equal column count, and each
// cell must satisfy its column's ValueType. InputStream is not shareable —
// it has exactly one sender and is meant to have exactly one reader.
type InputStream struct {
	receiver <-chan Row
	types    []ColumnType
}

// Types returns the stream's column schema.
func (s *InputStream) Types() []ColumnType { return s.types }

// Recv pulls the next row, validating it against the schema. End-of-stream
// is reported as a Recv error (ordinary, not a violation); a row that fails
// validation is a Type error, fatal to the reading stage (spec.md §7).
func (s *InputStream) Recv() (Row, error) {
	row, ok := <-s.receiver
	if !ok {
		return Row{}, RecvError("end of stream")
	}
	return s.validate(row)
}

// RecvTimeout pulls the next row or returns RecvTimeoutError if none
// arrives before timeout elapses, or ctx.Err() if ctx is canceled first.
func (s *InputStream) RecvTimeout(ctx context.Context, timeout time.Duration) (Row, error) {
	row, ok, err := waitWithTimeout(ctx, s.receiver, timeout)
	if err != nil {
		return Row{}, err
	}
	if !ok {
		return Row{}, RecvError("end of stream")
	}
	return s.validate(row)
}

func (s *InputStream) validate(row Row) (Row, error) {
	if len(row.Cells) != len(s.types) {
		return Row{}, TypeErrorf("wrong number of columns in row: expected %d, got %d", len(s.types), len(row.Cells))
	}
	for i, ct := range s.types {
		if !ct.Is(row.Cells[i]) {
			return Row{}, TypeErrorf("wrong cell type in column %q: expected %s, got %s", ct.Name, ct.Type, row.Cells[i].Type())
		}
	}
	return Row{Columns: s.types, Cells: row.Cells}, nil
}

// Get pulls rows and discards them until index idx is seen, or returns
// "index out of bounds" at end-of-stream (spec.md §4.4). This is O(idx).
func (s *InputStream) Get(idx int) (Row, error) {
	if idx < 0 {
		return Row{}, LookupError("index out of bounds")
	}
	for i := 0; ; i++ {
		row, err := s.Recv()
		if err != nil {
			return Row{}, LookupError("index out of bounds")
		}
		if i == idx {
			return row, nil
		}
	}
}

// Drain reads rows until end-of-stream or the first error, discarding
// everything. It is used to unwind a stage's dependencies on a compile
// error (spec.md §9's "drain deps on error" option).
func (s *InputStream) Drain() error {
	for {
		if _, err := s.Recv(); err != nil {
			if IsKind(err, KindRecv) {
				return nil
			}
			return err
		}
	}
}
