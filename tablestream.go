package shellz

import "sync"

// TableStream is a live input channel plus column types, single-consumer
// (spec.md §3). It is move-only in spirit: per spec.md §9, passing one to
// two readers must be prevented by a runtime check on first read, since Go
// has no move semantics to enforce it statically.
type TableStream struct {
	id     Identity
	stream *InputStream
	mu     sync.Mutex
	taken  bool
}

// NewTableStream wraps stream as a TableStream value.
func NewTableStream(stream *InputStream) *TableStream {
	return &TableStream{id: NewIdentity(), stream: stream}
}

// ID returns this stream's stable identity.
func (t *TableStream) ID() Identity { return t.id }

// Acquire claims this stream for a single consumer. It must be called
// before any Recv/Get/materialize; calling it twice is an error, which is
// the enforcement spec.md §9 asks for.
func (t *TableStream) Acquire() (*InputStream, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.taken {
		return nil, GenericError("table stream has already been consumed")
	}
	t.taken = true
	return t.stream, nil
}

// Types returns the stream's column schema without consuming it.
func (t *TableStream) Types() []ColumnType { return t.stream.Types() }

// Get performs the blocking, single-consumer read used by Subscript
// (spec.md §4.5: TableStream[Integer] → the i-th row, re-wrapped as Row).
func (t *TableStream) Get(idx int) (Row, error) {
	s, err := t.Acquire()
	if err != nil {
		return Row{}, err
	}
	return s.Get(idx)
}

// Materialize drains the stream into an in-memory Table, stopping at
// end-of-stream or the first error (spec.md §4.5, MaterializedJobDefinition
// "collect until end-of-stream or first error").
func (t *TableStream) Materialize() (*Table, error) {
	s, err := t.Acquire()
	if err != nil {
		return nil, err
	}
	table := NewTable(s.Types())
	for {
		row, err := s.Recv()
		if err != nil {
			if IsKind(err, KindRecv) {
				return table, nil
			}
			return table, err
		}
		if err := table.Append(row); err != nil {
			return table, err
		}
	}
}
