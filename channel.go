package shellz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
)

// ValueSender is the sending half of a value channel: bounded with capacity
// 1, carrying at most one Value — used to hand off a pipeline's final
// result or its table-stream head (spec.md §4.3).
type ValueSender struct {
	ch chan Value
}

// ValueReceiver is the receiving half of a value channel.
type ValueReceiver struct {
	ch chan Value
}

// NewValueChannel creates a linked ValueSender/ValueReceiver pair.
func NewValueChannel() (ValueSender, ValueReceiver) {
	ch := make(chan Value, 1)
	return ValueSender{ch: ch}, ValueReceiver{ch: ch}
}

// Send delivers cell, failing with a Send error if the channel has already
// been closed. A closed channel send panics in Go, so the closed case is
// detected by recovering rather than by checking a flag under a lock.
// ValueReceiver has no drop operation, so a receiver that stops reading is
// not detected: Send blocks once the one-slot buffer is full.
func (s ValueSender) Send(cell Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = SendError()
		}
	}()
	s.ch <- cell
	return nil
}

// Close signals that no value will be sent, so a blocked Recv unblocks with
// a "channel closed" error instead of hanging forever.
func (s ValueSender) Close() { close(s.ch) }

// Recv blocks for the single value this channel ever carries.
func (r ValueReceiver) Recv() (Value, error) {
	v, ok := <-r.ch
	if !ok {
		return Value{}, RecvError("channel closed")
	}
	return v, nil
}

// blackHoleOnce lazily builds the process-wide BlackHole sender.
var blackHoleOnce = sync.OnceValue(func() ValueSender {
	s, r := NewValueChannel()
	go func() {
		// Drain forever so BlackHole.Send never blocks its caller, making
		// it indistinguishable from success (spec.md §4.3).
		for range r.ch {
		}
	}()
	return s
})

// BlackHole returns the global singleton sender to which stages discarding
// output are wired. Sending to it always succeeds.
func BlackHole() ValueSender { return blackHoleOnce() }

// StreamMode selects a row channel's backpressure behavior.
type StreamMode int

const (
	// Sync row channels are bounded at capacity 128 (spec.md §4.3); a
	// producer blocks once the channel is full, which is the mechanism
	// backpressure relies on.
	Sync StreamMode = iota
	// Async row channels are unbounded.
	Async
)

// syncCapacity is the fixed capacity of a sync-mode row channel.
const syncCapacity = 128

// RowSender is the sending half of a row channel.
type RowSender struct {
	mode   StreamMode
	sync   chan Row   // used directly in Sync mode
	in     chan<- Row // used to feed the unbounded pump in Async mode
	done   <-chan struct{}
	onSend func() // optional hook invoked after every successful Send
}

// withOnSend returns a copy of s that additionally invokes fn after every
// row it successfully delivers. job.go uses this to count rows processed
// without giving commands direct access to the metrics registry.
func (s RowSender) withOnSend(fn func()) RowSender {
	s.onSend = fn
	return s
}

// Send delivers row, failing with a Send error ("broken pipe") if the
// channel has already been closed. A receiver that stops reading is not
// detected: in Sync mode Send blocks once 128 rows are buffered, and in
// Async mode rows keep buffering.
func (s RowSender) Send(row Row) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = SendError()
		}
	}()
	if s.mode == Sync {
		s.sync <- row
		if s.onSend != nil {
			s.onSend()
		}
		return nil
	}
	select {
	case s.in <- row:
		if s.onSend != nil {
			s.onSend()
		}
		return nil
	case <-s.done:
		return SendError()
	}
}

// Close signals end-of-stream to the receiver, cascading cancellation
// downstream as each stage drains and closes its own output (spec.md §5).
func (s RowSender) Close() {
	capitan.Info(context.Background(), SignalStreamClosed,
		FieldAsync.Field(boolString(s.mode == Async)),
	)
	if s.mode == Sync {
		close(s.sync)
		return
	}
	close(s.in)
}

// NewRowChannel creates a row channel pair with the given schema and mode.
// Sync channels are Go channels bounded at 128, which is where the sync
// pipeline's backpressure comes from. Async channels have no native Go
// equivalent (Go channels are always fixed-capacity), so the unbounded
// case is built from the standard pump-goroutine pattern: an internal
// goroutine buffers into a growable slice so a producer never blocks on a
// slow consumer.
func NewRowChannel(schema []ColumnType, mode StreamMode) (RowSender, *InputStream) {
	capitan.Info(context.Background(), SignalStreamOpened,
		FieldColumnCount.Field(len(schema)),
		FieldAsync.Field(boolString(mode == Async)),
	)
	if mode == Sync {
		ch := make(chan Row, syncCapacity)
		input := &InputStream{receiver: ch, types: schema}
		return RowSender{mode: Sync, sync: ch}, input
	}

	in := make(chan Row)
	out := make(chan Row)
	done := make(chan struct{})
	go unboundedPump(in, out, done)
	input := &InputStream{receiver: out, types: schema}
	return RowSender{mode: Async, in: in, done: done}, input
}

// unboundedPump buffers rows from in into a growable slice and forwards
// them to out, giving the producer side of the channel pair unbounded
// capacity. It exits (closing out and done) once in is closed and the
// buffer has drained.
func unboundedPump(in <-chan Row, out chan<- Row, done chan struct{}) {
	defer close(out)
	defer close(done)

	var buf []Row
	for {
		if len(buf) == 0 {
			row, ok := <-in
			if !ok {
				return
			}
			buf = append(buf, row)
			continue
		}

		select {
		case row, ok := <-in:
			if !ok {
				for _, r := range buf {
					out <- r
				}
				return
			}
			buf = append(buf, row)
		case out <- buf[0]:
			buf = buf[1:]
		}
	}
}

// RecvTimeoutError is returned by InputStream.RecvTimeout when no row
// arrives before the deadline.
type RecvTimeoutError struct{}

func (RecvTimeoutError) Error() string { return "recv timeout" }

// waitWithTimeout is a small helper shared by InputStream.RecvTimeout.
func waitWithTimeout(ctx context.Context, ch <-chan Row, timeout time.Duration) (Row, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case row, ok := <-ch:
		return row, ok, nil
	case <-timer.C:
		return Row{}, false, RecvTimeoutError{}
	case <-ctx.Done():
		return Row{}, false, ctx.Err()
	}
}
