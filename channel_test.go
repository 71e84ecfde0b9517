package shellz

import "testing"

func TestValueChannelSendRecv(t *testing.T) {
	sender, receiver := NewValueChannel()
	if err := sender.Send(NewIntegerFromInt64(7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := receiver.Recv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, _ := v.Integer()
	if n.Int64() != 7 {
		t.Errorf("expected 7, got %s", n)
	}
}

func TestValueChannelRecvAfterClose(t *testing.T) {
	sender, receiver := NewValueChannel()
	sender.Close()
	if _, err := receiver.Recv(); err == nil {
		t.Fatal("expected recv error after close")
	}
}

func TestBlackHoleNeverBlocks(t *testing.T) {
	sink := BlackHole()
	for i := 0; i < 10; i++ {
		if err := sink.Send(NewIntegerFromInt64(int64(i))); err != nil {
			t.Fatalf("unexpected error sending to BlackHole: %v", err)
		}
	}
}

func TestRowChannelSyncSendRecv(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	row, _ := NewRow(cols, []Value{NewText("ada"), NewIntegerFromInt64(30)})

	go func() {
		_ = sender.Send(row)
		sender.Close()
	}()

	got, err := stream.Recv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, _ := got.At(0)
	s, _ := name.Text()
	if s != "ada" {
		t.Errorf("expected ada, got %q", s)
	}

	if _, err := stream.Recv(); err == nil {
		t.Fatal("expected recv error at end of stream")
	}
}

func TestRowChannelAsyncDoesNotBlockProducer(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Async)
	row, _ := NewRow(cols, []Value{NewText("ada"), NewIntegerFromInt64(30)})

	for i := 0; i < 1000; i++ {
		if err := sender.Send(row); err != nil {
			t.Fatalf("unexpected error on send %d: %v", i, err)
		}
	}
	sender.Close()

	count := 0
	for {
		if _, err := stream.Recv(); err != nil {
			break
		}
		count++
	}
	if count != 1000 {
		t.Errorf("expected to receive 1000 rows, got %d", count)
	}
}

func TestRowChannelSendAfterCloseFails(t *testing.T) {
	cols := sampleColumns()
	sender, _ := NewRowChannel(cols, Sync)
	sender.Close()
	row, _ := NewRow(cols, []Value{NewText("ada"), NewIntegerFromInt64(30)})
	if err := sender.Send(row); err == nil {
		t.Fatal("expected send error on a closed channel")
	}
}
