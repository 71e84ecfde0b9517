package shellz

import "testing"

func writeRows(t *testing.T, sender RowSender, cols []ColumnType, n int) {
	t.Helper()
	go func() {
		for i := 0; i < n; i++ {
			row, _ := NewRow(cols, []Value{NewText("ada"), NewIntegerFromInt64(int64(i))})
			_ = sender.Send(row)
		}
		sender.Close()
	}()
}

func TestInputStreamGetByIndex(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	writeRows(t, sender, cols, 5)

	row, err := stream.Get(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	age, _ := row.Get("age")
	n, _ := age.Integer()
	if n.Int64() != 2 {
		t.Errorf("expected row 2, got %s", n)
	}
}

func TestInputStreamGetOutOfBounds(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	writeRows(t, sender, cols, 2)

	if _, err := stream.Get(10); err == nil {
		t.Fatal("expected lookup error for out-of-range index")
	}
}

func TestInputStreamGetNegativeIndex(t *testing.T) {
	cols := sampleColumns()
	_, stream := NewRowChannel(cols, Sync)
	if _, err := stream.Get(-1); err == nil {
		t.Fatal("expected lookup error for negative index")
	}
}

func TestInputStreamDrain(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	writeRows(t, sender, cols, 3)

	if err := stream.Drain(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatal("expected end of stream after drain")
	}
}

func TestInputStreamValidatesSchema(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	go func() {
		wrongCols := []ColumnType{{Name: "age", Type: TypeInteger}}
		row, _ := NewRow(wrongCols, []Value{NewIntegerFromInt64(1)})
		// Bypass NewRow's own validation by sending a row whose column count
		// does not match the stream's declared schema.
		_ = sender.Send(row)
		sender.Close()
	}()

	if _, err := stream.Recv(); err == nil {
		t.Fatal("expected type error for a row that does not match the stream schema")
	}
}
