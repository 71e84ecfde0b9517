package shellz

import "testing"

func TestTableStreamAcquireOnce(t *testing.T) {
	cols := sampleColumns()
	_, stream := NewRowChannel(cols, Sync)
	ts := NewTableStream(stream)

	if _, err := ts.Acquire(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ts.Acquire(); err == nil {
		t.Fatal("expected error acquiring an already-consumed table stream")
	}
}

func TestTableStreamMaterialize(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	writeRows(t, sender, cols, 3)

	ts := NewTableStream(stream)
	table, err := ts.Materialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", table.Len())
	}
}

func TestTableStreamGetIndexesWithoutMaterializing(t *testing.T) {
	cols := sampleColumns()
	sender, stream := NewRowChannel(cols, Sync)
	writeRows(t, sender, cols, 3)

	ts := NewTableStream(stream)
	row, err := ts.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	age, _ := row.Get("age")
	n, _ := age.Integer()
	if n.Int64() != 1 {
		t.Errorf("expected row at index 1, got %s", n)
	}
}
