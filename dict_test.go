package shellz

import "testing"

func TestDictSetAndGet(t *testing.T) {
	d := NewDict(TypeText, TypeInteger)
	if err := d.Set(NewText("a"), NewIntegerFromInt64(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := d.Get(NewText("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, _ := v.Integer()
	if i.Int64() != 1 {
		t.Errorf("expected 1, got %s", i)
	}
}

func TestDictGetMissingKeyFails(t *testing.T) {
	d := NewDict(TypeText, TypeInteger)
	if _, err := d.Get(NewText("missing")); err == nil {
		t.Fatal("expected lookup error for missing key")
	}
}

func TestDictSetWrongTypeRejected(t *testing.T) {
	d := NewDict(TypeText, TypeInteger)
	if err := d.Set(NewIntegerFromInt64(1), NewIntegerFromInt64(1)); err == nil {
		t.Fatal("expected type error for wrong key type")
	}
	if err := d.Set(NewText("a"), NewText("nope")); err == nil {
		t.Fatal("expected type error for wrong value type")
	}
}

func TestDictOverwritePreservesInsertionOrder(t *testing.T) {
	d := NewDict(TypeText, TypeInteger)
	_ = d.Set(NewText("a"), NewIntegerFromInt64(1))
	_ = d.Set(NewText("b"), NewIntegerFromInt64(2))
	_ = d.Set(NewText("a"), NewIntegerFromInt64(99))

	entries := d.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	k0, _ := entries[0].Key.Text()
	if k0 != "a" {
		t.Errorf("expected first key to stay \"a\", got %q", k0)
	}
	v0, _ := entries[0].Value.Integer()
	if v0.Int64() != 99 {
		t.Errorf("expected overwritten value 99, got %s", v0)
	}
}

func TestDictCompositeKeyRejected(t *testing.T) {
	inner := NewList(TypeInteger)
	d := NewDict(ListType(TypeInteger), TypeInteger)
	if err := d.Set(NewListValue(inner), NewIntegerFromInt64(1)); err == nil {
		t.Fatal("expected error using a composite (List) value as a dict key")
	}
}
