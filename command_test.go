package shellz

import "testing"

func TestExecutionContextWithArgs(t *testing.T) {
	this := NewText("receiver")
	ec := &ExecutionContext{Arguments: []Value{NewIntegerFromInt64(1)}}
	next := ec.WithArgs([]Value{NewIntegerFromInt64(2)}, &this)

	if len(ec.Arguments) != 1 {
		t.Fatalf("expected original context untouched, got %d arguments", len(ec.Arguments))
	}
	if len(next.Arguments) != 1 {
		t.Fatalf("expected new context to carry new arguments, got %d", len(next.Arguments))
	}
	n, _ := next.Arguments[0].Integer()
	if n.Int64() != 2 {
		t.Errorf("expected new argument 2, got %s", n)
	}
	if next.This != &this {
		t.Error("expected This to be set on the new context")
	}
}

func TestOutputTypeConstructors(t *testing.T) {
	known := Known(TypeInteger)
	if known.Kind != OutputKnown {
		t.Error("expected Known() to report OutputKnown")
	}
	if !known.Type.Equal(TypeInteger) {
		t.Errorf("expected known type integer, got %v", known.Type)
	}
	if Unknown.Kind != OutputUnknown {
		t.Error("expected Unknown to report OutputUnknown")
	}
}
