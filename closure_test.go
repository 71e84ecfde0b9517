package shellz

import (
	"context"
	"testing"
)

type readVarBody struct {
	name string
	out  *Value
}

func (b readVarBody) Run(_ context.Context, ec *ExecutionContext) error {
	v, ok := ec.Env.GetStr(b.name)
	if !ok {
		return LookupError("unknown variable " + b.name)
	}
	*b.out = v
	return nil
}

func TestClosureCapturesScopeByReference(t *testing.T) {
	scope := NewScope("", false, false, false)
	_ = scope.Declare("x", NewIntegerFromInt64(1))

	var result Value
	closure := NewClosure(readVarBody{name: "x", out: &result}).WithEnv(scope)

	if err := closure.Invoke(context.Background(), &ExecutionContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, _ := result.Integer()
	if n.Int64() != 1 {
		t.Errorf("expected 1, got %s", n)
	}

	// Late binding: mutating the captured scope after capture, but before
	// invocation, must be visible — the closure sees the scope's current
	// state, not a snapshot taken at capture time.
	_ = scope.Redeclare("x", NewIntegerFromInt64(42))
	if err := closure.Invoke(context.Background(), &ExecutionContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, _ = result.Integer()
	if n.Int64() != 42 {
		t.Errorf("expected late-bound value 42, got %s", n)
	}
}

func TestClosureAsCommand(t *testing.T) {
	scope := NewScope("", false, false, false)
	_ = scope.Declare("x", NewText("hi"))

	var result Value
	closure := NewClosure(readVarBody{name: "x", out: &result}).WithEnv(scope)
	cmd := closure.AsCommand()

	if cmd.CommandName() != "closure" {
		t.Errorf("expected command name \"closure\", got %q", cmd.CommandName())
	}
	if err := cmd.Invoke(context.Background(), &ExecutionContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := result.Text()
	if got != "hi" {
		t.Errorf("expected \"hi\", got %q", got)
	}
}
