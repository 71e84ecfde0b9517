package shellz

import (
	"math/big"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func compileOne(t *testing.T, d Definition, env Env) Value {
	t.Helper()
	deps := NewDependencyList()
	v, err := d.Compile(deps, env, nil)
	if err != nil {
		t.Fatalf("unexpected error compiling %T: %v", d, err)
	}
	return v
}

func TestTextIntegerFieldLiteralDefinitions(t *testing.T) {
	root := NewGlobalScope()

	v := compileOne(t, TextDefinition{Value: "hi"}, root)
	s, _ := v.Text()
	if s != "hi" {
		t.Errorf("expected \"hi\", got %q", s)
	}

	v = compileOne(t, IntegerDefinition{Value: big.NewInt(5)}, root)
	n, _ := v.Integer()
	if n.Int64() != 5 {
		t.Errorf("expected 5, got %s", n)
	}

	v = compileOne(t, FieldDefinition{Components: []string{"a", "b"}}, root)
	f, _ := v.Field()
	if len(f) != 2 || f[0] != "a" || f[1] != "b" {
		t.Errorf("expected [a b], got %v", f)
	}
}

func TestVariableDefinitionResolvesAndFails(t *testing.T) {
	root := NewGlobalScope()
	_ = root.Declare("x", NewIntegerFromInt64(10))

	v := compileOne(t, VariableDefinition{Path: []string{"x"}}, root)
	n, _ := v.Integer()
	if n.Int64() != 10 {
		t.Errorf("expected 10, got %s", n)
	}

	deps := NewDependencyList()
	if _, err := (VariableDefinition{Path: []string{"missing"}}).Compile(deps, root, nil); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}

func TestListDefinitionCompilesElementsInOrder(t *testing.T) {
	root := NewGlobalScope()
	def := ListDefinition{
		ElementType: TypeInteger,
		Elements: []Definition{
			IntegerDefinition{Value: big.NewInt(1)},
			IntegerDefinition{Value: big.NewInt(2)},
			IntegerDefinition{Value: big.NewInt(3)},
		},
	}
	v := compileOne(t, def, root)
	list, _ := v.ListValue()
	if list.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", list.Len())
	}
	first, _ := list.Get(0)
	n, _ := first.Integer()
	if n.Int64() != 1 {
		t.Errorf("expected first element 1, got %s", n)
	}
}

func TestSubscriptDefinitionListByIndex(t *testing.T) {
	root := NewGlobalScope()
	listDef := ListDefinition{
		ElementType: TypeInteger,
		Elements: []Definition{
			IntegerDefinition{Value: big.NewInt(10)},
			IntegerDefinition{Value: big.NewInt(20)},
		},
	}
	sub := SubscriptDefinition{Container: listDef, Index: IntegerDefinition{Value: big.NewInt(1)}}
	v := compileOne(t, sub, root)
	n, _ := v.Integer()
	if n.Int64() != 20 {
		t.Errorf("expected list[1] == 20, got %s", n)
	}
}

func TestSubscriptDefinitionScopeByName(t *testing.T) {
	root := NewGlobalScope()
	inner := NewScope("", false, false, false)
	_ = inner.Declare("greeting", NewText("hello"))
	_ = root.Declare("inner", NewScopeValue(inner))

	sub := SubscriptDefinition{
		Container: VariableDefinition{Path: []string{"inner"}},
		Index:     TextDefinition{Value: "greeting"},
	}
	v := compileOne(t, sub, root)
	s, _ := v.Text()
	if s != "hello" {
		t.Errorf("expected hello, got %q", s)
	}
}

func TestSubscriptDefinitionRejectsUnsupportedContainer(t *testing.T) {
	root := NewGlobalScope()
	sub := SubscriptDefinition{Container: TextDefinition{Value: "x"}, Index: IntegerDefinition{Value: big.NewInt(0)}}
	deps := NewDependencyList()
	if _, err := sub.Compile(deps, root, nil); err == nil {
		t.Fatal("expected type error subscripting a Text value")
	} else if !IsKind(err, KindType) {
		t.Errorf("expected KindType, got %v", err)
	}
}

func TestTimeDefinitionNow(t *testing.T) {
	fake := clockz.NewFakeClock()
	original := Clock
	Clock = fake
	defer func() { Clock = original }()

	root := NewGlobalScope()
	v := compileOne(t, TimeDefinition{Args: []Definition{TextDefinition{Value: "now"}}}, root)
	got, _ := v.Time()
	if !got.Equal(fake.Now()) {
		t.Errorf("expected %v, got %v", fake.Now(), got)
	}
}

func TestTimeDefinitionRejectsOtherArguments(t *testing.T) {
	root := NewGlobalScope()
	deps := NewDependencyList()
	if _, err := (TimeDefinition{Args: []Definition{TextDefinition{Value: "tomorrow"}}}).Compile(deps, root, nil); err == nil {
		t.Fatal("expected parse error for an argument other than \"now\"")
	}
	if _, err := (TimeDefinition{Args: nil}).Compile(deps, root, nil); err == nil {
		t.Fatal("expected parse error for zero arguments")
	}
}

func TestDurationDefinitionWholeSeconds(t *testing.T) {
	root := NewGlobalScope()
	def := DurationDefinition{Args: []Definition{IntegerDefinition{Value: big.NewInt(90)}}}
	v := compileOne(t, def, root)
	d, _ := v.Duration()
	if d != 90*time.Second {
		t.Errorf("expected 90s, got %v", d)
	}
}

func TestDurationDefinitionTimeDifference(t *testing.T) {
	root := NewGlobalScope()
	a := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	def := DurationDefinition{Args: []Definition{
		literalTime{a}, OpDefinition{Op: "-"}, literalTime{b},
	}}
	v := compileOne(t, def, root)
	d, _ := v.Duration()
	if d != 2*time.Hour {
		t.Errorf("expected 2h, got %v", d)
	}
}

func TestDurationDefinitionTimeDifferenceRejectsNegative(t *testing.T) {
	root := NewGlobalScope()
	a := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	def := DurationDefinition{Args: []Definition{
		literalTime{a}, OpDefinition{Op: "-"}, literalTime{b},
	}}
	deps := NewDependencyList()
	if _, err := def.Compile(deps, root, nil); err == nil {
		t.Fatal("expected error for a negative duration")
	}
}

func TestDurationDefinitionUnitSum(t *testing.T) {
	root := NewGlobalScope()
	def := DurationDefinition{Args: []Definition{
		IntegerDefinition{Value: big.NewInt(1)}, TextDefinition{Value: "hour"},
		IntegerDefinition{Value: big.NewInt(30)}, TextDefinition{Value: "minutes"},
	}}
	v := compileOne(t, def, root)
	d, _ := v.Duration()
	if d != 90*time.Minute {
		t.Errorf("expected 90m, got %v", d)
	}
}

func TestDurationDefinitionYearIsFixedAt365Days(t *testing.T) {
	root := NewGlobalScope()
	def := DurationDefinition{Args: []Definition{
		IntegerDefinition{Value: big.NewInt(1)}, TextDefinition{Value: "year"},
	}}
	v := compileOne(t, def, root)
	d, _ := v.Duration()
	if d != 365*24*time.Hour {
		t.Errorf("expected 365 days, got %v", d)
	}
}

func TestDurationDefinitionRejectsUnknownUnit(t *testing.T) {
	root := NewGlobalScope()
	def := DurationDefinition{Args: []Definition{
		IntegerDefinition{Value: big.NewInt(1)}, TextDefinition{Value: "fortnight"},
	}}
	deps := NewDependencyList()
	if _, err := def.Compile(deps, root, nil); err == nil {
		t.Fatal("expected error for unknown duration unit")
	}
}

func TestClosureDefinitionCapturesCompilingScope(t *testing.T) {
	scope := NewGlobalScope()
	def := ClosureDefinition{Body: readVarBody{name: "x"}}
	v := compileOne(t, def, scope)
	if v.Tag() != TagClosure {
		t.Fatalf("expected a closure value, got %v", v.Tag())
	}
	c, _ := v.ClosureValue()
	if c.CapturedScope() != scope {
		t.Error("expected the closure to capture the compiling scope")
	}
}

// literalTime is a test-only Definition producing a fixed Time value,
// standing in for whatever surface syntax a parser collaborator would
// compile to a Time argument.
type literalTime struct{ t time.Time }

func (l literalTime) Compile(*DependencyList, Env, Printer) (Value, error) {
	return NewTime(l.t), nil
}
