package shellz

import (
	"math/big"
	"testing"
	"time"
)

func TestValueScalarRoundTrip(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		v := NewText("hello")
		s, err := v.Text()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != "hello" {
			t.Errorf("expected %q, got %q", "hello", s)
		}
		if v.Tag() != TagText {
			t.Errorf("expected TagText, got %v", v.Tag())
		}
	})

	t.Run("Integer", func(t *testing.T) {
		v, err := NewInteger(big.NewInt(42))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		i, err := v.Integer()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if i.Int64() != 42 {
			t.Errorf("expected 42, got %s", i)
		}
	})

	t.Run("Integer out of 128-bit range rejected", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 200)
		if _, err := NewInteger(huge); err == nil {
			t.Fatal("expected error for out-of-range integer")
		}
	})

	t.Run("Bool", func(t *testing.T) {
		v := NewBool(true)
		b, err := v.Bool()
		if err != nil || !b {
			t.Fatalf("expected true, got %v (err %v)", b, err)
		}
	})

	t.Run("Time", func(t *testing.T) {
		now := time.Now()
		v := NewTime(now)
		got, err := v.Time()
		if err != nil || !got.Equal(now) {
			t.Fatalf("expected %v, got %v (err %v)", now, got, err)
		}
	})

	t.Run("Duration", func(t *testing.T) {
		v := NewDuration(5 * time.Second)
		d, err := v.Duration()
		if err != nil || d != 5*time.Second {
			t.Fatalf("expected 5s, got %v (err %v)", d, err)
		}
	})
}

func TestValueWrongAccessorFails(t *testing.T) {
	v := NewText("hello")
	_, err := v.Integer()
	if err == nil {
		t.Fatal("expected type error reading Integer off a Text value")
	}
	if !IsKind(err, KindType) {
		t.Error("expected KindType error")
	}
}

func TestGlobCompileAndMatch(t *testing.T) {
	g, err := CompileGlob("*.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := g.Match("value.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected value.go to match *.go")
	}
	ok, err = g.Match("value.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("did not expect value.txt to match *.go")
	}
}

func TestGlobCompileInvalidPattern(t *testing.T) {
	if _, err := CompileGlob("["); err == nil {
		t.Fatal("expected error for invalid glob pattern")
	}
}

func TestRegexCompileAndValue(t *testing.T) {
	r, err := CompileRegex(`^\d+$`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := NewRegex(r)
	got, err := v.RegexValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Compiled.MatchString("123") {
		t.Error("expected 123 to match")
	}
	if got.Compiled.MatchString("abc") {
		t.Error("did not expect abc to match")
	}
}

func TestRegexCompileInvalidPattern(t *testing.T) {
	if _, err := CompileRegex("("); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestValueTypeComposite(t *testing.T) {
	l, err := NewListFrom(TypeInteger, []Value{NewIntegerFromInt64(1), NewIntegerFromInt64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := NewListValue(l)
	typ := v.Type()
	if typ.Tag != TagList {
		t.Fatalf("expected TagList, got %v", typ.Tag)
	}
	if !typ.Inner.Equal(TypeInteger) {
		t.Errorf("expected inner type integer, got %v", typ.Inner)
	}
}
