package shellz

import (
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Value is the tagged, dynamically typed datum carried through the system
// (spec.md §3). It is an immutable handle: scalar variants copy by value,
// shared-mutable variants (List, Dict, Struct) copy a reference to the same
// underlying container, matching the data model's "shared by reference"
// lifecycle rule.
type Value struct {
	tag  Tag
	data any
}

// Tag reports which variant this Value holds.
func (v Value) Tag() Tag { return v.tag }

// Type computes this Value's static ValueType, including inner schema for
// composite variants.
func (v Value) Type() ValueType {
	switch v.tag {
	case TagList:
		return ListType(v.data.(*List).elementType)
	case TagDict:
		d := v.data.(*Dict)
		return DictType(d.keyType, d.valueType)
	case TagTable:
		return TableType(v.data.(*Table).Columns)
	case TagTableStream:
		return TableStreamType(v.data.(*TableStream).stream.Types())
	default:
		return ValueType{Tag: v.tag}
	}
}

func (v Value) String() string {
	switch v.tag {
	case TagEmpty:
		return "<empty>"
	case TagText:
		return v.data.(string)
	case TagInteger:
		return v.data.(*big.Int).String()
	case TagFloat:
		return fmt.Sprintf("%g", v.data.(float64))
	case TagBool:
		return fmt.Sprintf("%v", v.data.(bool))
	case TagTime:
		return v.data.(time.Time).Format(time.RFC3339)
	case TagDuration:
		return v.data.(time.Duration).String()
	case TagField:
		return fmt.Sprintf("%v", v.data.([]string))
	case TagGlob:
		return v.data.(Glob).Pattern
	case TagRegex:
		return v.data.(Regex).Source
	case TagFile:
		return v.data.(string)
	case TagOp:
		return v.data.(string)
	default:
		return fmt.Sprintf("<%s>", v.tag)
	}
}

// Empty is the unit value.
func Empty() Value { return Value{tag: TagEmpty} }

// NewText wraps an immutable string.
func NewText(s string) Value { return Value{tag: TagText, data: s} }

// Text returns the wrapped string, or an error if v is not Text.
func (v Value) Text() (string, error) {
	s, ok := v.data.(string)
	if !ok || v.tag != TagText {
		return "", TypeErrorf("expected text, got %s", v.tag)
	}
	return s, nil
}

// NewInteger wraps a 128-bit signed integer. Go has no native int128;
// math/big.Int is the standard-library representation (no pack example
// grounds a third-party fixed-width integer type — see DESIGN.md).
// Values outside the signed-128-bit range are rejected.
func NewInteger(i *big.Int) (Value, error) {
	if i.BitLen() > 127 && !(i.Sign() < 0 && i.BitLen() == 128 && i.TrailingZeroBits() == 127) {
		return Value{}, TypeError("integer out of 128-bit range")
	}
	return Value{tag: TagInteger, data: new(big.Int).Set(i)}, nil
}

// NewIntegerFromInt64 is a convenience wrapper for NewInteger.
func NewIntegerFromInt64(i int64) Value {
	v, _ := NewInteger(big.NewInt(i))
	return v
}

// Integer returns the wrapped *big.Int, or an error if v is not Integer.
func (v Value) Integer() (*big.Int, error) {
	i, ok := v.data.(*big.Int)
	if !ok || v.tag != TagInteger {
		return nil, TypeErrorf("expected integer, got %s", v.tag)
	}
	return i, nil
}

// NewFloat wraps a 64-bit float.
func NewFloat(f float64) Value { return Value{tag: TagFloat, data: f} }

// Float returns the wrapped float64.
func (v Value) Float() (float64, error) {
	f, ok := v.data.(float64)
	if !ok || v.tag != TagFloat {
		return 0, TypeErrorf("expected float, got %s", v.tag)
	}
	return f, nil
}

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{tag: TagBool, data: b} }

// Bool returns the wrapped bool.
func (v Value) Bool() (bool, error) {
	b, ok := v.data.(bool)
	if !ok || v.tag != TagBool {
		return false, TypeErrorf("expected bool, got %s", v.tag)
	}
	return b, nil
}

// NewTime wraps an absolute local timestamp.
func NewTime(t time.Time) Value { return Value{tag: TagTime, data: t} }

// Time returns the wrapped time.Time.
func (v Value) Time() (time.Time, error) {
	t, ok := v.data.(time.Time)
	if !ok || v.tag != TagTime {
		return time.Time{}, TypeErrorf("expected time, got %s", v.tag)
	}
	return t, nil
}

// NewDuration wraps a signed interval.
func NewDuration(d time.Duration) Value { return Value{tag: TagDuration, data: d} }

// Duration returns the wrapped time.Duration.
func (v Value) Duration() (time.Duration, error) {
	d, ok := v.data.(time.Duration)
	if !ok || v.tag != TagDuration {
		return 0, TypeErrorf("expected duration, got %s", v.tag)
	}
	return d, nil
}

// NewField wraps an ordered sequence of path components naming a
// column/path.
func NewField(components []string) Value {
	cp := make([]string, len(components))
	copy(cp, components)
	return Value{tag: TagField, data: cp}
}

// Field returns the wrapped path components.
func (v Value) Field() ([]string, error) {
	f, ok := v.data.([]string)
	if !ok || v.tag != TagField {
		return nil, TypeErrorf("expected field, got %s", v.tag)
	}
	return f, nil
}

// Glob is a compiled glob pattern. Matching is delegated to
// github.com/bmatcuk/doublestar/v4, the matcher termfx-morfx's file walker
// uses, instead of a hand-rolled implementation.
type Glob struct {
	Pattern string
}

// CompileGlob validates pattern and returns a Glob value wrapping it.
func CompileGlob(pattern string) (Glob, error) {
	if !doublestar.ValidatePattern(pattern) {
		return Glob{}, ArgumentErrorf("invalid glob pattern %q", pattern)
	}
	return Glob{Pattern: pattern}, nil
}

// Match reports whether name matches this glob's pattern.
func (g Glob) Match(name string) (bool, error) {
	ok, err := doublestar.Match(g.Pattern, name)
	if err != nil {
		return false, ArgumentErrorf("invalid glob pattern %q: %v", g.Pattern, err)
	}
	return ok, nil
}

// NewGlob wraps a compiled Glob.
func NewGlob(g Glob) Value { return Value{tag: TagGlob, data: g} }

// GlobValue returns the wrapped Glob.
func (v Value) GlobValue() (Glob, error) {
	g, ok := v.data.(Glob)
	if !ok || v.tag != TagGlob {
		return Glob{}, TypeErrorf("expected glob, got %s", v.tag)
	}
	return g, nil
}

// Regex keeps the source pattern string (for display/serialization)
// alongside the compiled matcher. The standard library's regexp package is
// used for matching — see DESIGN.md for why no third-party regex engine
// from the pack is a better fit.
type Regex struct {
	Source   string
	Compiled *regexp.Regexp
}

// CompileRegex compiles source and returns a Regex value wrapping it.
func CompileRegex(source string) (Regex, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return Regex{}, ArgumentErrorf("invalid regex %q: %v", source, err)
	}
	return Regex{Source: source, Compiled: re}, nil
}

// NewRegex wraps a compiled Regex.
func NewRegex(r Regex) Value { return Value{tag: TagRegex, data: r} }

// RegexValue returns the wrapped Regex.
func (v Value) RegexValue() (Regex, error) {
	r, ok := v.data.(Regex)
	if !ok || v.tag != TagRegex {
		return Regex{}, TypeErrorf("expected regex, got %s", v.tag)
	}
	return r, nil
}

// NewFile wraps a filesystem path.
func NewFile(path string) Value { return Value{tag: TagFile, data: path} }

// File returns the wrapped path.
func (v Value) File() (string, error) {
	f, ok := v.data.(string)
	if !ok || v.tag != TagFile {
		return "", TypeErrorf("expected file, got %s", v.tag)
	}
	return f, nil
}

// NewOp wraps an operator token. Op only ever appears transiently during
// compilation (spec.md §9) — it is never a command's input or output.
func NewOp(op string) Value { return Value{tag: TagOp, data: op} }

// Op returns the wrapped operator token.
func (v Value) Op() (string, error) {
	o, ok := v.data.(string)
	if !ok || v.tag != TagOp {
		return "", TypeErrorf("expected op, got %s", v.tag)
	}
	return o, nil
}

// NewListValue wraps a *List.
func NewListValue(l *List) Value { return Value{tag: TagList, data: l} }

// ListValue returns the wrapped *List.
func (v Value) ListValue() (*List, error) {
	l, ok := v.data.(*List)
	if !ok || v.tag != TagList {
		return nil, TypeErrorf("expected list, got %s", v.tag)
	}
	return l, nil
}

// NewDictValue wraps a *Dict.
func NewDictValue(d *Dict) Value { return Value{tag: TagDict, data: d} }

// DictValue returns the wrapped *Dict.
func (v Value) DictValue() (*Dict, error) {
	d, ok := v.data.(*Dict)
	if !ok || v.tag != TagDict {
		return nil, TypeErrorf("expected dict, got %s", v.tag)
	}
	return d, nil
}

// NewStructValue wraps a *Struct.
func NewStructValue(s *Struct) Value { return Value{tag: TagStruct, data: s} }

// StructValue returns the wrapped *Struct.
func (v Value) StructValue() (*Struct, error) {
	s, ok := v.data.(*Struct)
	if !ok || v.tag != TagStruct {
		return nil, TypeErrorf("expected struct, got %s", v.tag)
	}
	return s, nil
}

// NewRowValue wraps a Row.
func NewRowValue(r Row) Value { return Value{tag: TagRow, data: r} }

// RowValue returns the wrapped Row.
func (v Value) RowValue() (Row, error) {
	r, ok := v.data.(Row)
	if !ok || v.tag != TagRow {
		return Row{}, TypeErrorf("expected row, got %s", v.tag)
	}
	return r, nil
}

// NewTableValue wraps a *Table.
func NewTableValue(t *Table) Value { return Value{tag: TagTable, data: t} }

// TableValue returns the wrapped *Table.
func (v Value) TableValue() (*Table, error) {
	t, ok := v.data.(*Table)
	if !ok || v.tag != TagTable {
		return nil, TypeErrorf("expected table, got %s", v.tag)
	}
	return t, nil
}

// NewTableStreamValue wraps a *TableStream.
func NewTableStreamValue(t *TableStream) Value { return Value{tag: TagTableStream, data: t} }

// TableStreamValue returns the wrapped *TableStream.
func (v Value) TableStreamValue() (*TableStream, error) {
	t, ok := v.data.(*TableStream)
	if !ok || v.tag != TagTableStream {
		return nil, TypeErrorf("expected table_stream, got %s", v.tag)
	}
	return t, nil
}

// NewScopeValue wraps a *Scope.
func NewScopeValue(s *Scope) Value { return Value{tag: TagScope, data: s} }

// ScopeValue returns the wrapped *Scope.
func (v Value) ScopeValue() (*Scope, error) {
	s, ok := v.data.(*Scope)
	if !ok || v.tag != TagScope {
		return nil, TypeErrorf("expected scope, got %s", v.tag)
	}
	return s, nil
}

// NewClosureValue wraps a *Closure.
func NewClosureValue(c *Closure) Value { return Value{tag: TagClosure, data: c} }

// ClosureValue returns the wrapped *Closure.
func (v Value) ClosureValue() (*Closure, error) {
	c, ok := v.data.(*Closure)
	if !ok || v.tag != TagClosure {
		return nil, TypeErrorf("expected closure, got %s", v.tag)
	}
	return c, nil
}

// NewCommandValue wraps a first-class Command.
func NewCommandValue(c Command) Value { return Value{tag: TagCommand, data: c} }

// CommandValue returns the wrapped Command.
func (v Value) CommandValue() (Command, error) {
	c, ok := v.data.(Command)
	if !ok || v.tag != TagCommand {
		return nil, TypeErrorf("expected command, got %s", v.tag)
	}
	return c, nil
}
