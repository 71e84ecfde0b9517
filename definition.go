package shellz

import (
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Definition is an uncompiled expression node: the two-phase model's first
// phase (spec.md §3, §4.5). Compile turns a Definition into a Value against
// a concrete Env, tracking any stream dependencies it opens in deps so a
// later failure can drain them instead of leaking goroutines (spec.md §9).
type Definition interface {
	Compile(deps *DependencyList, env Env, printer Printer) (Value, error)
}

// DependencyList accumulates the InputStreams a compilation opens, so a
// caller that aborts mid-compile can drain every dependency's producer
// instead of leaving its goroutine blocked on a full channel (spec.md §9,
// "drain deps on error").
type DependencyList struct {
	mu      sync.Mutex
	streams []*InputStream
	handles []*JobJoinHandle
}

// NewDependencyList creates an empty tracking list.
func NewDependencyList() *DependencyList { return &DependencyList{} }

// Track records a stream opened during compilation.
func (d *DependencyList) Track(s *InputStream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streams = append(d.streams, s)
}

// TrackHandle records a job's JobJoinHandle, so a stage error the job
// itself raises (not just a row-validation error surfaced through Drain)
// is still visible to a caller that only awaits DrainAll.
func (d *DependencyList) TrackHandle(h *JobJoinHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handles = append(d.handles, h)
}

// DrainAll drains every tracked stream to completion and waits on every
// tracked job handle, returning the first error encountered (if any) after
// draining/waiting on the rest.
func (d *DependencyList) DrainAll() error {
	d.mu.Lock()
	streams := make([]*InputStream, len(d.streams))
	copy(streams, d.streams)
	handles := make([]*JobJoinHandle, len(d.handles))
	copy(handles, d.handles)
	d.mu.Unlock()

	var first error
	for _, s := range streams {
		if err := s.Drain(); err != nil && first == nil {
			first = err
		}
	}
	for _, h := range handles {
		if err := h.Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// TextDefinition is a literal Text value.
type TextDefinition struct{ Value string }

func (d TextDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	return NewText(d.Value), nil
}

// IntegerDefinition is a literal Integer value.
type IntegerDefinition struct{ Value *big.Int }

func (d IntegerDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	return NewInteger(d.Value)
}

// FieldDefinition is a literal Field (column path) value.
type FieldDefinition struct{ Components []string }

func (d FieldDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	return NewField(d.Components), nil
}

// GlobDefinition is a literal Glob pattern, compiled (and validated) once.
type GlobDefinition struct{ Pattern string }

func (d GlobDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	g, err := CompileGlob(d.Pattern)
	if err != nil {
		return Value{}, err
	}
	return NewGlob(g), nil
}

// RegexDefinition is a literal Regex pattern, compiled once.
type RegexDefinition struct{ Source string }

func (d RegexDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	r, err := CompileRegex(d.Source)
	if err != nil {
		return Value{}, err
	}
	return NewRegex(r), nil
}

// OpDefinition is a bare operator token, only ever meaningful as an operand
// inside another Definition (e.g. DurationDefinition's Time/Op/Time form).
type OpDefinition struct{ Op string }

func (d OpDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	return NewOp(d.Op), nil
}

// FileDefinition is a literal filesystem path.
type FileDefinition struct{ Path string }

func (d FileDefinition) Compile(*DependencyList, Env, Printer) (Value, error) {
	return NewFile(d.Path), nil
}

// VariableDefinition resolves a dotted name path against env at compile
// time (spec.md §4.5, `Variable(path)`).
type VariableDefinition struct{ Path []string }

func (d VariableDefinition) Compile(_ *DependencyList, env Env, _ Printer) (Value, error) {
	v, ok := env.Get(d.Path)
	return Mandate(v, ok, fmt.Sprintf("unknown variable %s", joinPath(d.Path)))
}

func joinPath(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// ListDefinition builds a List value, compiling each element definition and
// appending in order (spec.md §4.5).
type ListDefinition struct {
	ElementType ValueType
	Elements    []Definition
}

func (d ListDefinition) Compile(deps *DependencyList, env Env, printer Printer) (Value, error) {
	l := NewList(d.ElementType)
	for _, elemDef := range d.Elements {
		v, err := elemDef.Compile(deps, env, printer)
		if err != nil {
			return Value{}, err
		}
		if err := l.Append(v); err != nil {
			return Value{}, err
		}
	}
	return NewListValue(l), nil
}

// SubscriptDefinition indexes a compiled container by a compiled index
// value. The accepted (container, index) pairings are List[Integer],
// Dict[Value], Scope[Text], Row[Text], and TableStream[Integer] (spec.md
// §4.5's Subscript table); any other pairing is a type error.
type SubscriptDefinition struct {
	Container Definition
	Index     Definition
}

func (d SubscriptDefinition) Compile(deps *DependencyList, env Env, printer Printer) (Value, error) {
	container, err := d.Container.Compile(deps, env, printer)
	if err != nil {
		return Value{}, err
	}
	index, err := d.Index.Compile(deps, env, printer)
	if err != nil {
		return Value{}, err
	}
	switch container.Tag() {
	case TagList:
		l, _ := container.ListValue()
		i, err := index.Integer()
		if err != nil {
			return Value{}, TypeErrorf("list subscript requires an integer index, got %s", index.Type())
		}
		return l.Get(int(i.Int64()))
	case TagDict:
		dict, _ := container.DictValue()
		return dict.Get(index)
	case TagScope:
		scope, _ := container.ScopeValue()
		name, err := index.Text()
		if err != nil {
			return Value{}, TypeErrorf("scope subscript requires a text index, got %s", index.Type())
		}
		v, ok := scope.GetStr(name)
		return Mandate(v, ok, "invalid subscript")
	case TagRow:
		row, _ := container.RowValue()
		name, err := index.Text()
		if err != nil {
			return Value{}, TypeErrorf("row subscript requires a text index, got %s", index.Type())
		}
		return row.Get(name)
	case TagTableStream:
		ts, _ := container.TableStreamValue()
		i, err := index.Integer()
		if err != nil {
			return Value{}, TypeErrorf("table_stream subscript requires an integer index, got %s", index.Type())
		}
		row, err := ts.Get(int(i.Int64()))
		if err != nil {
			return Value{}, err
		}
		return NewRowValue(row), nil
	default:
		return Value{}, TypeErrorf("%s is not subscriptable", container.Type())
	}
}

// TimeDefinition compiles to an absolute timestamp. The only accepted form
// is a single Text argument equal to "now" (grounded on crush's
// compile_time_mode); anything else is a parse error, since surface syntax
// for other time literals is the parser collaborator's concern, not ours.
type TimeDefinition struct {
	Args []Definition
}

func (d TimeDefinition) Compile(deps *DependencyList, env Env, printer Printer) (Value, error) {
	args, err := compileAll(d.Args, deps, env, printer)
	if err != nil {
		return Value{}, err
	}
	if len(args) != 1 {
		return Value{}, ParseError("time() takes exactly one argument")
	}
	text, err := args[0].Text()
	if err != nil || text != "now" {
		return Value{}, ParseError(`time() only accepts the literal "now"`)
	}
	return NewTime(Clock.Now()), nil
}

// DurationDefinition compiles a duration literal in one of three forms
// (grounded on crush's compile_duration_mode / to_duration):
//
//   - [Integer(n)]: n whole seconds.
//   - [Time, Op("-"), Time]: the difference between two times; negative
//     results are rejected.
//   - an even-length run of (Integer, Text) pairs, each pair an amount and
//     a unit name, summed. Units: nanosecond(s), microsecond(s),
//     millisecond(s), second(s), minute(s), hour(s), day(s), year(s) — a
//     year is fixed at 365 days.
type DurationDefinition struct {
	Args []Definition
}

func (d DurationDefinition) Compile(deps *DependencyList, env Env, printer Printer) (Value, error) {
	args, err := compileAll(d.Args, deps, env, printer)
	if err != nil {
		return Value{}, err
	}
	return compileDuration(args)
}

func compileDuration(args []Value) (Value, error) {
	switch {
	case len(args) == 1 && args[0].Tag() == TagInteger:
		n, _ := args[0].Integer()
		return NewDuration(time.Duration(n.Int64()) * time.Second), nil

	case len(args) == 3 && args[0].Tag() == TagTime && args[1].Tag() == TagOp && args[2].Tag() == TagTime:
		op, _ := args[1].Op()
		if op != "-" {
			return Value{}, ParseError("duration(time, op, time) only accepts \"-\"")
		}
		a, _ := args[0].Time()
		b, _ := args[2].Time()
		diff := a.Sub(b)
		if diff < 0 {
			return Value{}, ArgumentError("duration cannot be negative")
		}
		return NewDuration(diff), nil

	case len(args) > 0 && len(args)%2 == 0:
		var total time.Duration
		for i := 0; i < len(args); i += 2 {
			amount, err := args[i].Integer()
			if err != nil {
				return Value{}, TypeErrorf("duration component %d must be an integer amount", i)
			}
			unitName, err := args[i+1].Text()
			if err != nil {
				return Value{}, TypeErrorf("duration component %d must be a text unit name", i+1)
			}
			unit, err := durationUnit(unitName)
			if err != nil {
				return Value{}, err
			}
			total += time.Duration(amount.Int64()) * unit
		}
		return NewDuration(total), nil

	default:
		return Value{}, ParseError("unrecognized duration() argument form")
	}
}

func durationUnit(name string) (time.Duration, error) {
	switch name {
	case "nanosecond", "nanoseconds":
		return time.Nanosecond, nil
	case "microsecond", "microseconds":
		return time.Microsecond, nil
	case "millisecond", "milliseconds":
		return time.Millisecond, nil
	case "second", "seconds":
		return time.Second, nil
	case "minute", "minutes":
		return time.Minute, nil
	case "hour", "hours":
		return time.Hour, nil
	case "day", "days":
		return 24 * time.Hour, nil
	case "year", "years":
		return 365 * 24 * time.Hour, nil
	default:
		return 0, ArgumentErrorf("unknown duration unit %q", name)
	}
}

func compileAll(defs []Definition, deps *DependencyList, env Env, printer Printer) ([]Value, error) {
	out := make([]Value, len(defs))
	for i, def := range defs {
		v, err := def.Compile(deps, env, printer)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ClosureDefinition compiles a closure body, capturing env as the scope it
// runs against (spec.md §4.5). Capture requires a concrete *Scope since
// late binding is implemented via Scope's shared mutable state; an Env that
// isn't one can't be captured meaningfully.
type ClosureDefinition struct {
	Body ClosureBody
}

func (d ClosureDefinition) Compile(_ *DependencyList, env Env, _ Printer) (Value, error) {
	scope, ok := env.(*Scope)
	if !ok {
		return Value{}, GenericError("closures can only capture a concrete scope")
	}
	closure := NewClosure(d.Body).WithEnv(scope)
	return NewClosureValue(closure), nil
}
