package shellz

import "context"

// OutputKind distinguishes a Command whose output type is statically known
// from one that depends on its arguments.
type OutputKind int

const (
	// OutputUnknown means the command's output type cannot be predicted
	// without running it.
	OutputUnknown OutputKind = iota
	// OutputKnown means the command always produces values of a fixed
	// ValueType.
	OutputKnown
)

// OutputType is a Command's static output-type metadata (spec.md §6).
type OutputType struct {
	Kind OutputKind
	Type ValueType
}

// Known builds an OutputType whose type is statically fixed.
func Known(t ValueType) OutputType { return OutputType{Kind: OutputKnown, Type: t} }

// Unknown is the OutputType for commands whose result type depends on
// their arguments or input.
var Unknown = OutputType{Kind: OutputUnknown}

// Command is the capability external collaborators implement to plug a
// builtin into the pipeline machinery (spec.md §6). A command reads from
// ExecutionContext.Input, writes to ExecutionContext.Output, and may
// inspect ExecutionContext.This (the method-call receiver) and
// ExecutionContext.Arguments.
type Command interface {
	// Invoke runs the command body. It must not retain ec.Input/Output
	// beyond its own lifetime — those channels are only valid for the
	// duration of this call.
	Invoke(ctx context.Context, ec *ExecutionContext) error
	// CommandName identifies the command for error messages and `help`.
	CommandName() string
	// Help is a short, one-line description of the command.
	Help() string
	// OutputKind reports whether the command's output ValueType is
	// statically known.
	OutputKind() OutputType
}

// ExecutionContext is the per-stage environment a Command runs in
// (spec.md §4.6). Each ExecutionContext is single-threaded: a command may
// freely mutate its own locals, but anything it reaches through Env must go
// through Env's synchronized API.
type ExecutionContext struct {
	Arguments []Value
	Input     *InputStream
	Output    RowSender
	ValueOut  ValueSender
	Env       Env
	This      *Value
	Printer   Printer
}

// WithArgs returns a shallow copy of ctx with new Arguments and an optional
// new This receiver, used when one command delegates to another (e.g. `if`
// invoking its chosen clause).
func (ctx *ExecutionContext) WithArgs(args []Value, this *Value) *ExecutionContext {
	cp := *ctx
	cp.Arguments = args
	cp.This = this
	return &cp
}
