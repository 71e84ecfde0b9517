package shellz

import "context"

// ClosureBody is the compiled statement body a Closure wraps. The surface
// parser/evaluator that turns statement syntax into a ClosureBody is an
// external collaborator (spec.md §1); shellz only owns capture and late
// binding.
type ClosureBody interface {
	Run(ctx context.Context, ec *ExecutionContext) error
}

// Closure is a compiled body plus a captured scope (spec.md §3). Capture is
// by reference: invoking the closure later sees whatever the captured
// scope's bindings are *at invocation time*, not at compile time, because
// Scope is a shared-mutable reference rather than a value copy (spec.md §8,
// "Closure capture").
type Closure struct {
	id       Identity
	body     ClosureBody
	captured *Scope
}

// NewClosure wraps body with no captured scope yet; WithEnv binds one.
func NewClosure(body ClosureBody) *Closure {
	return &Closure{id: NewIdentity(), body: body}
}

// ID returns this closure's stable identity.
func (c *Closure) ID() Identity { return c.id }

// WithEnv returns a new Closure sharing this one's body but capturing env
// (spec.md §4.5 ClosureDefinition: "bind the closure to the current
// scope").
func (c *Closure) WithEnv(env *Scope) *Closure {
	return &Closure{id: c.id, body: c.body, captured: env}
}

// CapturedScope returns the scope this closure will run against.
func (c *Closure) CapturedScope() *Scope { return c.captured }

// Invoke runs the closure's body with its captured scope as the execution
// environment.
func (c *Closure) Invoke(ctx context.Context, ec *ExecutionContext) error {
	callEc := *ec
	callEc.Env = c.captured
	return c.body.Run(ctx, &callEc)
}

// closureCommand adapts a Closure to the Command interface so a closure value
// can be invoked wherever a first-class Command is expected (e.g. as an
// `if` clause).
type closureCommand struct {
	closure *Closure
}

func (cc closureCommand) Invoke(ctx context.Context, ec *ExecutionContext) error {
	return cc.closure.Invoke(ctx, ec)
}
func (closureCommand) CommandName() string    { return "closure" }
func (closureCommand) Help() string           { return "an invocable closure" }
func (closureCommand) OutputKind() OutputType { return Unknown }

// AsCommand adapts this closure to the Command interface.
func (c *Closure) AsCommand() Command { return closureCommand{closure: c} }
