package shellz

import (
	"errors"
	"fmt"
)

// Kind classifies a structured Error so callers can branch on failure mode
// without parsing messages.
type Kind int

// The error kinds named by the core's error model.
const (
	KindGeneric Kind = iota
	KindParse
	KindArgument
	KindType
	KindLookup
	KindIO
	KindSend
	KindRecv
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindArgument:
		return "argument"
	case KindType:
		return "type"
	case KindLookup:
		return "lookup"
	case KindIO:
		return "io"
	case KindSend:
		return "send"
	case KindRecv:
		return "recv"
	default:
		return "generic"
	}
}

// Location names a source position. It is optional context attached to an
// Error; the core never exposes internal identities or indices here, only
// what a user-visible message is allowed to contain (spec.md §7).
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error is the structured error value every core operation returns instead
// of panicking or unwinding. Errors are data: a Kind, a user-facing
// Message, and an optional Location, wrapping an underlying cause when one
// exists so errors.Is/errors.As keep working.
type Error struct {
	Kind     Kind
	Message  string
	Location *Location
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Location != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Location)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newError is the shared constructor behind the canonical Kind helpers.
func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// GenericError builds an unclassified error. Prefer a specific constructor
// when one applies.
func GenericError(message string) *Error {
	return newError(KindGeneric, message, nil)
}

// ParseError reports a failure while turning surface syntax into a
// Definition tree. The core never parses syntax itself, but it is the
// vocabulary a parser collaborator is expected to report through.
func ParseError(message string) *Error {
	return newError(KindParse, message, nil)
}

// ArgumentError reports a command invocation with an invalid argument list.
func ArgumentError(message string) *Error {
	return newError(KindArgument, message, nil)
}

// ArgumentErrorf is ArgumentError with fmt.Sprintf formatting.
func ArgumentErrorf(format string, args ...any) *Error {
	return ArgumentError(fmt.Sprintf(format, args...))
}

// TypeError reports a dynamic type mismatch: an assignment, subscript, or
// stream row whose value type failed is().
func TypeError(message string) *Error {
	return newError(KindType, message, nil)
}

// TypeErrorf is TypeError with fmt.Sprintf formatting.
func TypeErrorf(format string, args ...any) *Error {
	return TypeError(fmt.Sprintf(format, args...))
}

// LookupError reports a missing scope name or dict key.
func LookupError(message string) *Error {
	return newError(KindLookup, message, nil)
}

// IOError wraps an underlying I/O failure (serialization, filesystem).
func IOError(cause error) *Error {
	return newError(KindIO, cause.Error(), cause)
}

// SendError reports sending on a channel whose receiver has been dropped —
// spec.md's "broken pipe" case. It terminates the sending stage.
func SendError() *Error {
	return newError(KindSend, "broken pipe", nil)
}

// RecvError reports a receive that found no more data: end-of-stream on an
// InputStream or a closed value channel. Readers treat KindRecv as ordinary
// termination rather than a failure (see InputStream.Recv and Drain).
func RecvError(message string) *Error {
	return newError(KindRecv, message, nil)
}

// Mandate turns the two-value "found" idiom (map lookups, optional fields)
// into an Error when the value is absent, mirroring the core's
// `mandate(opt, msg)` constructor. It is generic so it works uniformly over
// Value, *Scope, Row, and any other optional result the core produces.
func Mandate[T any](value T, ok bool, message string) (T, error) {
	if !ok {
		var zero T
		return zero, LookupError(message)
	}
	return value, nil
}

// IsKind reports whether err is a *Error of the given Kind, unwrapping
// along the way.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
