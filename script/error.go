package script

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/file"
)

// Predefined errors (sentinel values). Returned errors wrap these, so
// callers test them with [errors.Is].
var (
	ErrParse              = NewError("syntax error")
	ErrEmptyStatement     = NewError("empty statement")
	ErrExprCompile        = NewError("invalid expression")
	ErrExprEvaluate       = NewError("evaluation failed")
	ErrParamCountMismatch = NewError("parameter count mismatch")
	ErrClosed             = NewError("environment closed")
	ErrForeignEnv         = NewError("environment not created by this interpreter")
	ErrReadData           = NewError("failed to read data file")
	ErrDataFormat         = NewError("unsupported data format")
	ErrWrite              = NewError("failed to write output")
)

// Error is an error with structured logging attributes. Derived errors
// created by [Error.Wrap], [Error.With] and [Error.WithOffset] match their
// origin with [errors.Is].
type Error struct {
	msg    string
	err    error       // wrapped cause
	attrs  []slog.Attr // attributes for structured logging
	base   *Error      // sentinel this error was derived from
	offset int         // byte offset in the statement source, or -1
}

// NewError creates a new sentinel Error.
func NewError(msg string) *Error {
	return &Error{msg: msg, offset: -1}
}

// Error renders "<msg>: <cause>" on a single line.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, causeMessage(e.err))
	}

	return strings.Join(part, ": ")
}

// causeMessage reduces expr diagnostics, which carry a multi-line source
// snippet, to their message. The expr position is relative to the statement
// text, so it is left to [Error.LogValue].
func causeMessage(err error) string {
	var fe *file.Error
	if errors.As(err, &fe) {
		return fe.Message
	}

	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}

	return msg
}

// Unwrap supports [errors.Is] and [errors.As] on the cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e derives from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t)
}

// Offset returns the byte offset recorded with [Error.WithOffset], or -1.
func (e *Error) Offset() int { return e.offset }

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.offset >= 0 {
		attrs = append(attrs, slog.Int("offset", e.offset))
	}

	var fe *file.Error
	if errors.As(e.err, &fe) && fe.Line > 0 {
		attrs = append(attrs, slog.String("expr_position",
			strconv.Itoa(fe.Line)+":"+strconv.Itoa(fe.Column+1)))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

func (e *Error) derive() *Error {
	d := *e
	if d.base == nil {
		d.base = e
	}

	return &d
}

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	d := e.derive()
	d.err = err

	return d
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	d := e.derive()
	d.attrs = append(append(make([]slog.Attr, 0, len(e.attrs)+len(attrs)),
		e.attrs...), attrs...)

	return d
}

// WithOffset returns a copy of e positioned at off.
func (e *Error) WithOffset(off int) *Error {
	d := e.derive()
	d.offset = off

	return d
}
