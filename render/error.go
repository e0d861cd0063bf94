package render

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// ContextLimit is the maximum number of bytes of trailing input quoted in
	// an [UnterminatedSpanError].
	ContextLimit = 10

	// Ellipsis follows the quoted context when input was cut off.
	Ellipsis = "..."
)

var (
	// ErrNoProgress is reported when an interpreter claims success without
	// consuming input, or reports an end beyond the buffer.
	ErrNoProgress = errors.New("statement did not advance")

	// ErrOutput wraps failures writing rendered output.
	ErrOutput = errors.New("cannot write output")
)

// BoundaryError reports a statement the interpreter could not execute.
type BoundaryError struct {
	Offset int // start of the statement
	Err    error
}

func (e *BoundaryError) Error() string {
	if e.Err == nil {
		return "statement failed"
	}

	return e.Err.Error()
}

func (e *BoundaryError) Unwrap() error { return e.Err }

// LogValue implements [slog.LogValuer].
func (e *BoundaryError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("offset", e.Offset)}

	if lv, ok := e.Err.(slog.LogValuer); ok {
		attrs = append(attrs, slog.Any("cause", lv))
	} else if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}

// UnterminatedSpanError reports a statement not followed by [CloseMarker].
type UnterminatedSpanError struct {
	Offset    int    // where the close marker was expected
	Context   string // at most ContextLimit bytes found there instead
	Truncated bool   // more input followed Context
}

func newUnterminatedSpanError(src []byte, off int) *UnterminatedSpanError {
	rest := src[off:]
	n := min(len(rest), ContextLimit)

	return &UnterminatedSpanError{
		Offset:    off,
		Context:   string(rest[:n]),
		Truncated: len(rest) > ContextLimit,
	}
}

// Error renders the context with control characters escaped, so the
// message is always a single line.
func (e *UnterminatedSpanError) Error() string {
	var b strings.Builder

	b.WriteString("expected '")
	b.WriteString(CloseMarker)
	b.WriteString("' after statement, got '")
	b.WriteString(escapeControl(e.Context))

	if e.Truncated {
		b.WriteString(Ellipsis)
	}

	b.WriteByte('\'')

	return b.String()
}

// LogValue implements [slog.LogValuer].
func (e *UnterminatedSpanError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("offset", e.Offset),
		slog.String("context", e.Context),
		slog.Bool("truncated", e.Truncated),
	)
}

func escapeControl(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}

	var b strings.Builder

	for _, r := range s {
		if isControl(r) {
			q := strconv.QuoteRune(r)
			b.WriteString(q[1 : len(q)-1])

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func isControl(r rune) bool { return r < ' ' || r == 0x7f }

// Diagnostic is an error attributed to a named input.
type Diagnostic struct {
	Name string
	Err  error
}

// Error formats "<name>: error: <message>".
func (d *Diagnostic) Error() string {
	msg := "unknown error"
	if d.Err != nil {
		msg = d.Err.Error()
	}

	return d.Name + ": error: " + msg
}

func (d *Diagnostic) Unwrap() error { return d.Err }
