package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// MaxCallDepth bounds nested function calls.
const MaxCallDepth = 256

// ErrMaxDepth is returned when function calls nest deeper than
// [MaxCallDepth].
var ErrMaxDepth = NewError("maximum call depth exceeded")

// Exec parses the one statement that starts at off in src, executes it, and
// returns the offset just past it. Expression output is written before Exec
// returns.
//
// Exec never reads past len(src). On failure the returned offset is where
// the statement ended if it was parsed, or off otherwise.
func (e *Env) Exec(ctx context.Context, src []byte, off int) (int, error) {
	if e.closed {
		return off, ErrClosed
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if off < 0 || off > len(src) {
		return off, ErrParse.WithOffset(off).
			With(slog.String("error", "offset out of range"))
	}

	if err := ctx.Err(); err != nil {
		return off, err
	}

	st, err := newParser(src, off).parseStatement()
	if err != nil {
		return off, err
	}

	prev := e.ctx
	e.ctx = ctx

	defer func() { e.ctx = prev }()

	if err := e.execStatement(ctx, st); err != nil {
		return st.End, err
	}

	return st.End, nil
}

func (e *Env) execStatement(ctx context.Context, st *Statement) error {
	if b := st.Binding; b != nil {
		v, err := e.evalBinding(ctx, b, nil)
		if err != nil {
			return err
		}

		e.vars[b.Name] = v

		e.logger.TraceContext(ctx, "bind",
			slog.String("name", b.Name),
			slog.Int("params", len(b.Params)),
			slog.Int("offset", st.Start))

		return nil
	}

	v, err := e.run(ctx, st.Expr, nil, st.Start)
	if err != nil {
		return err
	}

	s := Format(v)

	e.logger.TraceContext(ctx, "evaluate",
		slog.String("source", st.Expr),
		slog.Int("offset", st.Start),
		slog.Int("output_bytes", len(s)))

	if s == "" {
		return nil
	}

	if _, err := io.WriteString(e.out, s); err != nil {
		return ErrWrite.Wrap(err).WithOffset(st.Start)
	}

	return nil
}

// evalBinding evaluates the value of b. A binding with parameters yields a
// [*Function] capturing scope.
func (e *Env) evalBinding(
	ctx context.Context,
	b *Binding,
	scope map[string]any,
) (any, error) {
	if len(b.Params) > 0 {
		return &Function{
			Name:   b.Name,
			Params: b.Params,
			body:   b.Value,
			scope:  maps.Clone(scope),
			env:    e,
		}, nil
	}

	return e.evalValue(ctx, b.Value, scope)
}

func (e *Env) evalValue(
	ctx context.Context,
	v *Value,
	scope map[string]any,
) (any, error) {
	if v.Kind == KindBlock {
		return e.evalBlock(ctx, v, scope)
	}

	return e.run(ctx, v.Source, scope, v.Offset)
}

// evalBlock evaluates entries in order. Each entry sees the ones before it.
func (e *Env) evalBlock(
	ctx context.Context,
	v *Value,
	scope map[string]any,
) (map[string]any, error) {
	inner := make(map[string]any, len(scope)+len(v.Entries))
	maps.Copy(inner, scope)

	out := make(map[string]any, len(v.Entries))

	for _, b := range v.Entries {
		val, err := e.evalBinding(ctx, b, inner)
		if err != nil {
			return nil, err
		}

		inner[b.Name] = callable(val)
		out[b.Name] = callable(val)
	}

	return out, nil
}

// Function is a binding with parameters. Its body is compiled when called,
// against the bindings current at that time plus its arguments.
type Function struct {
	Name   string
	Params []Param

	body  *Value
	scope map[string]any
	env   *Env
}

// Call invokes f. With a variadic last parameter, surplus arguments are
// collected into a slice.
func (f *Function) Call(args ...any) (any, error) {
	n := len(f.Params)
	variadic := n > 0 && f.Params[n-1].Variadic

	if (!variadic && len(args) != n) || (variadic && len(args) < n-1) {
		want := strconv.Itoa(n)
		if variadic {
			want = "at least " + strconv.Itoa(n-1)
		}

		return nil, ErrParamCountMismatch.Wrap(fmt.Errorf(
			"%s expects %s arguments, got %d", f.Name, want, len(args),
		)).With(
			slog.String("name", f.Name),
			slog.Int("expected", n),
			slog.Int("got", len(args)),
		)
	}

	if f.env.closed {
		return nil, ErrClosed
	}

	f.env.depth++
	defer func() { f.env.depth-- }()

	if f.env.depth > MaxCallDepth {
		return nil, ErrMaxDepth.With(slog.String("name", f.Name))
	}

	scope := make(map[string]any, len(f.scope)+n)
	maps.Copy(scope, f.scope)

	for i, p := range f.Params {
		if p.Variadic {
			scope[p.Name] = append([]any{}, args[i:]...)

			break
		}

		scope[p.Name] = args[i]
	}

	return f.env.evalValue(f.env.ctx, f.body, scope)
}

// String returns the call signature of f.
func (f *Function) String() string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
		if p.Variadic {
			names[i] = "..." + p.Name
		}
	}

	return f.Name + "(" + strings.Join(names, ", ") + ")"
}

// callable converts a [*Function] to the Go func form expr-lang can call.
func callable(v any) any {
	if f, ok := v.(*Function); ok {
		return f.Call
	}

	return v
}

// ParseValue converts a command-line string to a bool ("true" or "false"),
// int64, float64 or, failing those, the string itself.
func ParseValue(s string) any {
	switch {
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	}

	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}
