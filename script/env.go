package script

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/weft/log"
)

// Env is the execution state shared by every statement of one render:
// user bindings, the output writer and compiled programs.
//
// An Env must not be used by more than one goroutine at a time.
type Env struct {
	out      io.Writer
	vars     map[string]any
	env      map[string]string
	programs map[uint64]*vm.Program
	logger   log.Logger
	ctx      context.Context
	depth    int
	closed   bool
}

// Option configures a new [Env].
type Option func(config) config

type config struct {
	bindings map[string]any
	environ  []string
	logger   log.Logger
}

// WithBindings preloads bindings. Later options and statements override
// earlier values.
func WithBindings(m map[string]any) Option {
	return func(c config) config {
		if c.bindings == nil {
			c.bindings = make(map[string]any, len(m))
		}

		maps.Copy(c.bindings, m)

		return c
	}
}

// WithEnviron sets the "KEY=VALUE" list seen by the env() builtin instead of
// the process environment.
func WithEnviron(environ []string) Option {
	return func(c config) config {
		c.environ = slices.Clone(environ)
		if c.environ == nil {
			c.environ = []string{}
		}

		return c
	}
}

// WithLogger sets the logger for trace output.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// NewEnv creates an environment whose expression statements write to w.
func NewEnv(w io.Writer, opts ...Option) *Env {
	cfg := config{logger: log.Default()}
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	if w == nil {
		w = io.Discard
	}

	e := &Env{
		out:      w,
		vars:     make(map[string]any, len(cfg.bindings)),
		env:      processEnv(cfg.environ),
		programs: make(map[uint64]*vm.Program),
		logger:   cfg.logger,
		ctx:      context.Background(),
	}

	maps.Copy(e.vars, cfg.bindings)

	return e
}

// Close releases the environment. Later calls to Exec fail with [ErrClosed].
// Close is idempotent.
func (e *Env) Close() error {
	if e.closed {
		return nil
	}

	e.closed = true
	e.logger.Trace("close environment",
		slog.Int("bindings", len(e.vars)),
		slog.Int("programs", len(e.programs)))

	clear(e.programs)

	return nil
}

// Closed reports whether Close has been called.
func (e *Env) Closed() bool { return e.closed }

// Writer returns the destination of expression output.
func (e *Env) Writer() io.Writer { return e.out }

// SetWriter redirects expression output.
func (e *Env) SetWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}

	e.out = w
}

// Lookup returns the user binding for name. Builtins are not included.
func (e *Env) Lookup(name string) (any, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Bind sets name to value, replacing any previous binding.
func (e *Env) Bind(name string, value any) {
	e.vars[name] = value
}

// Names returns the sorted names of all user bindings.
func (e *Env) Names() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Bindings returns a copy of the user bindings. Function bindings appear as
// [*Function] values.
func (e *Env) Bindings() map[string]any {
	return maps.Clone(e.vars)
}

// snapshot builds the expression environment: builtins, then user
// bindings, then scope, each shadowing the one before.
func (e *Env) snapshot(scope map[string]any) map[string]any {
	b := builtins()
	m := make(map[string]any, len(b)+len(e.vars)+len(scope)+1)

	maps.Copy(m, b)
	m["env"] = envFunc(e.env)

	for k, v := range e.vars {
		m[k] = callable(v)
	}

	maps.Copy(m, scope)

	return m
}
