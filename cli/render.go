package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/weft/cli/repl"
	"github.com/ardnew/weft/log"
	"github.com/ardnew/weft/pkg"
	"github.com/ardnew/weft/render"
	"github.com/ardnew/weft/script"
	"github.com/ardnew/weft/source"
)

// run renders the template, then runs the console and writes the dump when
// those were requested.
func (c *CLI) run(ctx context.Context, out io.Writer, logger log.Logger) error {
	opts, err := c.bindings(ctx, logger)
	if err != nil {
		return err
	}

	sess := &session{
		Interpreter: script.NewInterpreter(opts...),
		keep:        c.Interactive,
	}
	defer sess.close(ctx, logger)

	if c.Template != "" {
		if err := c.render(ctx, sess, out, logger); err != nil {
			return err
		}
	}

	if c.Interactive {
		if f, ok := out.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}

		env := sess.env
		if env == nil {
			env = script.NewEnv(out, opts...)
			sess.env = env
		}

		if err := repl.Run(ctx, env, pkg.CacheDir(), logger); err != nil {
			return err
		}
	}

	if c.Dump != "" && sess.env != nil {
		return c.dump(ctx, sess.env, out)
	}

	return nil
}

// bindings builds the environment options from --data and --define.
// Definitions are applied last, so they override data files.
func (c *CLI) bindings(ctx context.Context, logger log.Logger) ([]script.Option, error) {
	opts := []script.Option{script.WithLogger(logger)}

	for _, path := range c.Data {
		m, err := script.LoadData(ctx, path)
		if err != nil {
			return nil, &render.Diagnostic{Name: path, Err: err}
		}

		logger.DebugContext(ctx, "data loaded",
			slog.String("path", path),
			slog.Int("bindings", len(m)))

		opts = append(opts, script.WithBindings(m))
	}

	if len(c.Define) > 0 {
		defs := make(map[string]any, len(c.Define))

		for _, def := range c.Define {
			name, value, found := strings.Cut(def, "=")
			if name = strings.TrimSpace(name); name == "" {
				return nil, &UsageError{
					Msg: "invalid definition '" + def + "', expected NAME=VALUE",
				}
			}

			if !found {
				defs[name] = true

				continue
			}

			defs[name] = script.ParseValue(value)
		}

		opts = append(opts, script.WithBindings(defs))
	}

	return opts, nil
}

// render renders the template file to out.
func (c *CLI) render(
	ctx context.Context,
	in render.Interpreter,
	out io.Writer,
	logger log.Logger,
) error {
	backend, err := source.ParseBackend(c.Backend)
	if err != nil {
		return &UsageError{Msg: err.Error()}
	}

	src, err := source.Open(ctx, c.Template,
		source.WithBackend(backend),
		source.WithLogger(logger),
	)
	if err != nil {
		return &render.Diagnostic{Name: c.Template, Err: err}
	}

	defer func() {
		if err := src.Close(); err != nil {
			logger.WarnContext(ctx, "close source", slog.Any("error", err))
		}
	}()

	stats, err := render.New(in, render.WithLogger(logger)).
		RenderStats(ctx, src.Bytes(), out)
	if err != nil {
		attrs := []slog.Attr{
			slog.String("path", c.Template),
			slog.Any("stats", stats),
			slog.Any("error", err),
		}

		if off, ok := offset(err); ok {
			attrs = append(attrs, slog.String("position", src.Position(off).String()))
		}

		logger.DebugContext(ctx, "render failed", attrs...)

		return &render.Diagnostic{Name: c.Template, Err: err}
	}

	logger.DebugContext(ctx, "render done",
		slog.String("path", c.Template),
		slog.String("backend", src.Backend().String()),
		slog.Int("origin", src.Origin()),
		slog.Any("stats", stats))

	return nil
}

// offset returns the buffer offset a render error refers to.
func offset(err error) (int, bool) {
	var ue *render.UnterminatedSpanError
	if errors.As(err, &ue) {
		return ue.Offset, true
	}

	var be *render.BoundaryError
	if errors.As(err, &be) {
		return be.Offset, true
	}

	return 0, false
}

// dump writes the bindings of env to the --dump file, or to out for "-".
func (c *CLI) dump(ctx context.Context, env *script.Env, out io.Writer) error {
	enc := script.EncodingFor(c.Dump)

	if c.Dump == "-" {
		return env.Dump(ctx, out, enc)
	}

	f, err := os.Create(c.Dump)
	if err != nil {
		return &render.Diagnostic{Name: c.Dump, Err: err}
	}

	if err := env.Dump(ctx, f, enc); err != nil {
		_ = f.Close()

		return &render.Diagnostic{Name: c.Dump, Err: err}
	}

	if err := f.Close(); err != nil {
		return &render.Diagnostic{Name: c.Dump, Err: err}
	}

	return nil
}

// session is the interpreter of one invocation. It remembers the environment
// it created, so the bindings can be dumped, and with keep it also holds
// that environment open past the render for the console.
type session struct {
	*script.Interpreter

	env  *script.Env
	keep bool
}

var _ render.Interpreter = (*session)(nil)

// held is an environment whose Close is deferred to [session.close].
type held struct{ *script.Env }

func (held) Close() error { return nil }

// NewEnv implements [render.Interpreter].
func (s *session) NewEnv(w io.Writer) (render.Env, error) {
	e, err := s.Interpreter.NewEnv(w)
	if err != nil {
		return nil, err
	}

	env, ok := e.(*script.Env)
	if !ok {
		return e, nil
	}

	s.env = env

	if s.keep {
		return held{env}, nil
	}

	return env, nil
}

// Exec implements [render.Interpreter].
func (s *session) Exec(
	ctx context.Context,
	env render.Env,
	src []byte,
	off int,
) (int, error) {
	if h, ok := env.(held); ok {
		env = h.Env
	}

	return s.Interpreter.Exec(ctx, env, src, off)
}

func (s *session) close(ctx context.Context, logger log.Logger) {
	if s.env == nil {
		return
	}

	if err := s.env.Close(); err != nil {
		logger.WarnContext(ctx, "close environment", slog.Any("error", err))
	}
}
