package script

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"
)

// compile returns the program for source type-checked against env.
//
// Programs are cached per Env. The key combines the source hash with the
// shape of env (names and value types), so a binding that changes type
// forces a recompile while repeated statements in a loop-free template
// still compile once.
func (e *Env) compile(
	ctx context.Context,
	source string,
	env map[string]any,
) (*vm.Program, error) {
	sourceHash := xxh3.HashString(source)
	shapeHash := envShape(env)
	key := sourceHash ^ shapeHash

	if program, ok := e.programs[key]; ok {
		e.logger.TraceContext(ctx, "program cache hit",
			slog.String("key", strconv.FormatUint(key, 36)))

		return program, nil
	}

	program, err := expr.Compile(source,
		expr.Env(env),
		expr.Patch(&hyphenPatcher{env: env, logger: e.logger}),
	)
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", source))
	}

	e.programs[key] = program

	e.logger.TraceContext(ctx, "program compiled",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("shape_hash", strconv.FormatUint(shapeHash, 16)),
		slog.Int("cached", len(e.programs)))

	return program, nil
}

// envShape hashes the sorted names and dynamic types of env.
func envShape(env map[string]any) uint64 {
	h := xxh3.New()

	for _, k := range slices.Sorted(maps.Keys(env)) {
		_, _ = h.WriteString(k)
		_, _ = h.Write([]byte{0})

		if t := reflect.TypeOf(env[k]); t != nil {
			_, _ = h.WriteString(t.String())
		}

		_, _ = h.Write([]byte{0})
	}

	return h.Sum64()
}

// run compiles and runs source against the Env plus scope.
func (e *Env) run(
	ctx context.Context,
	source string,
	scope map[string]any,
	off int,
) (any, error) {
	env := e.snapshot(scope)

	program, err := e.compile(ctx, source, env)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se.WithOffset(off)
		}

		return nil, err
	}

	result, err := vm.Run(program, env)
	if err != nil {
		// A failure inside a called function was already reported at its
		// own level.
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}

		return nil, ErrExprEvaluate.Wrap(err).
			WithOffset(off).
			With(slog.String("source", source))
	}

	return result, nil
}
