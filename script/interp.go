package script

import (
	"context"
	"io"

	"github.com/ardnew/weft/render"
)

// Interpreter connects the statement language to [render.Renderer].
type Interpreter struct {
	opts []Option
}

var _ render.Interpreter = (*Interpreter)(nil)

// NewInterpreter returns an Interpreter whose environments are created with
// opts.
func NewInterpreter(opts ...Option) *Interpreter {
	return &Interpreter{opts: opts}
}

// NewEnv implements [render.Interpreter].
func (in *Interpreter) NewEnv(w io.Writer) (render.Env, error) {
	return NewEnv(w, in.opts...), nil
}

// Exec implements [render.Interpreter]. env must come from NewEnv.
func (in *Interpreter) Exec(
	ctx context.Context,
	env render.Env,
	src []byte,
	off int,
) (int, error) {
	e, ok := env.(*Env)
	if !ok {
		return off, ErrForeignEnv
	}

	return e.Exec(ctx, src, off)
}

// SkipTrivia implements [render.Interpreter].
func (in *Interpreter) SkipTrivia(src []byte, off int) int {
	return SkipTrivia(src, off)
}
