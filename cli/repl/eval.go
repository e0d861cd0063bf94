package repl

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ardnew/weft/script"
)

// Eval executes line as a single statement in env and returns what the
// statement wrote. Only trivia may follow the statement.
//
// Output is discarded when the line fails, as for a template span that is
// not closed.
func Eval(ctx context.Context, env *script.Env, line string) (string, error) {
	var out bytes.Buffer

	prev := env.Writer()
	env.SetWriter(&out)

	defer env.SetWriter(prev)

	src := []byte(line)

	end, err := env.Exec(ctx, src, 0)
	if err != nil {
		return "", err
	}

	if rest := script.SkipTrivia(src, end); rest < len(src) {
		return "", fmt.Errorf("%w: '%s'", ErrTrailing, src[rest:])
	}

	return out.String(), nil
}
