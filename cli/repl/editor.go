package repl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/weft/log"
	"github.com/ardnew/weft/script"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It writes the bindings of env
// to a YAML file, opens the user's editor on it, and loads the result.
//
// Functions cannot be edited and are left out of the file.
type editCommand struct {
	ctx    context.Context
	env    *script.Env
	logger log.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	edited map[string]any // nil if the file was left empty
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run implements [tea.ExecCommand].
func (c *editCommand) Run() error {
	f, err := os.CreateTemp("", "weft-edit-*.yaml")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	err = c.env.Dump(c.ctx, f, script.EncodingYAML)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return err
	}

	if err := runEditor(c.ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
		return err
	}

	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		return err
	}

	c.edited, err = script.LoadData(c.ctx, path)

	c.logger.TraceContext(c.ctx, "console edit",
		slog.Int("bindings", len(c.edited)),
		slog.Bool("success", err == nil))

	return err
}

// runEditor opens path in $VISUAL, $EDITOR, or vi. The variable may carry
// arguments, as in "code --wait".
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	args := strings.Fields(editor)
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
