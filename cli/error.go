package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/weft/pkg"
	"github.com/ardnew/weft/render"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 255
)

// usage is printed for an invocation without a template.
const usage = "usage: " + pkg.Name + " [flags] <template>"

// UsageError reports a malformed invocation. It is always detected before
// any file is opened.
type UsageError struct {
	Msg string // empty for a bare usage line
}

func (e *UsageError) Error() string {
	if e.Msg == "" {
		return usage
	}

	return e.Msg
}

// LogValue implements [slog.LogValuer].
func (e *UsageError) LogValue() slog.Value {
	return slog.GroupValue(slog.String("usage", e.Error()))
}

// ErrUsage is the [UsageError] for a missing template.
var ErrUsage = &UsageError{}

// Report writes the single diagnostic line for err to w. A bare usage error
// prints the usage line. Errors already naming a file keep that name, and
// anything else is attributed to the program.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}

	var ue *UsageError
	if errors.As(err, &ue) && ue.Msg == "" {
		_, _ = fmt.Fprintln(w, usage)

		return
	}

	var diag *render.Diagnostic
	if !errors.As(err, &diag) {
		diag = &render.Diagnostic{Name: pkg.Name, Err: err}
	}

	_, _ = fmt.Fprintln(w, diag.Error())
}
