package script

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/expr-lang/expr/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	err := ErrParse.WithOffset(3).With(slog.String("expected", ":"))

	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrExprCompile)
	assert.Equal(t, 3, err.Offset())
	assert.Equal(t, -1, ErrParse.Offset())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.ErrorIs(t, wrapped, ErrParse)
}

func TestErrorWrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrReadData.Wrap(cause)

	assert.ErrorIs(t, err, ErrReadData)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to read data file: boom", err.Error())
	assert.Equal(t, "failed to read data file", ErrReadData.Error())
}

func TestErrorDeriveDoesNotMutate(t *testing.T) {
	a := ErrParse.With(slog.Int("a", 1))
	b := a.With(slog.Int("b", 2))

	assert.Len(t, a.attrs, 1)
	assert.Len(t, b.attrs, 2)
	assert.Empty(t, ErrParse.attrs)
	assert.ErrorIs(t, b, ErrParse)
}

func TestErrorCauseMessage(t *testing.T) {
	fe := &file.Error{
		Line:    1,
		Column:  4,
		Message: "unknown name x",
		Snippet: "\n | 1 + x\n | ....^",
	}

	err := ErrExprCompile.Wrap(fe)
	assert.Equal(t, "invalid expression: unknown name x", err.Error())

	attrs := err.LogValue().Group()
	require.NotEmpty(t, attrs)
	assert.Equal(t, "expr_position", attrs[len(attrs)-1].Key)
	assert.Equal(t, "1:5", attrs[len(attrs)-1].Value.String())

	multi := ErrWrite.Wrap(errors.New("first\nsecond"))
	assert.Equal(t, "failed to write output: first", multi.Error())
}

func TestErrorLogValue(t *testing.T) {
	err := ErrParse.Wrap(errors.New("bad")).WithOffset(7).
		With(slog.String("name", "x"))

	attrs := err.LogValue().Group()
	got := make(map[string]string, len(attrs))

	for _, a := range attrs {
		got[a.Key] = a.Value.String()
	}

	assert.Equal(t, map[string]string{
		"error":  "syntax error",
		"cause":  "bad",
		"offset": "7",
		"name":   "x",
	}, got)
}
