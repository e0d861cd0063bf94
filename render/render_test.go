package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string) (string, *stubInterp, Stats, error) {
	t.Helper()

	var out bytes.Buffer

	in := &stubInterp{}
	stats, err := New(in).RenderStats(t.Context(), []byte(src), &out)

	return out.String(), in, stats, err
}

func TestRenderPlainText(t *testing.T) {
	out, in, stats, err := render(t, "plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
	assert.Empty(t, in.calls)
	assert.Equal(t, 1, in.env.closed)
	assert.Equal(t, Stats{Literals: 1, LiteralBytes: 10}, stats)
}

func TestRenderStatementWithoutOutput(t *testing.T) {
	out, in, stats, err := render(t, "A{{s}}B")
	require.NoError(t, err)
	assert.Equal(t, "AB", out)
	assert.Equal(t, []int{3}, in.calls)
	assert.Equal(t, 1, stats.Statements)
	assert.Equal(t, 2, stats.LiteralBytes)
}

func TestRenderSingleCloseByte(t *testing.T) {
	out, in, _, err := render(t, "A{{s}")
	require.Error(t, err)
	assert.Equal(t, "A", out)
	assert.Equal(t, 1, in.env.closed)

	var use *UnterminatedSpanError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, 4, use.Offset)
	assert.Equal(t, "}", use.Context)
	assert.False(t, use.Truncated)
	assert.Equal(t, "expected '}}' after statement, got '}'", err.Error())
}

func TestRenderEmptyInput(t *testing.T) {
	out, _, stats, err := render(t, "")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, stats.Literals)
}

func TestRenderInterleaving(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"leading", "{{x}}tail", "xtail"},
		{"trailing", "head{{x}}", "headx"},
		{"adjacent", "{{a}}{{b}}{{c}}", "abc"},
		{"padded", "<{{  x\n\t}}>", "<x>"},
		{"lone close", "a}}b", "a}}b"},
		{"single open", "a{b", "a{b"},
		{"triple open", "{{{x}}", "{x"},
		{"multiline", "line1\n{{x}}\nline3\n", "line1\nx\nline3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, _, err := render(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderEnvironmentPersists(t *testing.T) {
	out, in, stats, err := render(t, "{{name=weft}}hello {{$name}}, {{$name}}!")
	require.NoError(t, err)
	assert.Equal(t, "hello weft, weft!", out)
	assert.Equal(t, map[string]string{"name": "weft"}, in.env.vars)
	assert.Equal(t, 3, stats.Statements)
	assert.Equal(t, 8, stats.OutputBytes)
}

func TestRenderStatementFailure(t *testing.T) {
	out, in, _, err := render(t, "before{{fail}}after")
	require.Error(t, err)
	assert.Equal(t, "before", out)
	assert.Equal(t, 1, in.env.closed)
	require.ErrorIs(t, err, errStub)

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 8, be.Offset)
	assert.Equal(t, errStub.Error(), be.Error())
}

func TestRenderNoProgress(t *testing.T) {
	for _, src := range []string{"a{{stall}}", "a{{overrun}}"} {
		t.Run(src, func(t *testing.T) {
			out, _, _, err := render(t, src)
			require.ErrorIs(t, err, ErrNoProgress)
			assert.Equal(t, "a", out)
		})
	}
}

func TestRenderEmptySpan(t *testing.T) {
	out, _, _, err := render(t, "a{{}}b")
	require.Error(t, err)
	assert.Equal(t, "a", out)

	var be *BoundaryError
	assert.ErrorAs(t, err, &be)
}

func TestRenderOpenAtEnd(t *testing.T) {
	out, _, _, err := render(t, "text{{")
	require.Error(t, err)
	assert.Equal(t, "text", out)
}

func TestRenderUnterminatedContext(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		context   string
		truncated bool
		msg       string
	}{
		{
			name:    "end of input",
			src:     "A{{x",
			context: "",
			msg:     "expected '}}' after statement, got ''",
		},
		{
			name:    "exactly ten",
			src:     "A{{x}012345678",
			context: "}012345678",
			msg:     "expected '}}' after statement, got '}012345678'",
		},
		{
			name:      "truncated",
			src:       "A{{x}0123456789abc",
			context:   "}012345678",
			truncated: true,
			msg:       "expected '}}' after statement, got '}012345678...'",
		},
		{
			name:    "two statements",
			src:     "A{{x y}}",
			context: "y}}",
			msg:     "expected '}}' after statement, got 'y}}'",
		},
		{
			name:      "escaped newline",
			src:       "A{{x}\nmore text here",
			context:   "}\nmore tex",
			truncated: true,
			msg:       `expected '}}' after statement, got '}\nmore tex...'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, _, err := render(t, tt.src)
			assert.Equal(t, "A", out)

			var use *UnterminatedSpanError
			require.ErrorAs(t, err, &use)
			assert.Equal(t, tt.context, use.Context)
			assert.Equal(t, tt.truncated, use.Truncated)
			assert.Equal(t, tt.msg, use.Error())
		})
	}
}

func TestRenderDiscardsFailedSpanOutput(t *testing.T) {
	out, _, stats, err := render(t, "ok{{a}} then {{loud extra}}")
	require.Error(t, err)
	assert.Equal(t, "oka then ", out)
	assert.Equal(t, 1, stats.Statements)
}

func TestRenderCursorMonotonic(t *testing.T) {
	src := "{{a}}-{{b}}-{{c}}-{{d}}"
	_, in, _, err := render(t, src)
	require.NoError(t, err)

	for i := 1; i < len(in.calls); i++ {
		assert.Greater(t, in.calls[i], in.calls[i-1])
	}

	assert.Equal(t, []int{2, 8, 14, 20}, in.calls)
}

func TestRenderCloseError(t *testing.T) {
	closeErr := errors.New("close failed")

	in := &stubInterp{closeErr: closeErr}
	err := New(in).Render(t.Context(), []byte("ok"), &bytes.Buffer{})
	require.ErrorIs(t, err, closeErr)

	in = &stubInterp{closeErr: closeErr}
	err = New(in).Render(t.Context(), []byte("{{fail}}"), &bytes.Buffer{})
	require.ErrorIs(t, err, errStub)
	assert.NotErrorIs(t, err, closeErr)
	assert.Equal(t, 1, in.env.closed)
}

func TestRenderOutputError(t *testing.T) {
	w := &failWriter{n: 1}
	in := &stubInterp{}

	err := New(in).Render(t.Context(), []byte("one{{two}}three"), w)
	require.ErrorIs(t, err, ErrOutput)
	assert.Equal(t, "one", w.buf.String())
	assert.Equal(t, 1, in.env.closed)
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var out bytes.Buffer

	err := New(&stubInterp{}).Render(ctx, []byte("text"), &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestRenderNilInterpreter(t *testing.T) {
	err := New(nil).Render(t.Context(), []byte("x"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRendererReuse(t *testing.T) {
	r := New(&stubInterp{})

	for range 2 {
		var out bytes.Buffer

		require.NoError(t, r.Render(t.Context(), []byte("{{k=v}}{{$k}}"), &out))
		assert.Equal(t, "v", out.String())
	}
}

func TestDiagnostic(t *testing.T) {
	d := &Diagnostic{Name: "page.tmpl", Err: &UnterminatedSpanError{Context: "}"}}
	assert.Equal(t, "page.tmpl: error: expected '}}' after statement, got '}'", d.Error())

	var use *UnterminatedSpanError
	assert.ErrorAs(t, d, &use)

	assert.True(t, strings.HasSuffix((&Diagnostic{Name: "x"}).Error(), "unknown error"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "VERIFY_CLOSE", StateVerifyClose.String())
	assert.Equal(t, "FATAL", StateFatal.String())
	assert.Equal(t, "State(9)", State(9).String())
}
