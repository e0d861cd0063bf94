package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*Statement, error) {
	t.Helper()

	return newParser([]byte(src), 0).parseStatement()
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		src  string
		expr string
		end  int
	}{
		{`name}}`, "name", 4},
		{`  1 + 2 }}`, "1 + 2", 8},
		{`a > 3 ? "big" : "small"}}`, `a > 3 ? "big" : "small"`, 23},
		{`upper(name) }}`, "upper(name)", 12},
		{`{"a": 1}.a }}`, `{"a": 1}.a`, 11},
		{`"}}" + x}}`, `"}}" + x`, 8},
		{`x /* } */ + 1 }}`, "x   + 1", 14},
		{`all(xs, # > 0) }}`, "all(xs, # > 0)", 15},
		{`a; b}}`, "a", 1},
		{`a, b}}`, "a, b", 4},
		{"a + 1 # note\n}}", "a + 1", 6},
		{"f(#) #}}", "f(#)", 5},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			st, err := parse(t, tt.src)
			require.NoError(t, err)
			assert.Nil(t, st.Binding)
			assert.Equal(t, tt.expr, st.Expr)
			assert.Equal(t, tt.end, st.End)
		})
	}
}

func TestParseBinding(t *testing.T) {
	st, err := parse(t, `  name : "world" }}`)
	require.NoError(t, err)
	require.NotNil(t, st.Binding)

	b := st.Binding
	assert.Equal(t, "name", b.Name)
	assert.Empty(t, b.Params)
	assert.Equal(t, KindExpr, b.Value.Kind)
	assert.Equal(t, `"world"`, b.Value.Source)
	assert.Equal(t, 2, st.Start)
	assert.Equal(t, 17, st.End)
}

func TestParseBindingTrailingComment(t *testing.T) {
	st, err := parse(t, "a : 1 # note\n}}")
	require.NoError(t, err)
	require.NotNil(t, st.Binding)
	assert.Equal(t, "1", st.Binding.Value.Source)
	assert.Equal(t, 6, st.End)
	assert.Equal(t, 13, SkipTrivia([]byte("a : 1 # note\n}}"), st.End))
}

func TestParseFunction(t *testing.T) {
	st, err := parse(t, `greet first ...rest : first + join(rest) }}`)
	require.NoError(t, err)
	require.NotNil(t, st.Binding)

	assert.Equal(t, "greet", st.Binding.Name)
	assert.Equal(t, []Param{
		{Name: "first"},
		{Name: "rest", Variadic: true},
	}, st.Binding.Params)
}

func TestParseHyphenatedName(t *testing.T) {
	st, err := parse(t, `log-level : "debug"}}`)
	require.NoError(t, err)
	require.NotNil(t, st.Binding)
	assert.Equal(t, "log-level", st.Binding.Name)

	st, err = parse(t, `a - b}}`)
	require.NoError(t, err)
	assert.Equal(t, "a - b", st.Expr)
}

func TestParseBlock(t *testing.T) {
	for _, src := range []string{
		`cfg : { host : "localhost"; port : 8080 } }}`,
		`cfg : { host : "localhost", port : 8080, } }}`,
		"cfg : {\n\thost : \"localhost\";\n\tport : 8080\n} }}",
	} {
		t.Run(src, func(t *testing.T) {
			st, err := parse(t, src)
			require.NoError(t, err)
			require.NotNil(t, st.Binding)

			v := st.Binding.Value
			require.Equal(t, KindBlock, v.Kind)
			require.Len(t, v.Entries, 2)
			assert.Equal(t, "host", v.Entries[0].Name)
			assert.Equal(t, `"localhost"`, v.Entries[0].Value.Source)
			assert.Equal(t, "port", v.Entries[1].Name)
			assert.Equal(t, "8080", v.Entries[1].Value.Source)
		})
	}
}

func TestParseEmptyBlock(t *testing.T) {
	st, err := parse(t, `empty : {} }}`)
	require.NoError(t, err)
	assert.Equal(t, KindBlock, st.Binding.Value.Kind)
	assert.Empty(t, st.Binding.Value.Entries)
}

func TestParseMapLiteralValue(t *testing.T) {
	st, err := parse(t, `m : {"a": 1} }}`)
	require.NoError(t, err)
	assert.Equal(t, KindExpr, st.Binding.Value.Kind)
	assert.Equal(t, `{"a": 1}`, st.Binding.Value.Source)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *Error
	}{
		{"empty", ``, ErrEmptyStatement},
		{"blank", "  \n\t", ErrEmptyStatement},
		{"close", ` }}`, ErrEmptyStatement},
		{"semicolon", `;`, ErrEmptyStatement},
		{"comment only", "# nothing\n}}", ErrEmptyStatement},
		{"missing value", `name : }}`, ErrParse},
		{"duplicate param", `f a a : a }}`, ErrParse},
		{"unterminated string", `"abc`, ErrParse},
		{"unterminated block", `cfg : { a : 1`, ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.src)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseOffset(t *testing.T) {
	src := []byte(`head{{ x : 1 }}tail`)

	st, err := newParser(src, 6).parseStatement()
	require.NoError(t, err)
	assert.Equal(t, 7, st.Start)
	assert.Equal(t, 13, st.End)
	assert.Equal(t, "}}", string(src[SkipTrivia(src, st.End):][:2]))
}

func TestParseNeverPassesEnd(t *testing.T) {
	for _, src := range []string{"x", "x(", "f a :", `"`, "/* open"} {
		p := newParser([]byte(src), 0)
		_, _ = p.parseStatement()
		assert.LessOrEqual(t, p.pos, len(src), src)
	}

	p := newParser([]byte("abc"), 10)
	assert.Equal(t, 3, p.pos)
}

func TestSkipTrivia(t *testing.T) {
	tests := []struct {
		src  string
		off  int
		want int
	}{
		{"}}", 0, 0},
		{"   }}", 0, 3},
		{"x # comment\n}}", 1, 12},
		{"x // comment\n  }}", 1, 15},
		{"x /* a\nb */}}", 1, 11},
		{"x /* open", 1, 9},
		{"x   ", 1, 4},
		{"x", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, SkipTrivia([]byte(tt.src), tt.off))
		})
	}
}

func TestStripComments(t *testing.T) {
	assert.Equal(t, "a +   b", stripComments("a + /* c */ b"))
	assert.Equal(t, `"// kept" + x`, stripComments("\"// kept\" + x // dropped"))
	assert.Equal(t, "x", stripComments(" x /* open"))
}
