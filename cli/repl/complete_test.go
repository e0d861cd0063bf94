package repl

import (
	"slices"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/ardnew/weft/script"
)

func newTestEnv(t *testing.T) *script.Env {
	t.Helper()

	env := script.NewEnv(nil,
		script.WithEnviron(nil),
		script.WithBindings(map[string]any{
			"config": map[string]any{
				"log-pretty": true,
				"level":      "debug",
				"server": map[string]any{
					"host": "localhost",
					"port": 8080,
				},
			},
			"zebra": 1,
		}),
	)

	t.Cleanup(func() { _ = env.Close() })

	return env
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_colon", "name : fo", 9, "fo", 7, 9},
		{"in_block", "b : { a : fo", 12, "fo", 10, 12},
		{"after_semicolon", "a : 1; fo", 9, "fo", 7, 9},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"cursor_past_end", "foo", 9, "foo", 0, 3},
		{"command", ":he", 3, "he", 1, 3},
		{"hyphenated", "log-pretty", 10, "log-pretty", 0, 10},
		{"hyphenated_after_dot", "config.log-pretty", 17, "log-pretty", 7, 17},
		{"empty_after_dot", "config.", 7, "", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_binding", "x : a.b.", 8, "a.b"},
		{"hyphenated_chain", "config.log-pretty.", 18, "config.log-pretty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)

	if v, ok := resolve(env, "config.server.port"); !ok || v != 8080 {
		t.Errorf("resolve(config.server.port) = %v, %v", v, ok)
	}

	if _, ok := resolve(env, "path.cat"); !ok {
		t.Error("resolve(path.cat) did not find the builtin")
	}

	for _, path := range []string{"missing", "config.missing", "zebra.x"} {
		if _, ok := resolve(env, path); ok {
			t.Errorf("resolve(%q) succeeded", path)
		}
	}
}

func TestCandidates(t *testing.T) {
	env := newTestEnv(t)

	top := candidates(env, "")
	for _, want := range []string{"config", "zebra", "path", "env", "len"} {
		if !slices.Contains(top, want) {
			t.Errorf("top-level candidates missing %q", want)
		}
	}

	if !slices.IsSorted(top) {
		t.Error("top-level candidates not sorted")
	}

	got := candidates(env, "config")
	want := []string{"level", "log-pretty", "server"}

	if !slices.Equal(got, want) {
		t.Errorf("candidates(config) = %v, want %v", got, want)
	}

	if got := candidates(env, "zebra"); got != nil {
		t.Errorf("candidates(zebra) = %v, want nil", got)
	}
}

func TestComplete(t *testing.T) {
	env := newTestEnv(t)

	t.Run("top_level", func(t *testing.T) {
		matches, start, end := complete(env, "x + zeb", 7)
		if start != 4 || end != 7 {
			t.Errorf("bounds = %d,%d, want 4,7", start, end)
		}

		if len(matches) == 0 || matches[0].Str != "zebra" {
			t.Errorf("matches = %v, want zebra first", matches)
		}
	})

	t.Run("empty_word", func(t *testing.T) {
		if matches, _, _ := complete(env, "x + ", 4); matches != nil {
			t.Errorf("matches = %v, want none", matches)
		}
	})

	t.Run("members", func(t *testing.T) {
		matches, _, _ := complete(env, "config.server.", 14)

		var got []string
		for _, m := range matches {
			got = append(got, m.Str)
		}

		if !slices.Equal(got, []string{"host", "port"}) {
			t.Errorf("matches = %v, want [host port]", got)
		}
	})

	t.Run("command", func(t *testing.T) {
		matches, start, _ := complete(env, ":he", 3)
		if start != 1 || len(matches) != 1 || matches[0].Str != "help" {
			t.Errorf("matches = %v at %d, want [help] at 1", matches, start)
		}
	})

	t.Run("command_argument", func(t *testing.T) {
		if matches, _, _ := complete(env, ":help he", 8); matches != nil {
			t.Errorf("matches = %v, want none", matches)
		}
	})
}

func TestIsCallable(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.Exec(t.Context(), []byte("twice x : x * 2"), 0); err != nil {
		t.Fatal(err)
	}

	for name, want := range map[string]bool{
		"twice":    true,
		"len":      true,
		"cwd":      true,
		"path.cat": true,
		"zebra":    false,
		"config":   false,
		"missing":  false,
	} {
		if got := isCallable(env, name); got != want {
			t.Errorf("isCallable(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRenderCandidates(t *testing.T) {
	env := newTestEnv(t)

	matches, _, _ := complete(env, "config.", 7)

	got := ansi.Strip(renderCandidates(env, matches, -1, 80))
	if want := "level  log-pretty  server"; got != want {
		t.Errorf("renderCandidates = %q, want %q", got, want)
	}

	got = ansi.Strip(renderCandidates(env, matches, 0, 14))
	if want := "level  ..."; got != want {
		t.Errorf("narrow renderCandidates = %q, want %q", got, want)
	}

	if got := renderCandidates(env, nil, -1, 80); got != "" {
		t.Errorf("renderCandidates(nil) = %q", got)
	}
}
