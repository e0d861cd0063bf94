package repl

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/ardnew/weft/log"
	"github.com/ardnew/weft/script"
)

func newTestModel(t *testing.T, env *script.Env) model {
	t.Helper()

	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))

	return newModel(t.Context(), env, h, log.Default())
}

func typeLine(m model, line string) model {
	m.input.SetValue(line)
	m.input.SetCursor(len(line))
	m.refresh()

	return m
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)
	m := newTestModel(t, env)

	m = typeLine(m, "answer : 40 + 2")
	m, cmd := m.handleKey(key(tea.KeyEnter))

	if cmd == nil {
		t.Fatal("submit returned no command")
	}

	if v, ok := env.Lookup("answer"); !ok || v != 42 {
		t.Errorf("answer = %v, %v, want 42", v, ok)
	}

	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}

	if got := m.history.Entries(); len(got) != 1 || got[0] != "answer : 40 + 2" {
		t.Errorf("history = %q", got)
	}

	// Blank lines are ignored.
	m = typeLine(m, "   ")
	if _, cmd := m.handleKey(key(tea.KeyEnter)); cmd != nil {
		t.Error("blank line produced a command")
	}
}

func TestCommands(t *testing.T) {
	env := newTestEnv(t)
	m := newTestModel(t, env)

	for _, line := range []string{":help", ":list", ":clear", ":bogus"} {
		m = typeLine(m, line)

		var cmd tea.Cmd
		if m, cmd = m.handleKey(key(tea.KeyEnter)); cmd == nil {
			t.Errorf("%s returned no command", line)
		}

		if m.quitting {
			t.Errorf("%s quit the console", line)
		}
	}

	m = typeLine(m, ":quit")
	if m, _ = m.handleKey(key(tea.KeyEnter)); !m.quitting {
		t.Error(":quit did not quit")
	}

	if m.View() != "" {
		t.Error("View after quit is not empty")
	}
}

func TestListBindings(t *testing.T) {
	env := newTestEnv(t)

	got := ansi.Strip(listBindings(env))
	lines := strings.Split(got, "\n")

	if len(lines) != 2 {
		t.Fatalf("listBindings = %q, want two lines", got)
	}

	if !strings.HasPrefix(lines[0], "  config {") {
		t.Errorf("line 0 = %q", lines[0])
	}

	if lines[1] != "  zebra 1" {
		t.Errorf("line 1 = %q", lines[1])
	}

	empty := script.NewEnv(nil)
	t.Cleanup(func() { _ = empty.Close() })

	if got := ansi.Strip(listBindings(empty)); got != "  (no bindings)" {
		t.Errorf("empty listBindings = %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("{ a : 1,\n  b : 2 }"); got != "{ a : 1, b : 2 }" {
		t.Errorf("preview = %q", got)
	}

	long := strings.Repeat("x", 100)
	if got := preview(long); len(got) != previewWidth || !strings.HasSuffix(got, "...") {
		t.Errorf("preview(long) = %q", got)
	}
}

func TestTabCompletion(t *testing.T) {
	env := script.NewEnv(nil, script.WithBindings(map[string]any{
		"alpha":  1,
		"alpine": 2,
	}))
	t.Cleanup(func() { _ = env.Close() })

	m := typeLine(newTestModel(t, env), "1 + alp")
	if len(m.matches) < 2 {
		t.Fatalf("matches = %v, want at least two", m.matches)
	}

	m, _ = m.handleKey(key(tea.KeyTab))
	if !m.tabActive {
		t.Fatal("Tab did not start cycling")
	}

	first := m.input.Value()
	if first != "1 + "+m.matches[0].Str {
		t.Errorf("after Tab input = %q, want first match", first)
	}

	m, _ = m.handleKey(key(tea.KeyTab))
	if m.input.Value() != "1 + "+m.matches[1].Str {
		t.Errorf("after second Tab input = %q, want second match", m.input.Value())
	}

	m, _ = m.handleKey(key(tea.KeyShiftTab))
	if m.input.Value() != first {
		t.Errorf("after Shift-Tab input = %q, want %q", m.input.Value(), first)
	}

	m, _ = m.handleKey(key(tea.KeyEsc))
	if m.tabActive || m.input.Value() != "1 + alp" {
		t.Errorf("after Esc input = %q, tabActive %v", m.input.Value(), m.tabActive)
	}
}

func TestSingleMatchCompletes(t *testing.T) {
	env := newTestEnv(t)

	m := typeLine(newTestModel(t, env), "config.serv")
	m, _ = m.handleKey(key(tea.KeyTab))

	if got := m.input.Value(); got != "config.server" {
		t.Errorf("input = %q, want config.server", got)
	}

	if m.tabActive {
		t.Error("single match left tab cycling active")
	}
}

func TestHistoryNavigation(t *testing.T) {
	env := newTestEnv(t)
	m := newTestModel(t, env)

	for _, line := range []string{"a : 1", "b : 2"} {
		m = typeLine(m, line)
		m, _ = m.handleKey(key(tea.KeyEnter))
	}

	m, _ = m.handleKey(key(tea.KeyUp))
	if got := m.input.Value(); got != "b : 2" {
		t.Errorf("Up = %q, want b : 2", got)
	}

	m, _ = m.handleKey(key(tea.KeyUp))
	m, _ = m.handleKey(key(tea.KeyUp))

	if got := m.input.Value(); got != "a : 1" {
		t.Errorf("Up past oldest = %q, want a : 1", got)
	}

	if got := ansi.Strip(m.View()); !strings.Contains(got, "1/2") {
		t.Errorf("View = %q, want history position", got)
	}

	m, _ = m.handleKey(key(tea.KeyDown))
	m, _ = m.handleKey(key(tea.KeyDown))

	if got := m.input.Value(); got != "" {
		t.Errorf("Down past newest = %q, want empty", got)
	}
}

func TestCtrlKeys(t *testing.T) {
	env := newTestEnv(t)

	m := typeLine(newTestModel(t, env), "partial")

	m, _ = m.handleKey(key(tea.KeyCtrlD))
	if m.quitting {
		t.Error("Ctrl-D quit with input")
	}

	m, _ = m.handleKey(key(tea.KeyCtrlC))
	if m.quitting || m.input.Value() != "" {
		t.Errorf("Ctrl-C with input: quitting %v, input %q", m.quitting, m.input.Value())
	}

	if m, _ = m.handleKey(key(tea.KeyCtrlC)); !m.quitting {
		t.Error("Ctrl-C on empty line did not quit")
	}
}

func TestViewHints(t *testing.T) {
	env := newTestEnv(t)
	m := newTestModel(t, env)

	if got := ansi.Strip(m.View()); !strings.Contains(got, ":help") {
		t.Errorf("empty View = %q", got)
	}

	if _, err := env.Exec(t.Context(), []byte("add a b : a + b"), 0); err != nil {
		t.Fatal(err)
	}

	m = typeLine(m, "add(1, ")
	if got := ansi.Strip(m.View()); !strings.Contains(got, "add(a, b)") {
		t.Errorf("signature View = %q", got)
	}

	m = typeLine(m, "zeb")
	if got := ansi.Strip(m.View()); !strings.Contains(got, "zebra") {
		t.Errorf("completion View = %q", got)
	}
}
