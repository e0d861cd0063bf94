package repl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"golang.org/x/term"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/weft/log"
	"github.com/ardnew/weft/pkg"
	"github.com/ardnew/weft/script"
)

const (
	prompt       = "➜ "
	defaultWidth = 80
	previewWidth = 48
)

const helpMessage = `
Statements:
  name : value          bind a value
  name a b : a + b      bind a function
  name : { k : v; ... } bind a block
  expression            print its result

Commands:
  :help    Print this help
  :list    List bindings
  :edit    Edit bindings in $EDITOR
  :clear   Clear the screen
  :quit    Exit

Keys:
  Tab / Shift-Tab  cycle completions, Esc to undo
  Up / Down        history
  Ctrl-C           clear the line, or exit when it is empty
  Ctrl-D           exit on an empty line
`

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)

	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// Run starts the console on the terminal attached to stdin. Statements run
// in env, and history is kept under cacheDir.
func Run(
	ctx context.Context,
	env *script.Env,
	cacheDir string,
	logger log.Logger,
) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNotTerminal
	}

	history := NewHistory(filepath.Join(cacheDir, baseHistory))

	if err := os.MkdirAll(cacheDir, pkg.DirMode); err != nil {
		logger.WarnContext(ctx, "history disabled", slog.Any("error", err))
	} else if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "cannot load history", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "console start",
		slog.String("cache_dir", cacheDir),
		slog.Int("history", history.Len()),
		slog.Int("bindings", len(env.Names())))

	_, err := tea.NewProgram(
		newModel(ctx, env, history, logger),
		tea.WithContext(ctx),
	).Run()

	return err
}

// editedMsg is sent when the editor launched by :edit exits.
type editedMsg struct {
	bindings map[string]any
	err      error
}

// model is the Bubble Tea model of the console.
type model struct {
	ctx     context.Context
	env     *script.Env
	logger  log.Logger
	input   textinput.Model
	history *History
	histIdx int // history.Len() when editing a new line

	matches   fuzzy.Matches
	wordStart int
	wordEnd   int
	suggIdx   int // selected match while tabbing, or -1
	tabActive bool
	preTab    string // line before tabbing began
	preCursor int

	width    int
	quitting bool
}

func newModel(
	ctx context.Context,
	env *script.Env,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.TextStyle = inputStyle
	ti.CharLimit = 4096
	ti.Width = defaultWidth
	ti.Focus()

	return model{
		ctx:     ctx,
		env:     env,
		logger:  logger,
		input:   ti,
		history: history,
		histIdx: history.Len(),
		suggIdx: -1,
		width:   defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-lipgloss.Width(prompt)-2, 1)

		return m, nil

	case editedMsg:
		return m.applyEdit(msg)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	line := m.input.Value()

	switch {
	case m.histIdx < m.history.Len():
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.histIdx+1)),
			m.history.Len())))

	case strings.TrimSpace(line) == "":
		b.WriteString(hintStyle.Render(
			"Type a statement, or :help for commands"))

	default:
		if c, ok := enclosingCall(line, m.input.Position()); ok {
			if params, ok := signature(m.env, c.name); ok {
				b.WriteString(renderSignature(c.name, params, c.arg))

				break
			}
		}

		b.WriteString(renderCandidates(m.env, m.matches, m.selected(), m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) selected() int {
	if !m.tabActive {
		return -1
	}

	return m.suggIdx
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.histIdx = m.history.Len()
		m.refresh()

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			m.refresh()

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(m.histIdx - 1), nil

	case tea.KeyDown:
		return m.recall(m.histIdx + 1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTab)
			m.input.SetCursor(m.preCursor)
			m.refresh()
		}

		return m, nil
	}

	if msg.Type == tea.KeyRunes && m.tabActive && msg.String() == " " {
		m.tabActive = false
	} else if msg.Type != tea.KeyRunes {
		m.tabActive = false
	}

	var cmd tea.Cmd

	m.histIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh()

	return m, cmd
}

// cycle moves the tab selection by step and completes the word with it.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.matches = nil

		return m
	}

	if !m.tabActive {
		m.tabActive = true
		m.preTab = m.input.Value()
		m.preCursor = m.input.Position()
		m.suggIdx = -1

		if step < 0 {
			m.suggIdx = 0
		}
	}

	m.suggIdx = ((m.suggIdx+step)%n + n) % n
	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

func (m *model) replaceWord(word string) {
	line := m.input.Value()

	m.input.SetValue(line[:m.wordStart] + word + line[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(word))
	m.wordEnd = m.wordStart + len(word)
}

// refresh recomputes the matches for the word under the cursor.
func (m *model) refresh() {
	if m.tabActive {
		return
	}

	m.matches, m.wordStart, m.wordEnd = complete(
		m.env, m.input.Value(), m.input.Position())
	m.suggIdx = -1
}

// recall shows history entry i, or an empty line past the newest entry.
func (m model) recall(i int) model {
	if i < 0 {
		return m
	}

	m.tabActive = false
	m.histIdx = min(i, m.history.Len())

	line, err := m.history.Entry(m.histIdx)
	if err != nil {
		line = ""
	}

	m.input.SetValue(line)
	m.input.SetCursor(len(line))
	m.refresh()

	return m
}

func (m model) submit() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(line); err != nil {
		m.logger.DebugContext(m.ctx, "cannot save history", slog.Any("error", err))
	}

	m.histIdx = m.history.Len()
	echo := tea.Println(promptStyle.Render(prompt) + inputStyle.Render(line))

	if cmd, ok := strings.CutPrefix(line, ":"); ok {
		return m.command(echo, strings.TrimSpace(cmd))
	}

	out, err := Eval(m.ctx, m.env, line)
	if err != nil {
		m.logger.DebugContext(m.ctx, "console statement failed",
			slog.String("input", line),
			slog.Any("error", err))

		return m, tea.Sequence(echo,
			tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	if out == "" {
		return m, echo
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(out)))
}

func (m model) command(echo tea.Cmd, cmd string) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctx, "console command", slog.String("command", cmd))

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(hintStyle.Render(helpMessage)))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(listBindings(m.env)))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		cmd := &editCommand{ctx: m.ctx, env: m.env, logger: m.logger}

		return m, tea.Sequence(echo, tea.Exec(cmd, func(err error) tea.Msg {
			return editedMsg{bindings: cmd.edited, err: err}
		}))
	}

	return m, tea.Sequence(echo, tea.Println(
		errorStyle.Render("unknown command: "+cmd+" (try :help)")))
}

// applyEdit binds the values loaded from the editor. Bindings missing from
// the file are kept.
func (m model) applyEdit(msg editedMsg) (model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	if msg.bindings == nil {
		return m, tea.Println(hintStyle.Render("edit cancelled"))
	}

	for name, value := range msg.bindings {
		m.env.Bind(name, value)
	}

	m.refresh()

	return m, tea.Println(resultStyle.Render(
		"updated " + strconv.Itoa(len(msg.bindings)) + " bindings"))
}

// listBindings renders one line per binding with a preview of its value.
func listBindings(env *script.Env) string {
	names := env.Names()
	if len(names) == 0 {
		return hintStyle.Render("  (no bindings)")
	}

	var b strings.Builder

	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}

		v, _ := env.Lookup(name)

		b.WriteString("  " + name + " ")
		b.WriteString(hintStyle.Render(preview(script.Format(v))))
	}

	return b.String()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > previewWidth {
		return s[:previewWidth-3] + "..."
	}

	return s
}
