package shell

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
)

const (
	prompt           = "tally> "
	continuingPrompt = "  ...> "
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// outputMsg carries complete lines written by a running task.
type outputMsg string

// doneMsg is sent when a task has finished.
type doneMsg struct {
	err error
}

// model is the bubbletea model of the shell. While a task runs, the
// editor is blurred and a spinner replaces it.
type model struct {
	sh      *Shell
	tasks   chan<- task
	editor  editor
	spinner spinner.Model
	busy    bool
	// err is the error of the last task, displayed above the editor.
	err error
}

func newTUI(sh *Shell, tasks chan<- task) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return model{
		sh:      sh,
		tasks:   tasks,
		editor:  newEditor(),
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.editor.SetWidth(msg.Width - 1)
		return m, nil
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case outputMsg:
		return m, tea.Println(string(msg))
	case doneMsg:
		if errors.Is(msg.err, errExitCommand) {
			return m, tea.Quit
		}
		m.busy = false
		m.err = msg.err
		return m, m.editor.Focus()
	case tea.KeyMsg:
		if m.busy {
			if msg.String() == "ctrl+c" {
				m.sh.cancelExecution()
			}
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.busy {
		return m, nil
	}
	m.editor.Model, cmd = m.editor.Model.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Println(m.freeze())
	case "ctrl+d":
		if m.editor.Value() == "" {
			return m, tea.Sequence(m.editor.Cursor.SetMode(cursor.CursorHide), tea.Quit)
		}
	case "up":
		if m.editor.Line() == 0 {
			m.editor.older(m.sh)
			return m, nil
		}
	case "down":
		if m.editor.Line() == m.editor.LineCount()-1 {
			m.editor.newer(m.sh)
			return m, nil
		}
	case "enter":
		return m.enter(msg)
	}

	var cmd tea.Cmd
	m.editor.Model, cmd = m.editor.Model.Update(msg)
	if m.editor.LineCount() < m.editor.Height() {
		m.editor.SetHeight(m.editor.LineCount())
	}
	return m, cmd
}

// enter submits the input when it is complete, otherwise it starts a new line.
func (m model) enter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.editor.offset = 0

	input := strings.TrimSpace(m.editor.Value())
	switch input {
	case "":
		return m, tea.Println(m.freeze())
	case "exit", ".exit":
		return m, tea.Sequence(tea.Println(m.freeze()), tea.Quit)
	case "help":
		input = ".help"
	}

	if !shouldRun(input, m.editor.LineCount()) {
		m.editor.SetHeight(m.editor.LineCount() + 1)
		var cmd tea.Cmd
		m.editor.Model, cmd = m.editor.Model.Update(msg)
		return m, cmd
	}

	frozen := m.freeze()
	m.busy = true
	m.editor.Blur()
	return m, tea.Sequence(tea.Println(frozen), m.submit(input))
}

// submit hands the input to the executor and waits for its completion.
// Output lines reach the program as outputMsg before the doneMsg.
func (m model) submit(input string) tea.Cmd {
	send := m.sh.send
	tasks := m.tasks

	return func() tea.Msg {
		out := lineSender{send: send}
		t := task{input: input, out: &out, done: make(chan error, 1)}
		tasks <- t
		err := <-t.done
		out.flush()
		return doneMsg{err: err}
	}
}

// freeze returns the view of the input as it was submitted and clears the editor.
func (m *model) freeze() string {
	m.editor.Cursor.SetMode(cursor.CursorHide)
	view := m.inputView()
	m.editor.reset()
	m.err = nil
	return view
}

func (m model) inputView() string {
	if m.err != nil {
		return formatError(m.err) + m.editor.View()
	}
	return m.editor.View()
}

func (m model) View() string {
	if m.busy {
		return m.spinner.View() + "\n"
	}
	return m.inputView() + "\n"
}

// shouldRun reports whether the input is complete: a dot-command
// on a single line or pipelines terminated by a semicolon.
func shouldRun(input string, lines int) bool {
	clean := strings.TrimSpace(input)
	if lines == 1 && strings.HasPrefix(clean, ".") {
		return true
	}
	return strings.HasSuffix(clean, ";")
}

// formatError prints an error followed by its hints.
func formatError(err error) string {
	var sb strings.Builder
	sb.WriteString(errorStyle.Render("Error: " + err.Error()))
	sb.WriteByte('\n')
	if hint := errors.FlattenHints(err); hint != "" {
		sb.WriteString(hintStyle.Render("Hint: " + hint))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// editor is the multi-line pipeline input. Up and down walk the history
// when the cursor is on the first or last line.
type editor struct {
	textarea.Model

	// offset is the position in the history, 0 being the draft.
	offset int
	draft  string
}

func newEditor() editor {
	ta := textarea.New()
	ta.Placeholder = ""
	ta.ShowLineNumbers = false
	ta.MaxWidth = 0
	ta.FocusedStyle.Prompt = lipgloss.NewStyle()
	ta.FocusedStyle.CursorLine = ta.FocusedStyle.CursorLine.UnsetBackground()
	ta.FocusedStyle.Text = ta.FocusedStyle.Text.UnsetBackground()
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.SetPromptFunc(len(prompt), func(line int) string {
		if line == 0 {
			return prompt
		}
		return continuingPrompt
	})
	ta.SetHeight(1)
	ta.Focus()

	return editor{Model: ta}
}

func (e *editor) older(sh *Shell) {
	if e.offset == 0 {
		e.draft = e.Value()
	}
	if e.offset < len(sh.history) {
		e.offset++
	}
	e.show(sh.getHistoryLine(e.offset))
	for e.Line() > 0 {
		e.CursorUp()
	}
}

func (e *editor) newer(sh *Shell) {
	if e.offset == 0 {
		return
	}
	e.offset--
	if e.offset == 0 {
		e.show(e.draft)
	} else {
		e.show(sh.getHistoryLine(e.offset))
	}
	for e.Line() < e.LineCount()-1 {
		e.CursorDown()
	}
}

func (e *editor) show(s string) {
	e.SetValue(s)
	e.SetHeight(e.LineCount())
}

func (e *editor) reset() {
	e.SetValue("")
	e.SetHeight(1)
	e.Cursor.SetMode(cursor.CursorStatic)
	e.offset = 0
	e.draft = ""
}

// lineSender forwards complete lines to the program.
type lineSender struct {
	send func(tea.Msg)
	buf  []byte
}

func (w *lineSender) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if i := bytes.LastIndexByte(w.buf, '\n'); i >= 0 {
		w.send(outputMsg(w.buf[:i]))
		w.buf = append(w.buf[:0], w.buf[i+1:]...)
	}
	return len(p), nil
}

// flush sends the last line when it doesn't end with a newline.
func (w *lineSender) flush() {
	if len(w.buf) > 0 {
		w.send(outputMsg(w.buf))
		w.buf = nil
	}
}
