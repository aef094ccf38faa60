package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ctrlvocab/internal/faults"
)

type tuiStyles struct {
	counter  lipgloss.Style
	question lipgloss.Style
	answer   lipgloss.Style
	help     lipgloss.Style
}

func defaultTUIStyles() tuiStyles {
	return tuiStyles{
		counter:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		question: lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true),
		answer:   lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")).Italic(true),
	}
}

// questionModel is the bubbletea model for a single question.
type questionModel struct {
	question Question
	text     string
	input    textinput.Model
	styles   tuiStyles

	answer  string
	done    bool
	aborted bool
}

func newQuestionModel(q Question, template string) questionModel {
	input := textinput.New()
	input.Placeholder = q.Value
	input.Prompt = "> "
	input.CharLimit = 0
	input.Focus()
	return questionModel{
		question: q,
		text:     FormatQuestion(template, q.Value),
		input:    input,
		styles:   defaultTUIStyles(),
	}
}

func (m questionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m questionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.answer = m.input.Value()
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyTab:
			if m.question.Suggestion != "" {
				m.input.SetValue(m.question.Suggestion)
				m.input.CursorEnd()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m questionModel) View() string {
	counter := ""
	if m.question.Index > 0 {
		counter = m.styles.counter.Render(fmt.Sprintf("[%d] ", m.question.Index))
	}
	switch {
	case m.aborted:
		return counter + m.styles.question.Render(m.text) + m.styles.help.Render("aborted") + "\n"
	case m.done:
		return counter + m.styles.question.Render(m.text) + m.styles.answer.Render(Canonical(m.question.Value, m.answer)) + "\n"
	}
	view := counter + m.styles.question.Render(m.text) + "\n" + m.input.View() + "\n"
	if m.question.Suggestion != "" {
		view += m.styles.help.Render(fmt.Sprintf("closest known value: %s (tab to use)", m.question.Suggestion)) + "\n"
	}
	return view + m.styles.help.Render("enter to accept, empty keeps the original, esc aborts") + "\n"
}

// TUIPrompter runs one bubbletea program per question.
type TUIPrompter struct {
	in       io.Reader
	out      io.Writer
	template string
}

// NewTUIPrompter builds a prompter drawing on out and reading keys from in.
func NewTUIPrompter(in io.Reader, out io.Writer, template string) *TUIPrompter {
	return &TUIPrompter{in: in, out: out, template: template}
}

// Ask runs the form until the operator accepts or aborts. Aborting returns
// an error matching faults.ErrAborted.
func (p *TUIPrompter) Ask(ctx context.Context, q Question) (string, error) {
	program := tea.NewProgram(
		newQuestionModel(q, p.template),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m, ok := final.(questionModel)
	if !ok || m.aborted || !m.done {
		return "", fmt.Errorf("%w: operator cancelled at %q", faults.ErrAborted, q.Value)
	}
	return m.answer, nil
}
