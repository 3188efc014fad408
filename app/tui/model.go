// Package tui is the interactive Bubble Tea front end of the chat command.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Runner answers one request. *agents.Core satisfies it.
type Runner interface {
	Run(ctx context.Context, input string) string
}

// Session tracks high-level session metadata for the status line.
type Session struct {
	StartTime time.Time
	Workspace string
	Model     string
	Exchanges int
}

// Run starts the chat program inline, printing each exchange above the
// prompt, and returns when the user quits.
func Run(ctx context.Context, runner Runner, session Session, in io.Reader, out io.Writer) error {
	if runner == nil {
		return fmt.Errorf("runner is required")
	}
	program := tea.NewProgram(
		NewModel(ctx, runner, session),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := program.Run()
	return err
}

// Model implements the Bubble Tea Model interface for a single prompt line
// with a spinner while the agent works.
type Model struct {
	ctx     context.Context
	runner  Runner
	input   textinput.Model
	spinner spinner.Model
	session Session

	busy     bool
	started  time.Time
	width    int
	quitting bool
}

type responseMsg struct {
	text     string
	duration time.Duration
}

// NewModel initializes the prompt and spinner.
func NewModel(ctx context.Context, runner Runner, session Session) Model {
	input := textinput.New()
	input.Placeholder = "Ask about Django or request code for a file"
	input.Prompt = promptStyle.Render("Ask") + ": "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if session.StartTime.IsZero() {
		session.StartTime = time.Now()
	}
	return Model{
		ctx:     ctx,
		runner:  runner,
		input:   input,
		spinner: sp,
		session: session,
	}
}

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.Println(Banner()+"\n"))
}

// Update applies incoming Bubble Tea messages to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-8)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
		if m.busy {
			return m, nil
		}
	case responseMsg:
		m.busy = false
		m.session.Exchanges++
		return m, tea.Println(m.renderResponse(msg))
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	request := strings.TrimSpace(m.input.Value())
	if request == "" {
		return m, nil
	}
	m.input.Reset()
	m.busy = true
	m.started = time.Now()
	return m, tea.Batch(
		tea.Println(userStyle.Render("Ask: ")+request),
		m.spinner.Tick,
		m.runRequest(request),
	)
}

func (m Model) runRequest(request string) tea.Cmd {
	ctx, runner, started := m.ctx, m.runner, m.started
	return func() tea.Msg {
		text := runner.Run(ctx, request)
		return responseMsg{text: text, duration: time.Since(started)}
	}
}

func (m Model) renderResponse(msg responseMsg) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(agentLabelStyle.Render("Agent:"))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", msg.duration.Round(100*time.Millisecond))))
	b.WriteString("\n")
	b.WriteString(HighlightStatus(msg.text))
	b.WriteString("\n")
	b.WriteString(Separator(m.width))
	return b.String()
}

// View renders the prompt line, or the spinner while a request runs.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.busy {
		return m.spinner.View() + dimStyle.Render(" Thinking...")
	}
	status := dimStyle.Render(fmt.Sprintf("  %s · %d exchanges", m.session.Model, m.session.Exchanges))
	return m.input.View() + "\n" + status
}

// HighlightStatus colours the status lines the agent core emits.
func HighlightStatus(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "[ERROR]"), strings.HasPrefix(line, "❌"):
			lines[i] = errorStyle.Render(line)
		case strings.HasPrefix(line, "[Warning]"):
			lines[i] = warningStyle.Render(line)
		case strings.HasPrefix(line, "✅"):
			lines[i] = lipgloss.NewStyle().Foreground(colorSuccess).Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
