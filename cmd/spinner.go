package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type thinkingDoneMsg struct {
	err error
}

// thinkingModel shows "<spinner> <who> is thinking..." with the elapsed seconds
// until the wrapped work reports back.
type thinkingModel struct {
	spinner spinner.Model
	who     string
	started time.Time
	elapsed time.Duration
	work    tea.Cmd
	err     error
	done    bool
}

func newThinkingModel(who string, work tea.Cmd) thinkingModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return thinkingModel{
		spinner: s,
		who:     who,
		started: time.Now(),
		work:    work,
	}
}

func (m thinkingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m thinkingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.elapsed = time.Since(m.started)
		return m, cmd
	case thinkingDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m thinkingModel) View() string {
	if m.done {
		return ""
	}

	line := fmt.Sprintf("%s %s is thinking...", m.spinner.View(), m.who)
	if m.elapsed >= time.Second {
		line += fmt.Sprintf(" %ds", int(m.elapsed.Seconds()))
	}
	return line
}

// whileThinking runs work with the spinner drawn on output and returns work's error.
func whileThinking(ctx context.Context, output io.Writer, who string, work func(context.Context) error) error {
	workCmd := func() tea.Msg {
		return thinkingDoneMsg{err: work(ctx)}
	}

	p := tea.NewProgram(
		newThinkingModel(who, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("run spinner: %w", err)
	}

	result, ok := finalModel.(thinkingModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
