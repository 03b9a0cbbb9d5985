package status

import (
	"errors"
	"io"

	"github.com/bnema/persona-cast/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// Options select the layout. Compact prints one line per agent.
type Options struct {
	Compact bool
}

type castLoadedMsg struct {
	status application.CastStatus
}

// model renders once: Init hands the snapshot over as a message and Update
// lays it out, so the final model carries the finished view.
type model struct {
	pending application.CastStatus
	opts    Options
	styles  styles
	output  string
}

func newModel(status application.CastStatus, opts Options) model {
	return model{
		pending: status,
		opts:    opts,
		styles:  newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	status := m.pending
	return func() tea.Msg {
		return castLoadedMsg{status: status}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	loaded, ok := msg.(castLoadedMsg)
	if !ok {
		return m, nil
	}

	if m.opts.Compact {
		m.output = renderCompact(loaded.status, m.styles)
	} else {
		m.output = renderView(loaded.status, m.styles)
	}
	return m, tea.Quit
}

func (m model) View() string {
	return m.output
}

// Render lays out a cast snapshot for a terminal.
func Render(status application.CastStatus, opts Options) (string, error) {
	p := tea.NewProgram(
		newModel(status, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
