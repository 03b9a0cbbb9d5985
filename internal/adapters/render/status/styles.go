package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	agent      lipgloss.Style
	detail     lipgloss.Style
	online     lipgloss.Style
	offline    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	roleLead   lipgloss.Style
	roleOther  lipgloss.Style
	barBracket lipgloss.Style
	barAwake   lipgloss.Style
	barAsleep  lipgloss.Style
	barNow     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		agent:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		online:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		offline:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		roleLead:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		roleOther:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barAwake:   lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barAsleep:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		barNow:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
