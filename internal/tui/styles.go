package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80")).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e5e5")).Background(lipgloss.Color("236"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))

	enterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa"))
	exitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
)

// statusStyle colors a tracker status chip.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "active":
		return okStyle
	case "idle":
		return warnStyle
	default:
		return dimStyle
	}
}
