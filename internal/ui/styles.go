package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors of the terminal UI.
type Theme struct {
	Primary lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
}

var DefaultTheme = Theme{
	Primary: lipgloss.AdaptiveColor{Light: "#166534", Dark: "#4ADE80"},
	Success: lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"},
	Warning: lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"},
	Error:   lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"},
	Muted:   lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
	Border:  lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
}

type styles struct {
	frame   lipgloss.Style
	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	loading lipgloss.Style
	err     lipgloss.Style
	help    lipgloss.Style
	notice  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		heading: lipgloss.NewStyle().Bold(true).Underline(true),
		label:   lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		loading: lipgloss.NewStyle().Foreground(t.Warning),
		err:     lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		help:    lipgloss.NewStyle().Foreground(t.Muted),
		notice:  lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
	}
}
