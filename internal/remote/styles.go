package remote

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/lampsmart/internal/ui"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true).
			Padding(0, 1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor).
			Bold(true)

	NameStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			PaddingLeft(2)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor).
			Bold(true).
			PaddingLeft(2)

	ConfirmStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor).
			Bold(true).
			PaddingLeft(2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)

	// PanelStyle frames the highlighted device's detail panel
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.PrimaryColor).
			Padding(0, 2).
			MarginLeft(2)

	EventStyle = lipgloss.NewStyle().
			Foreground(ui.ColdColor).
			PaddingLeft(2)

	HelpStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)
