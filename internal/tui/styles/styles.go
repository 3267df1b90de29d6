// Package styles defines shared lipgloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/amirbrooks/taskboard/internal/store"
)

var (
	primaryColor   = lipgloss.Color("#5FAFAF")
	secondaryColor = lipgloss.Color("#666666")
	errorColor     = lipgloss.Color("#AF5F5F")
	successColor   = lipgloss.Color("#87AF87")
	highColor      = lipgloss.Color("#D75F5F")
	lowColor       = lipgloss.Color("#AFAF5F")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	ActiveColumnStyle = ColumnStyle.
				BorderForeground(primaryColor)

	CardStyle = lipgloss.NewStyle()

	SelectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	TagStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Width(12).
			Foreground(secondaryColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)
)

// Priority colors the one-letter priority badge.
func Priority(p store.Priority) lipgloss.Style {
	switch p {
	case store.PriorityHigh:
		return lipgloss.NewStyle().Bold(true).Foreground(highColor)
	case store.PriorityLow:
		return lipgloss.NewStyle().Foreground(lowColor)
	default:
		return lipgloss.NewStyle().Foreground(secondaryColor)
	}
}
