package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/merlin-energy/truequote/internal/validation"
)

// Shared styles.
//
//nolint:gochecknoglobals // Style values are immutable after init.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	LabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	HelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	BoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("240"))
	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	statusStyles = map[validation.Status]lipgloss.Style{
		validation.StatusPass:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		validation.StatusPassWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		validation.StatusFail:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		validation.StatusCrash:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		validation.StatusSkip:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	severityStyles = map[validation.Severity]lipgloss.Style{
		validation.SeverityWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		validation.SeverityFail: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// StatusStyle returns the color for a row status.
func StatusStyle(s validation.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return ValueStyle
}

// RenderStatus renders s in its status color.
func RenderStatus(s validation.Status) string {
	return StatusStyle(s).Render(string(s))
}
