// Package view renders builds, logs and archive results for the terminal.
package view

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds the colors used by the CLI tables.
type StyleConfig struct {
	PrimaryBlue   lipgloss.Color
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	BorderColor   lipgloss.Color

	Succeeded lipgloss.Color
	Partial   lipgloss.Color
	Failed    lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:   lipgloss.Color("#8AB4F8"),
		TextPrimary:   lipgloss.Color("#E8EAED"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		BorderColor:   lipgloss.Color("#5F6368"),
		Succeeded:     lipgloss.Color("#34A853"),
		Partial:       lipgloss.Color("#FBBC04"),
		Failed:        lipgloss.Color("#EA4335"),
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true)
}

// HeaderStyle returns the table header style.
func (s *StyleConfig) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Bold(true).
		PaddingRight(2)
}

// CellStyle returns the default table cell style.
func (s *StyleConfig) CellStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextPrimary).
		PaddingRight(2)
}

// ResultStyle colors a build or task result.
func (s *StyleConfig) ResultStyle(result string) lipgloss.Style {
	style := s.CellStyle()
	switch result {
	case "succeeded":
		return style.Foreground(s.Succeeded)
	case "partiallySucceeded", "succeededWithIssues":
		return style.Foreground(s.Partial)
	case "failed", "canceled", "abandoned":
		return style.Foreground(s.Failed)
	default:
		return style.Foreground(s.TextSecondary)
	}
}
