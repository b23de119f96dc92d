// Package tui runs the assessment as an interactive terminal program.
package tui

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	primary   = lipgloss.Color("#2563EB")
	secondary = lipgloss.Color("#14B8A6")
	danger    = lipgloss.Color("#F43F5E")
	text      = lipgloss.Color("#F8FAFC")
	textDim   = lipgloss.Color("#94A3B8")
	border    = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	bodyStyle  = lipgloss.NewStyle().Foreground(text)
	hintStyle  = lipgloss.NewStyle().Foreground(textDim).Italic(true)
	errorStyle = lipgloss.NewStyle().Foreground(danger)
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(secondary)
)
