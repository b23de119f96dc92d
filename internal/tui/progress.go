package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int
}

// View renders the bar followed by the percentage.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += bodyStyle.Render(p.Label) + "  "
	}

	barWidth := p.Width - lipgloss.Width(result) - 6
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	result += lipgloss.NewStyle().Background(secondary).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(border).Render(strings.Repeat(" ", barWidth-filled))
	result += hintStyle.Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))

	return result
}
