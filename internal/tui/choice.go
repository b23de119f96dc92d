package tui

import (
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// Choice is a single-answer selector over a question's options.
type Choice struct {
	Question  string
	Options   []string
	Selected  int
	Submitted bool
}

// NewChoice creates a selector with the cursor on preselected, or on the
// first option when preselected is out of range.
func NewChoice(question string, options []string, preselected int) Choice {
	if preselected < 0 || preselected >= len(options) {
		preselected = 0
	}
	return Choice{
		Question: question,
		Options:  options,
		Selected: preselected,
	}
}

// Update handles keyboard navigation and selection. Digits pick an option
// by its number.
func (m Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = true
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Options) {
			m.Selected = n - 1
			m.Submitted = true
		}
	}

	return m, nil
}

// View renders the question and its options.
func (m Choice) View() string {
	s := bodyStyle.Bold(true).Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected {
			prefix = "▸ "
		}

		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)
		if i == m.Selected {
			s += lipgloss.NewStyle().Foreground(primary).Bold(true).Render(line) + "\n"
		} else {
			s += bodyStyle.Render(line) + "\n"
		}
	}

	return s
}
