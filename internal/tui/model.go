package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/models"
)

// ErrAborted is returned when the respondent quits before the result
var ErrAborted = errors.New("assessment aborted")

type scoreTickMsg time.Time

// Model drives an assessment.Controller from key presses.
type Model struct {
	c      *assessment.Controller
	tick   time.Duration
	fields []TextInput
	focus  int
	choice Choice
	shown  int
	err    error
	quit   bool
	width  int
}

// New creates a model positioned at the controller's current step.
func New(c *assessment.Controller, tick time.Duration) *Model {
	info := c.Session().Respondent
	m := &Model{
		c:    c,
		tick: tick,
		fields: []TextInput{
			NewTextInput("Name", "Jane Doe", 120),
			NewTextInput("Email", "jane@example.com", 254),
			NewTextInput("Company", "Acme Inc.", 120),
			NewTextInput("Position", "CISO", 120),
		},
		width: 60,
	}
	for i, v := range []string{info.Name, info.Email, info.Company, info.Position} {
		m.fields[i].SetValue(v)
	}
	m.fields[0].Focus()
	m.loadChoice()
	return m
}

// Aborted reports whether the respondent quit before the result
func (m *Model) Aborted() bool {
	return m.quit && m.c.Phase() != assessment.PhaseResult
}

func (m *Model) Init() tea.Cmd {
	return m.fields[m.focus].Focus()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case scoreTickMsg:
		return m, m.advanceScore()

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
		m.err = nil

		switch m.c.Phase() {
		case assessment.PhaseCollectingInfo:
			return m, m.updateInfo(msg)
		case assessment.PhaseAnswering:
			return m, m.updateAnswering(msg)
		default:
			return m, m.updateResult(msg)
		}
	}

	if m.c.Phase() == assessment.PhaseCollectingInfo {
		var cmd tea.Cmd
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateInfo(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.quit = true
		return tea.Quit
	case "tab", "down":
		return m.focusField(m.focus + 1)
	case "shift+tab", "up":
		return m.focusField(m.focus - 1)
	case "enter":
		if m.focus < len(m.fields)-1 {
			return m.focusField(m.focus + 1)
		}
		return m.submitInfo()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	if i < 0 || i >= len(m.fields) {
		return nil
	}
	m.fields[m.focus].Blur()
	m.focus = i
	return m.fields[i].Focus()
}

func (m *Model) submitInfo() tea.Cmd {
	info := models.RespondentInfo{
		Name:     m.fields[0].Value(),
		Email:    m.fields[1].Value(),
		Company:  m.fields[2].Value(),
		Position: m.fields[3].Value(),
	}
	if err := m.c.SetRespondent(info); err != nil {
		m.err = err
		return nil
	}
	return m.next()
}

func (m *Model) updateAnswering(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		m.quit = true
		return tea.Quit
	case "left", "b":
		m.c.Back()
		m.loadChoice()
		if m.c.Phase() == assessment.PhaseCollectingInfo {
			return m.fields[m.focus].Focus()
		}
		return nil
	case "right", "n":
		return m.next()
	}

	var cmd tea.Cmd
	m.choice, cmd = m.choice.Update(msg)
	if !m.choice.Submitted {
		return cmd
	}

	q, _ := m.c.Current()
	if err := m.c.SelectAnswer(q.ID, q.Options[m.choice.Selected].Weight); err != nil {
		m.err = err
		return nil
	}
	return m.next()
}

// next advances the controller and prepares the step it lands on
func (m *Model) next() tea.Cmd {
	if err := m.c.Next(); err != nil {
		m.err = err
		return nil
	}
	m.loadChoice()

	if m.c.Phase() != assessment.PhaseResult {
		return nil
	}
	if m.tick <= 0 {
		res, _ := m.c.Result()
		m.shown = res.Score
		return nil
	}
	return m.scheduleTick()
}

func (m *Model) loadChoice() {
	q, ok := m.c.Current()
	if !ok {
		m.choice = Choice{}
		return
	}

	selected := -1
	if w, ok := m.c.Session().Answers.Get(q.ID); ok {
		for i, o := range q.Options {
			if o.Weight == w {
				selected = i
			}
		}
	}

	labels := make([]string, len(q.Options))
	for i, o := range q.Options {
		labels[i] = o.Label
	}
	m.choice = NewChoice(q.Text, labels, selected)
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return scoreTickMsg(t)
	})
}

func (m *Model) advanceScore() tea.Cmd {
	res, ok := m.c.Result()
	if !ok {
		return nil
	}
	m.shown = assessment.Tick(m.shown, res.Score)
	if m.shown == res.Score {
		return nil
	}
	return m.scheduleTick()
}

func (m *Model) updateResult(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc", "q":
		if res, ok := m.c.Result(); ok {
			m.shown = res.Score
		}
		m.quit = true
		return tea.Quit
	}
	return nil
}

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.SetContent(m.render())
	return v
}

func (m *Model) render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Cybersecurity Assessment"))
	b.WriteString("\n\n")

	switch m.c.Phase() {
	case assessment.PhaseCollectingInfo:
		for _, f := range m.fields {
			b.WriteString(f.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("tab next field · enter continue · esc quit"))

	case assessment.PhaseAnswering:
		bar := ProgressBar{
			Label:   fmt.Sprintf("Question %d of %d", m.c.Step(), m.c.Questions()),
			Percent: m.c.Progress(),
			Width:   m.width,
		}
		b.WriteString(bar.View())
		b.WriteString("\n\n")
		b.WriteString(m.choice.View())
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(fmt.Sprintf("↑↓ choose · enter or 1-%d answer · ← back · → skip · q quit", len(m.choice.Options))))

	default:
		res, _ := m.c.Result()
		b.WriteString(scoreStyle.Render(fmt.Sprintf("Your score: %d", m.shown)))
		b.WriteString(hintStyle.Render(fmt.Sprintf(" / %d", res.MaxScore)))
		b.WriteString("\n\n")
		if m.shown == res.Score {
			b.WriteString(bodyStyle.Render(res.Band.Summary))
			b.WriteString("\n")
			b.WriteString(hintStyle.Render(fmt.Sprintf("%d of %d questions answered · enter to finish", m.c.Session().Answers.Len(), m.c.Questions())))
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

// Run shows the assessment on out, reading keys from in, until the result
// is dismissed or the respondent quits.
func Run(c *assessment.Controller, in io.Reader, out io.Writer, tick time.Duration) error {
	m := New(c, tick)

	final, err := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return fmt.Errorf("failed to run assessment: %w", err)
	}
	if fm, ok := final.(*Model); ok && fm.Aborted() {
		return ErrAborted
	}
	return nil
}
