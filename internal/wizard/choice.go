package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// choice is one selectable option: Label is shown, Value is returned.
type choice struct {
	Label string
	Value string
}

// prompter asks the user to pick one choice. Implementations return an
// error when the user cancels with ctrl+c or esc.
type prompter interface {
	Choose(title string, choices []choice) (string, error)
}

// choiceModel is the bubbletea model for a single-select prompt. The
// cursor wraps around at both ends.
type choiceModel struct {
	title     string
	choices   []choice
	cursor    int
	done      bool
	cancelled bool
}

func newChoiceModel(title string, choices []choice) choiceModel {
	return choiceModel{title: title, choices: choices}
}

func (m choiceModel) Init() tea.Cmd {
	return nil
}

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		m.done = true
		return m, tea.Quit

	case "up", "k":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(m.choices) - 1
		}

	case "down", "j":
		m.cursor++
		if m.cursor >= len(m.choices) {
			m.cursor = 0
		}

	case "enter":
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m choiceModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title) + "\n\n")

	for i, c := range m.choices {
		if i == m.cursor {
			b.WriteString(highlightStyle.Render(fmt.Sprintf("  > %s", c.Label)) + "\n")
		} else {
			b.WriteString(fmt.Sprintf("    %s\n", c.Label))
		}
	}

	b.WriteString("\n" + dimStyle.Render("  up/down move • enter select • q cancel") + "\n")
	return b.String()
}

// Cancelled reports whether the user backed out of the prompt.
func (m choiceModel) Cancelled() bool {
	return m.cancelled
}

// Selected returns the value of the choice under the cursor.
func (m choiceModel) Selected() string {
	if m.cursor < 0 || m.cursor >= len(m.choices) {
		return ""
	}
	return m.choices[m.cursor].Value
}

// teaPrompter runs choice prompts as inline bubbletea programs.
type teaPrompter struct{}

func (teaPrompter) Choose(title string, choices []choice) (string, error) {
	p := tea.NewProgram(newChoiceModel(title, choices))

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}

	cm := finalModel.(choiceModel)
	if cm.Cancelled() {
		return "", fmt.Errorf("cancelled")
	}
	return cm.Selected(), nil
}
