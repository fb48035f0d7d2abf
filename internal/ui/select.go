package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectModel is a single-selection list. Typed letters filter the choices.
type SelectModel struct {
	prompt   string
	choices  []string
	filter   string
	cursor   int
	selected string
	done     bool
}

// NewSelect creates a new selection prompt.
func NewSelect(prompt string, choices []string) SelectModel {
	return SelectModel{
		prompt:  prompt,
		choices: choices,
	}
}

func (m SelectModel) Init() tea.Cmd {
	return nil
}

func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	visible := m.visible()
	switch key.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if len(visible) > 0 {
			m.selected = visible[m.cursor]
			m.done = true
			return m, tea.Quit
		}
	case tea.KeyCtrlC, tea.KeyEsc:
		m.done = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
			m.cursor = 0
		}
	case tea.KeyRunes:
		m.filter += string(key.Runes)
		m.cursor = 0
	}

	return m, nil
}

func (m SelectModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n\n", IconPackage, SubtitleStyle.Render(m.prompt), HelpStyle.Render(m.filter))

	for i, choice := range m.visible() {
		cursor := " "
		style := UnselectedStyle
		if i == m.cursor {
			cursor = ">"
			style = SelectedStyle
		}
		fmt.Fprintf(&b, "  %s %s\n", cursor, style.Render(choice))
	}

	b.WriteString("\n" + HelpStyle.Render("↑/↓: navigate • type: filter • enter: select • esc: cancel"))
	return b.String()
}

// visible returns the choices containing the filter text.
func (m SelectModel) visible() []string {
	if m.filter == "" {
		return m.choices
	}
	var out []string
	needle := strings.ToLower(m.filter)
	for _, c := range m.choices {
		if strings.Contains(strings.ToLower(c), needle) {
			out = append(out, c)
		}
	}
	return out
}

// GetSelectedValue returns the selected choice, or "" when cancelled.
func (m SelectModel) GetSelectedValue() string {
	return m.selected
}

// IsDone returns whether selection is complete.
func (m SelectModel) IsDone() bool {
	return m.done
}
