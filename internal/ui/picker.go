package ui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

// Picker chooses one of several candidates.
type Picker interface {
	Pick(label string, choices []string) (string, error)
}

// SelectPicker asks on the terminal with a SelectModel.
type SelectPicker struct {
	// Input and Output default to the process streams when nil.
	Input  io.Reader
	Output io.Writer
}

// Pick returns the chosen item. A single choice is returned without prompting.
func (p SelectPicker) Pick(label string, choices []string) (string, error) {
	switch len(choices) {
	case 0:
		return "", fmt.Errorf("nothing to choose from")
	case 1:
		return choices[0], nil
	}

	var opts []tea.ProgramOption
	if p.Input != nil {
		opts = append(opts, tea.WithInput(p.Input))
	}
	if p.Output != nil {
		opts = append(opts, tea.WithOutput(p.Output))
	}

	finalModel, err := tea.NewProgram(NewSelect(label, choices), opts...).Run()
	if err != nil {
		return "", err
	}

	result := finalModel.(SelectModel)
	if result.GetSelectedValue() == "" {
		return "", ErrCancelled
	}
	return result.GetSelectedValue(), nil
}

// FirstPicker always takes the first candidate.
type FirstPicker struct{}

// Pick returns choices[0].
func (FirstPicker) Pick(_ string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("nothing to choose from")
	}
	return choices[0], nil
}
