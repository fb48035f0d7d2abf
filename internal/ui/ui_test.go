package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m SelectModel, keys ...tea.KeyMsg) (SelectModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(SelectModel)
	}
	return m, cmd
}

func TestSelectModel_Navigate(t *testing.T) {
	m := NewSelect("Select a target", []string{"core", "core-utils", "compat"})

	m, cmd := press(t, m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	require.NotNil(t, cmd)
	assert.True(t, m.IsDone())
	assert.Equal(t, "core-utils", m.GetSelectedValue())
	assert.Empty(t, m.View())
}

func TestSelectModel_Filter(t *testing.T) {
	m := NewSelect("Select a target", []string{"core", "core-utils", "compat"})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ut")})
	assert.Contains(t, m.View(), "core-utils")
	assert.NotContains(t, m.View(), "compat")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "core-utils", m.GetSelectedValue())
}

func TestSelectModel_FilterWithoutMatchesIgnoresEnter(t *testing.T) {
	m := NewSelect("Select a target", []string{"core"})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zz")}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.IsDone())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "core", m.GetSelectedValue())
}

func TestSelectModel_Cancel(t *testing.T) {
	m, cmd := press(t, NewSelect("Select a target", []string{"a", "b"}), tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.True(t, m.IsDone())
	assert.Empty(t, m.GetSelectedValue())
}

func TestPickers_ShortCircuit(t *testing.T) {
	got, err := SelectPicker{}.Pick("target", []string{"core"})
	require.NoError(t, err)
	assert.Equal(t, "core", got)

	_, err = SelectPicker{}.Pick("target", nil)
	assert.Error(t, err)

	got, err = FirstPicker{}.Pick("target", []string{"core", "core-utils"})
	require.NoError(t, err)
	assert.Equal(t, "core", got)
}
