package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/tui/components"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		// Any key returns to the list
		m.State = StateList
		return m, nil

	case StateConfirmClear:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateList
			return m.beginClear()
		case key.Matches(msg, Keys.Deny):
			m.State = StateList
		}
		return m, nil

	case StateInput:
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Toggle):
		return m.beginToggle()

	case key.Matches(msg, Keys.Add):
		m.editingID = ""
		m.State = StateInput
		return m, m.Input.Show("New todo", "")

	case key.Matches(msg, Keys.Edit):
		sel, ok := m.List.Selected()
		if !ok || sel.Removing {
			return m, nil
		}
		m.Sessions.CancelAll()
		m.Sessions.For(sel.ID).Begin(sel.Body)
		m.editingID = sel.ID
		m.State = StateInput
		return m, m.Input.Show("Edit todo", sel.Body)

	case key.Matches(msg, Keys.Remove):
		return m.beginRemove()

	case key.Matches(msg, Keys.Clear):
		if !m.hasClearable() {
			return m, m.setStatus("No completed todos")
		}
		if m.Options.ConfirmClear {
			m.State = StateConfirmClear
			return m, nil
		}
		return m.beginClear()

	case key.Matches(msg, Keys.Refresh):
		if m.Loading {
			return m, nil
		}
		m.Loading = true
		m.List.SetLoading(true)
		return m, LoadTodosCmd(m.Sync)
	}

	return m, m.List.Update(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var action components.InputAction
	m.Input, cmd, action = m.Input.Update(msg)

	switch action {
	case components.InputCancelled:
		if m.editingID != "" {
			m.Sessions.For(m.editingID).Cancel()
		}
		m.editingID = ""
		m.State = StateList
		return m, nil

	case components.InputSubmitted:
		if m.editingID == "" {
			return m.submitAdd()
		}
		return m.submitEdit()
	}

	if m.editingID != "" {
		m.Sessions.For(m.editingID).SetDraft(m.Input.Value())
	}
	return m, cmd
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	text := domain.NormalizeBody(m.Input.Value())
	if text == "" {
		m.Input.SetError("Todo text cannot be empty")
		return m, nil
	}
	m.Input.Hide()
	m.State = StateList
	m.InFlight++
	return m, AddTodoCmd(m.Sync, text)
}

func (m Model) submitEdit() (tea.Model, tea.Cmd) {
	id := m.editingID
	sess := m.Sessions.For(id)
	sess.SetDraft(m.Input.Value())

	m.Input.Hide()
	m.State = StateList
	m.editingID = ""

	body, changed := sess.Save()
	if !changed {
		return m, nil
	}
	m.InFlight++
	return m, EditTodoCmd(m.Sync, id, body)
}

// beginToggle flips the selected item locally and sends the update
func (m Model) beginToggle() (tea.Model, tea.Cmd) {
	sel, ok := m.List.Selected()
	if !ok || sel.Removing {
		return m, nil
	}
	op, err := m.Sync.BeginToggle(sel.ID, !sel.Completed)
	if err != nil {
		return m, m.setError("Toggle failed", err)
	}
	m.refresh()
	m.InFlight++
	return m, SettleToggleCmd(m.Sync, op)
}

// beginRemove marks the selected item and sends the delete
func (m Model) beginRemove() (tea.Model, tea.Cmd) {
	sel, ok := m.List.Selected()
	if !ok || sel.Removing {
		return m, nil
	}
	op := m.Sync.BeginRemove(sel.Todo)
	m.refresh()
	m.InFlight++
	return m, SettleRemoveCmd(m.Sync, op)
}

// beginClear marks every completed item and sends the deletes
func (m Model) beginClear() (tea.Model, tea.Cmd) {
	ops := m.Sync.BeginClear()
	if len(ops) == 0 {
		return m, m.setStatus("No completed todos")
	}
	m.refresh()
	m.InFlight++
	return m, SettleClearCmd(m.Sync, ops)
}

func (m Model) hasClearable() bool {
	for _, it := range m.Snapshot.Items {
		if it.Completed && !it.Removing {
			return true
		}
	}
	return false
}
