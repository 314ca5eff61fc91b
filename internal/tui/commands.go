package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/todos/internal/mirror"
)

// Command factories for async operations. Each runs one synchronizer call
// off the Update goroutine and reports the outcome as a message.

// LoadTodosCmd fetches the collection and rebuilds the mirror
func LoadTodosCmd(sync todoSync) tea.Cmd {
	return func() tea.Msg {
		return TodosLoadedMsg{Err: sync.Load(context.Background())}
	}
}

// AddTodoCmd creates a todo
func AddTodoCmd(sync todoSync, text string) tea.Cmd {
	return func() tea.Msg {
		todo, err := sync.AddItem(context.Background(), text)
		return TodoAddedMsg{Todo: todo, Err: err}
	}
}

// EditTodoCmd replaces a todo's body
func EditTodoCmd(sync todoSync, id, body string) tea.Cmd {
	return func() tea.Msg {
		todo, err := sync.EditItem(context.Background(), id, body)
		return TodoEditedMsg{ID: id, Todo: todo, Err: err}
	}
}

// SettleToggleCmd sends a completed change already applied locally
func SettleToggleCmd(sync todoSync, op *mirror.PendingOp) tea.Cmd {
	return func() tea.Msg {
		completed, err := sync.SettleToggle(context.Background(), op)
		return ToggleSettledMsg{ItemID: op.ItemID, Completed: completed, Err: err}
	}
}

// SettleRemoveCmd sends a delete already marked locally
func SettleRemoveCmd(sync todoSync, op *mirror.PendingOp) tea.Cmd {
	return func() tea.Msg {
		_, err := sync.SettleRemove(context.Background(), op)
		return RemoveSettledMsg{ItemID: op.ItemID, Err: err}
	}
}

// SettleClearCmd sends the deletes for a clear already marked locally
func SettleClearCmd(sync todoSync, ops []*mirror.PendingOp) tea.Cmd {
	return func() tea.Msg {
		removed, err := sync.SettleClear(context.Background(), ops)
		return ClearSettledMsg{Removed: removed, Requested: len(ops), Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status message set as seq after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
