package tui

import "github.com/mmcdole/todos/internal/domain"

// Message types for the TUI

// TodosLoadedMsg signals that a load finished
type TodosLoadedMsg struct {
	Err error
}

// TodoAddedMsg signals that a create settled
type TodoAddedMsg struct {
	Todo domain.Todo
	Err  error
}

// TodoEditedMsg signals that an edit settled
type TodoEditedMsg struct {
	ID   string
	Todo domain.Todo
	Err  error
}

// ToggleSettledMsg signals that a completed update settled
type ToggleSettledMsg struct {
	ItemID    string
	Completed bool
	Err       error
}

// RemoveSettledMsg signals that a delete settled
type RemoveSettledMsg struct {
	ItemID string
	Err    error
}

// ClearSettledMsg signals that every delete of a clear settled
type ClearSettledMsg struct {
	Removed   int
	Requested int
	Err       error
}

// TickMsg drives the spinner
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	Seq int
}
