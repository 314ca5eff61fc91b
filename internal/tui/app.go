package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/edit"
	"github.com/mmcdole/todos/internal/mirror"
	"github.com/mmcdole/todos/internal/tui/components"
)

// todoSync is the part of the synchronizer the TUI drives (consumer-defined interface)
type todoSync interface {
	Snapshot() mirror.Snapshot
	Load(ctx context.Context) error
	AddItem(ctx context.Context, text string) (domain.Todo, error)
	EditItem(ctx context.Context, id, text string) (domain.Todo, error)
	BeginToggle(id string, completed bool) (*mirror.PendingOp, error)
	SettleToggle(ctx context.Context, op *mirror.PendingOp) (bool, error)
	BeginRemove(item domain.Todo) *mirror.PendingOp
	SettleRemove(ctx context.Context, op *mirror.PendingOp) (domain.Todo, error)
	BeginClear() []*mirror.PendingOp
	SettleClear(ctx context.Context, ops []*mirror.PendingOp) (int, error)
}

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateList ApplicationState = iota
	StateInput
	StateHelp
	StateConfirmClear
)

const (
	tickInterval = 100 * time.Millisecond
	statusTTL    = 3 * time.Second

	// Dashboard line above the list plus the footer below it
	ChromeHeight = 2
)

// Options tune the TUI from configuration
type Options struct {
	ConfirmClear bool
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	Sync    todoSync
	Options Options

	// UI components
	List  *components.TodoList
	Input components.InputModal

	// Per-item view/edit state. editingID is the item behind the input
	// modal; empty while adding.
	Sessions  *edit.Sessions
	editingID string

	// Last rendered copy of the mirror
	Snapshot mirror.Snapshot

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	statusSeq    int
	Loading      bool
	InFlight     int // requests sent and not yet answered
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(sync todoSync, opts Options) Model {
	list := components.NewTodoList("Todos")
	list.SetLoading(true)

	return Model{
		State:    StateList,
		Sync:     sync,
		Options:  opts,
		List:     list,
		Input:    components.NewInputModal(),
		Sessions: edit.NewSessions(),
		Loading:  true,
	}
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadTodosCmd(m.Sync),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.List.SetSize(m.Width, m.Height-ChromeHeight)
		m.Input.SetWidth(m.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.List.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(tickInterval)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil

	case TodosLoadedMsg:
		m.Loading = false
		m.List.SetLoading(false)
		if msg.Err != nil {
			return m, m.setError("Load failed", msg.Err)
		}
		m.refresh()
		return m, m.setStatus(fmt.Sprintf("Loaded %d todos", len(m.Snapshot.Items)))

	case TodoAddedMsg:
		m.settled()
		if msg.Err != nil {
			return m, m.setError("Add failed", msg.Err)
		}
		m.refresh()
		m.selectID(msg.Todo.ID)
		return m, m.setStatus("Added")

	case TodoEditedMsg:
		m.settled()
		m.refresh()
		if msg.Err != nil {
			return m, m.setError("Edit failed", msg.Err)
		}
		return m, m.setStatus("Saved")

	case ToggleSettledMsg:
		m.settled()
		m.refresh()
		if msg.Err != nil {
			return m, m.setError("Update failed, change reverted", msg.Err)
		}
		return m, nil

	case RemoveSettledMsg:
		m.settled()
		m.refresh()
		if msg.Err != nil {
			return m, m.setError("Remove failed", msg.Err)
		}
		return m, m.setStatus("Removed")

	case ClearSettledMsg:
		m.settled()
		m.refresh()
		if msg.Err != nil {
			return m, m.setError(fmt.Sprintf("Cleared %d of %d", msg.Removed, msg.Requested), msg.Err)
		}
		return m, m.setStatus(fmt.Sprintf("Cleared %d completed", msg.Removed))
	}

	if m.State == StateInput {
		var cmd tea.Cmd
		m.Input, cmd, _ = m.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh re-reads the mirror after the synchronizer changed it
func (m *Model) refresh() {
	m.Snapshot = m.Sync.Snapshot()
	m.List.SetItems(m.Snapshot.Items)
	m.Sessions.Prune(m.Snapshot.Todos())
}

func (m *Model) settled() {
	if m.InFlight > 0 {
		m.InFlight--
	}
}

func (m *Model) selectID(id string) {
	for i, it := range m.Snapshot.Items {
		if it.ID == id {
			m.List.SetSelectedIndex(i)
			return
		}
	}
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = false
	return ClearStatusCmd(m.statusSeq, statusTTL)
}

// setError keeps the message until the next status replaces it
func (m *Model) setError(prefix string, err error) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = prefix + ": " + describeError(err)
	m.StatusIsErr = true
	return nil
}

// describeError turns the error taxonomy into short user-facing text
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "todo no longer exists, press r to reload"
	case errors.Is(err, domain.ErrTransport):
		return "request failed (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
