// Package mirror holds the local copy of the remote to-do collection.
//
// A Mirror is plain state with no I/O and no locking; a single owner
// (the synchronizer) serializes access. Optimistic changes are tracked as
// PendingOp records so they can be confirmed or rolled back once the server
// answers. Each item carries a generation per concern; a settle only applies
// when no later intent touched the same item, so the latest intent wins when
// responses arrive out of order. Each item also remembers the last completed
// value the server confirmed, which is what a failed latest toggle falls back
// to.
package mirror

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/todos/internal/domain"
)

// PendingKind is the kind of optimistic change awaiting the server
type PendingKind int

const (
	PendingToggle PendingKind = iota
	PendingRemove
)

func (k PendingKind) String() string {
	switch k {
	case PendingToggle:
		return "toggle"
	case PendingRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// PendingOp records an optimistic change that has not settled
type PendingOp struct {
	ID        string
	Kind      PendingKind
	ItemID    string
	Prev      domain.Todo // item before the change (zero if it was not in the mirror)
	Completed bool        // target value for toggles
	StartedAt time.Time

	gen   uint64
	epoch uint64 // load the op was issued against
}

// itemState tracks local mutation generations for one id
type itemState struct {
	toggleGen uint64
	removeGen uint64
	removing  bool

	confirmed    bool // last completed value the server acknowledged
	latestFailed bool // the newest toggle was rejected; show confirmed
}

// Mirror is the ordered local collection plus its pending operations.
type Mirror struct {
	items   []domain.Todo
	state   map[string]*itemState
	pending map[string]*PendingOp
	epoch   uint64
	now     func() time.Time
}

// New returns an empty mirror
func New() *Mirror {
	return &Mirror{
		state:   make(map[string]*itemState),
		pending: make(map[string]*PendingOp),
		now:     time.Now,
	}
}

func (m *Mirror) indexOf(id string) int {
	for i, t := range m.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Mirror) stateFor(id string) *itemState {
	st, ok := m.state[id]
	if !ok {
		st = &itemState{}
		m.state[id] = st
	}
	return st
}

// Replace swaps in a fresh server collection. Duplicate ids keep the first
// occurrence. Outstanding operations stay recorded but no longer apply.
func (m *Mirror) Replace(todos []domain.Todo) {
	items := make([]domain.Todo, 0, len(todos))
	seen := make(map[string]bool, len(todos))
	for _, t := range todos {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		items = append(items, t)
	}

	// Bump every generation so in-flight settles from before the load are ignored
	m.epoch++
	for _, st := range m.state {
		st.toggleGen++
		st.removeGen++
		st.removing = false
		st.latestFailed = false
	}
	for _, t := range items {
		m.stateFor(t.ID).confirmed = t.Completed
	}
	m.items = items
}

// Get returns the item with id
func (m *Mirror) Get(id string) (domain.Todo, bool) {
	if i := m.indexOf(id); i >= 0 {
		return m.items[i], true
	}
	return domain.Todo{}, false
}

// IsRemoving reports whether id has an unsettled removal
func (m *Mirror) IsRemoving(id string) bool {
	st, ok := m.state[id]
	return ok && st.removing
}

// IncompleteCount is the number of incomplete items not pending removal
func (m *Mirror) IncompleteCount() int {
	return domain.CountIncomplete(m.visible())
}

// visible returns the items not pending removal
func (m *Mirror) visible() []domain.Todo {
	out := make([]domain.Todo, 0, len(m.items))
	for _, t := range m.items {
		if !m.IsRemoving(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// Append adds a confirmed item. An item with a known id is replaced in place.
func (m *Mirror) Append(t domain.Todo) {
	m.stateFor(t.ID).confirmed = t.Completed
	if i := m.indexOf(t.ID); i >= 0 {
		m.items[i] = t
		return
	}
	m.items = append(m.items, t)
}

// SetBody replaces the body of a confirmed edit
func (m *Mirror) SetBody(id, body string) error {
	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s is not in the local list", domain.ErrNotFound, id)
	}
	m.items[i].Body = body
	return nil
}

// CompletedIDs returns ids of completed items not already pending removal
func (m *Mirror) CompletedIDs() []string {
	var ids []string
	for _, t := range m.visible() {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (m *Mirror) track(op *PendingOp) *PendingOp {
	op.ID = uuid.NewString()
	op.StartedAt = m.now()
	op.epoch = m.epoch
	m.pending[op.ID] = op
	cp := *op
	return &cp
}

// BeginToggle applies the new completed value immediately and records the
// pending update. Unknown ids fail with domain.ErrNotFound.
func (m *Mirror) BeginToggle(id string, completed bool) (*PendingOp, error) {
	i := m.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s is not in the local list", domain.ErrNotFound, id)
	}

	prev := m.items[i]
	m.items[i].Completed = completed

	st := m.stateFor(id)
	st.toggleGen++
	st.latestFailed = false

	return m.track(&PendingOp{
		Kind:      PendingToggle,
		ItemID:    id,
		Prev:      prev,
		Completed: completed,
		gen:       st.toggleGen,
	}), nil
}

// BeginRemove marks item pending removal, which drops it from the incomplete
// count. Items not in the mirror still get an op so the server delete can run.
func (m *Mirror) BeginRemove(item domain.Todo) *PendingOp {
	prev, _ := m.Get(item.ID)

	st := m.stateFor(item.ID)
	st.removeGen++
	st.removing = m.indexOf(item.ID) >= 0

	return m.track(&PendingOp{
		Kind:   PendingRemove,
		ItemID: item.ID,
		Prev:   prev,
		gen:    st.removeGen,
	})
}

// current reports whether op is still the latest intent for its item
func (m *Mirror) current(op *PendingOp) bool {
	st, ok := m.state[op.ItemID]
	if !ok {
		return false
	}
	switch op.Kind {
	case PendingToggle:
		return st.toggleGen == op.gen
	case PendingRemove:
		return st.removeGen == op.gen
	}
	return false
}

// Confirm settles op with the server's representation. Toggles adopt the
// server's completed value; removals drop the entry matching the server's id.
// It reports whether the mirror changed.
func (m *Mirror) Confirm(op *PendingOp, server domain.Todo) bool {
	if _, ok := m.pending[op.ID]; !ok {
		return false
	}
	delete(m.pending, op.ID)

	switch op.Kind {
	case PendingToggle:
		if op.epoch != m.epoch {
			return false
		}
		st := m.state[op.ItemID]
		st.confirmed = server.Completed
		if m.current(op) {
			m.setCompleted(op.ItemID, server.Completed)
			return true
		}
		if st.latestFailed {
			// An older toggle landed after the newest one was rejected
			return m.setCompleted(op.ItemID, st.confirmed)
		}
		return false

	case PendingRemove:
		removedID := server.ID
		if removedID == "" {
			removedID = op.ItemID
		}
		changed := false
		if i := m.indexOf(removedID); i >= 0 {
			m.items = append(m.items[:i], m.items[i+1:]...)
			changed = true
		}
		if st, ok := m.state[removedID]; ok {
			st.removing = false
		}
		if removedID != op.ItemID && m.current(op) {
			// Server removed something else; the requested item stays
			m.state[op.ItemID].removing = false
			changed = true
		}
		return changed
	}
	return false
}

// Rollback reverts op after a failed server call. A failed toggle restores
// the last server-confirmed value; nothing is reverted when a later intent
// touched the item. It reports whether the mirror changed.
func (m *Mirror) Rollback(op *PendingOp) bool {
	if _, ok := m.pending[op.ID]; !ok {
		return false
	}
	delete(m.pending, op.ID)

	if !m.current(op) {
		return false
	}

	switch op.Kind {
	case PendingToggle:
		st := m.state[op.ItemID]
		st.latestFailed = true
		return m.setCompleted(op.ItemID, st.confirmed)

	case PendingRemove:
		st := m.state[op.ItemID]
		if !st.removing {
			return false
		}
		st.removing = false
		return true
	}
	return false
}

func (m *Mirror) setCompleted(id string, completed bool) bool {
	i := m.indexOf(id)
	if i < 0 || m.items[i].Completed == completed {
		return false
	}
	m.items[i].Completed = completed
	return true
}

// Pending returns the unsettled operations, oldest first
func (m *Mirror) Pending() []PendingOp {
	ops := make([]PendingOp, 0, len(m.pending))
	for _, op := range m.pending {
		ops = append(ops, *op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].StartedAt.Equal(ops[j].StartedAt) {
			return ops[i].ID < ops[j].ID
		}
		return ops[i].StartedAt.Before(ops[j].StartedAt)
	})
	return ops
}

// ItemView is one row of a snapshot
type ItemView struct {
	domain.Todo
	Removing bool // delete issued, not yet confirmed
	Syncing  bool // any operation outstanding for this item
}

// Snapshot is an immutable copy of the mirror for rendering
type Snapshot struct {
	Items           []ItemView
	IncompleteCount int
	PendingCount    int
}

// Snapshot copies the current state
func (m *Mirror) Snapshot() Snapshot {
	busy := make(map[string]bool, len(m.pending))
	for _, op := range m.pending {
		busy[op.ItemID] = true
	}

	views := make([]ItemView, len(m.items))
	for i, t := range m.items {
		views[i] = ItemView{
			Todo:     t,
			Removing: m.IsRemoving(t.ID),
			Syncing:  busy[t.ID],
		}
	}
	return Snapshot{
		Items:           views,
		IncompleteCount: m.IncompleteCount(),
		PendingCount:    len(m.pending),
	}
}

// Todos returns the plain items of a snapshot
func (s Snapshot) Todos() []domain.Todo {
	out := make([]domain.Todo, len(s.Items))
	for i, v := range s.Items {
		out[i] = v.Todo
	}
	return out
}
