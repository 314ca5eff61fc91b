// Package edit tracks whether an item shows its body or its edit form.
package edit

import "github.com/mmcdole/todos/internal/domain"

// Mode is the display mode of one item
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// Session is the per-item view/edit state machine. The zero value is Viewing.
type Session struct {
	mode     Mode
	original string
	draft    string
}

// Mode returns the current mode
func (s *Session) Mode() Mode {
	return s.mode
}

// Editing reports whether the edit form is shown
func (s *Session) Editing() bool {
	return s.mode == Editing
}

// Toggle flips between Viewing and Editing. Leaving Editing this way keeps
// the draft but does not save it.
func (s *Session) Toggle() {
	if s.mode == Editing {
		s.mode = Viewing
		return
	}
	s.mode = Editing
}

// Begin enters Editing with the draft set to the current body
func (s *Session) Begin(body string) {
	s.mode = Editing
	s.original = body
	s.draft = body
}

// Draft returns the text being edited
func (s *Session) Draft() string {
	return s.draft
}

// SetDraft replaces the text being edited
func (s *Session) SetDraft(text string) {
	s.draft = text
}

// Save leaves Editing and returns the normalized draft. changed is false
// when no server call is needed: the draft is empty or equals the original.
func (s *Session) Save() (body string, changed bool) {
	s.mode = Viewing
	body = domain.NormalizeBody(s.draft)
	return body, body != "" && body != s.original
}

// Cancel leaves Editing and discards the draft. The prior body is retained.
func (s *Session) Cancel() {
	s.mode = Viewing
	s.draft = s.original
}

// Sessions holds one Session per item id
type Sessions struct {
	byID map[string]*Session
}

// NewSessions returns an empty registry
func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

// For returns the session for id, creating it in Viewing mode
func (r *Sessions) For(id string) *Session {
	s, ok := r.byID[id]
	if !ok {
		s = &Session{}
		r.byID[id] = s
	}
	return s
}

// CancelAll returns every session to Viewing
func (r *Sessions) CancelAll() {
	for _, s := range r.byID {
		if s.Editing() {
			s.Cancel()
		}
	}
}

// Prune forgets sessions for ids no longer present
func (r *Sessions) Prune(keep []domain.Todo) {
	live := make(map[string]bool, len(keep))
	for _, t := range keep {
		live[t.ID] = true
	}
	for id := range r.byID {
		if !live[id] {
			delete(r.byID, id)
		}
	}
}
