package domain

import "strings"

// Todo is a single to-do item as held by the remote store.
type Todo struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	Completed bool   `json:"completed"`
}

// Patch is a partial update. Nil fields are left untouched by the server.
type Patch struct {
	Body      *string
	Completed *bool
}

// BodyPatch returns a patch that only replaces the body
func BodyPatch(body string) Patch {
	return Patch{Body: &body}
}

// CompletedPatch returns a patch that only sets the completed flag
func CompletedPatch(completed bool) Patch {
	return Patch{Completed: &completed}
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Body == nil && p.Completed == nil
}

// Apply returns t with the patch fields applied
func (p Patch) Apply(t Todo) Todo {
	if p.Body != nil {
		t.Body = *p.Body
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// NormalizeBody trims surrounding whitespace from user-entered text
func NormalizeBody(body string) string {
	return strings.TrimSpace(body)
}

// CountIncomplete returns how many todos are not completed
func CountIncomplete(todos []Todo) int {
	n := 0
	for _, t := range todos {
		if !t.Completed {
			n++
		}
	}
	return n
}
