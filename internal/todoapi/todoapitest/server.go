// Package todoapitest runs an in-memory to-do REST collection for tests.
package todoapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mmcdole/todos/internal/domain"
)

// CollectionPath is where the fake serves the collection
const CollectionPath = "/todos"

// Call is one request received by the server
type Call struct {
	Method string
	ID     string
}

type record struct {
	ID        string `json:"_id"`
	Body      string `json:"body"`
	Completed bool   `json:"completed"`
}

type patchRecord struct {
	Body      *string `json:"body"`
	Completed *bool   `json:"completed"`
}

// Server is an httptest server holding todos in insertion order.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	todos    []record
	calls    []Call
	failures map[string][]int
}

// NewServer starts a server; callers must Close it.
func NewServer() *Server {
	s := &Server{failures: make(map[string][]int)}

	r := mux.NewRouter()
	r.HandleFunc(CollectionPath, s.handleList).Methods(http.MethodGet)
	r.HandleFunc(CollectionPath, s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc(CollectionPath+"/{id}", s.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc(CollectionPath+"/{id}", s.handleDelete).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	return s
}

// CollectionURL is the base URL to hand to a client
func (s *Server) CollectionURL() string {
	return s.URL + CollectionPath
}

// Seed replaces the stored collection. Todos without an ID get one.
func (s *Server) Seed(todos ...domain.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = s.todos[:0]
	for _, t := range todos {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		s.todos = append(s.todos, record{ID: t.ID, Body: t.Body, Completed: t.Completed})
	}
}

// Todos returns a copy of the stored collection
func (s *Server) Todos() []domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Todo, len(s.todos))
	for i, r := range s.todos {
		out[i] = domain.Todo{ID: r.ID, Body: r.Body, Completed: r.Completed}
	}
	return out
}

// Calls returns the requests seen so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor returns the requests with the given method
func (s *Server) CallsFor(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// FailNext makes the next request with method answer status instead
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], status)
}

// begin records the call and reports whether a queued failure was written
func (s *Server) begin(w http.ResponseWriter, r *http.Request) bool {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, ID: id})
	queued := s.failures[r.Method]
	if len(queued) == 0 {
		s.mu.Unlock()
		return false
	}
	status := queued[0]
	s.failures[r.Method] = queued[1:]
	s.mu.Unlock()

	http.Error(w, http.StatusText(status), status)
	return true
}

func (s *Server) indexOf(id string) int {
	for i, r := range s.todos {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r) {
		return
	}
	s.mu.Lock()
	out := append([]record{}, s.todos...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r) {
		return
	}
	var in record
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Body) == "" {
		http.Error(w, "body is required", http.StatusUnprocessableEntity)
		return
	}
	rec := record{ID: uuid.NewString(), Body: in.Body, Completed: in.Completed}

	s.mu.Lock()
	s.todos = append(s.todos, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r) {
		return
	}
	var pr patchRecord
	if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	patch := domain.Patch{Body: pr.Body, Completed: pr.Completed}
	if patch.IsEmpty() {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	i := s.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		s.mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	rec := s.todos[i]
	next := patch.Apply(domain.Todo{ID: rec.ID, Body: rec.Body, Completed: rec.Completed})
	rec = record{ID: next.ID, Body: next.Body, Completed: next.Completed}
	s.todos[i] = rec
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r) {
		return
	}
	s.mu.Lock()
	i := s.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		s.mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	rec := s.todos[i]
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, rec)
}
