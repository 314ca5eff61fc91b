package domain

import "context"

// TodoRepository is the remote collection of to-do items.
// Implementations perform exactly one request per call and never retry.
type TodoRepository interface {
	// FetchAll returns the full current collection
	FetchAll(ctx context.Context) ([]Todo, error)

	// Create submits a new incomplete todo and returns it with its server-assigned ID
	Create(ctx context.Context, body string) (Todo, error)

	// Update applies a partial update and returns the updated representation
	Update(ctx context.Context, id string, patch Patch) (Todo, error)

	// Delete removes a todo and returns its last known representation
	Delete(ctx context.Context, id string) (Todo, error)
}

// ActivityRecorder receives one entry per settled operation.
type ActivityRecorder interface {
	Record(entry Activity) error
}

// NoOpRecorder discards activity (for tests and one-shot commands).
type NoOpRecorder struct{}

func (NoOpRecorder) Record(Activity) error { return nil }
