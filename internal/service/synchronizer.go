package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/mirror"
)

// maxConcurrentDeletes bounds the fan-out of ClearCompleted
const maxConcurrentDeletes = 8

// Synchronizer keeps the local mirror consistent with the remote collection.
// It is the only writer of its mirror. The lock is never held across a
// network call, so the UI may read snapshots while requests are in flight.
type Synchronizer struct {
	repo     domain.TodoRepository
	recorder domain.ActivityRecorder
	logger   *slog.Logger

	mu     sync.Mutex
	mirror *mirror.Mirror
}

// NewSynchronizer creates a synchronizer with an empty mirror
func NewSynchronizer(
	repo domain.TodoRepository,
	recorder domain.ActivityRecorder,
	logger *slog.Logger,
) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = domain.NoOpRecorder{}
	}
	return &Synchronizer{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		mirror:   mirror.New(),
	}
}

// Snapshot returns a copy of the mirror for rendering
func (s *Synchronizer) Snapshot() mirror.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Snapshot()
}

// Load fetches the full collection and replaces the mirror.
// On failure the mirror is left as it was.
func (s *Synchronizer) Load(ctx context.Context) error {
	todos, err := s.repo.FetchAll(ctx)
	if err != nil {
		s.logger.Error("failed to load todos", "error", err)
		s.record(domain.Activity{Op: domain.OpLoad}, domain.OutcomeFailed, err)
		return err
	}

	s.mu.Lock()
	stale := s.mirror.Pending()
	s.mirror.Replace(todos)
	count := s.mirror.IncompleteCount()
	s.mu.Unlock()

	if len(stale) > 0 {
		s.logger.Debug("reload supersedes in-flight operations", "pending", len(stale), "oldest", stale[0].Kind.String())
	}
	s.logger.Info("loaded todos", "count", len(todos), "incomplete", count)
	s.record(domain.Activity{Op: domain.OpLoad}, domain.OutcomeOK, nil)
	return nil
}

// AddItem creates a todo on the server and appends it once confirmed.
// Blank text is rejected without a request.
func (s *Synchronizer) AddItem(ctx context.Context, text string) (domain.Todo, error) {
	body := domain.NormalizeBody(text)
	if body == "" {
		return domain.Todo{}, fmt.Errorf("%w: todo text is empty", domain.ErrValidation)
	}

	created, err := s.repo.Create(ctx, body)
	if err != nil {
		s.logger.Error("failed to add todo", "error", err, "body", body)
		s.record(domain.Activity{Op: domain.OpAdd, Body: body}, domain.OutcomeFailed, err)
		return domain.Todo{}, err
	}

	s.mu.Lock()
	s.mirror.Append(created)
	s.mu.Unlock()

	s.logger.Info("added todo", "id", created.ID)
	s.record(domain.Activity{Op: domain.OpAdd, ItemID: created.ID, Body: created.Body}, domain.OutcomeOK, nil)
	return created, nil
}

// EditItem replaces a todo's body on the server, then locally. A confirmed
// edit for an id the mirror no longer holds fails with domain.ErrNotFound.
func (s *Synchronizer) EditItem(ctx context.Context, id, text string) (domain.Todo, error) {
	body := domain.NormalizeBody(text)
	if body == "" {
		return domain.Todo{}, fmt.Errorf("%w: todo text is empty", domain.ErrValidation)
	}
	entry := domain.Activity{Op: domain.OpEdit, ItemID: id, Body: body}

	updated, err := s.repo.Update(ctx, id, domain.BodyPatch(body))
	if err != nil {
		s.logger.Error("failed to edit todo", "error", err, "id", id)
		s.record(entry, domain.OutcomeFailed, err)
		return domain.Todo{}, err
	}
	if updated.Body != "" {
		body = updated.Body
	}

	s.mu.Lock()
	err = s.mirror.SetBody(id, body)
	local, _ := s.mirror.Get(id)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("edited todo missing from local list", "id", id)
		s.record(entry, domain.OutcomeFailed, err)
		return updated, err
	}

	s.logger.Info("edited todo", "id", id)
	s.record(entry, domain.OutcomeOK, nil)
	return local, nil
}

// BeginToggle applies a completed change locally and returns the pending op
// to hand to SettleToggle. Unknown ids fail with domain.ErrNotFound.
func (s *Synchronizer) BeginToggle(id string, completed bool) (*mirror.PendingOp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, err := s.mirror.BeginToggle(id, completed)
	if err != nil {
		s.logger.Warn("toggle of unknown todo", "id", id)
		return nil, err
	}
	return op, nil
}

// SettleToggle sends the update for op and returns the server's completed value.
// On failure the local change is rolled back and the value now shown is returned.
func (s *Synchronizer) SettleToggle(ctx context.Context, op *mirror.PendingOp) (bool, error) {
	entry := domain.Activity{Op: domain.OpToggle, ItemID: op.ItemID, Body: op.Prev.Body}

	updated, err := s.repo.Update(ctx, op.ItemID, domain.CompletedPatch(op.Completed))

	s.mu.Lock()
	if err != nil {
		reverted := s.mirror.Rollback(op)
		shown, _ := s.mirror.Get(op.ItemID)
		s.mu.Unlock()

		s.logger.Error("failed to toggle todo", "error", err, "id", op.ItemID, "reverted", reverted)
		s.record(entry, failureOutcome(reverted), err)
		return shown.Completed, err
	}
	s.mirror.Confirm(op, updated)
	s.mu.Unlock()

	s.logger.Info("toggled todo", "id", op.ItemID, "completed", updated.Completed)
	s.record(entry, domain.OutcomeOK, nil)
	return updated.Completed, nil
}

// ToggleComplete sets an item's completed flag optimistically and waits for
// the server to confirm it.
func (s *Synchronizer) ToggleComplete(ctx context.Context, id string, completed bool) (bool, error) {
	op, err := s.BeginToggle(id, completed)
	if err != nil {
		return false, err
	}
	return s.SettleToggle(ctx, op)
}

// BeginRemove marks item pending removal and returns the op for SettleRemove
func (s *Synchronizer) BeginRemove(item domain.Todo) *mirror.PendingOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.BeginRemove(item)
}

// SettleRemove deletes op's item on the server and drops the entry matching
// the id the server returned. On failure the removal mark is rolled back,
// except when the server reports the item gone: then it is dropped locally
// and the error is still returned.
func (s *Synchronizer) SettleRemove(ctx context.Context, op *mirror.PendingOp) (domain.Todo, error) {
	return s.settleRemove(ctx, op, domain.OpRemove)
}

func (s *Synchronizer) settleRemove(ctx context.Context, op *mirror.PendingOp, kind domain.Op) (domain.Todo, error) {
	entry := domain.Activity{Op: kind, ItemID: op.ItemID, Body: op.Prev.Body}

	deleted, err := s.repo.Delete(ctx, op.ItemID)

	s.mu.Lock()
	if errors.Is(err, domain.ErrNotFound) {
		s.mirror.Confirm(op, domain.Todo{ID: op.ItemID})
		s.mu.Unlock()

		s.logger.Warn("todo already gone from server", "id", op.ItemID)
		s.record(entry, domain.OutcomeFailed, err)
		return domain.Todo{}, err
	}
	if err != nil {
		reverted := s.mirror.Rollback(op)
		s.mu.Unlock()

		s.logger.Error("failed to remove todo", "error", err, "id", op.ItemID, "reverted", reverted)
		s.record(entry, failureOutcome(reverted), err)
		return domain.Todo{}, err
	}
	s.mirror.Confirm(op, deleted)
	s.mu.Unlock()

	if deleted.ID != "" && deleted.ID != op.ItemID {
		s.logger.Warn("server removed a different todo", "requested", op.ItemID, "removed", deleted.ID)
	}
	s.logger.Info("removed todo", "id", op.ItemID)
	s.record(entry, domain.OutcomeOK, nil)
	return deleted, nil
}

// RemoveItem deletes item, dropping it from the incomplete count before the
// server answers.
func (s *Synchronizer) RemoveItem(ctx context.Context, item domain.Todo) (domain.Todo, error) {
	return s.SettleRemove(ctx, s.BeginRemove(item))
}

// BeginClear marks every completed item pending removal
func (s *Synchronizer) BeginClear() []*mirror.PendingOp {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.mirror.CompletedIDs()
	ops := make([]*mirror.PendingOp, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, s.mirror.BeginRemove(domain.Todo{ID: id, Completed: true}))
	}
	return ops
}

// SettleClear issues the deletes for ops concurrently. Each item is dropped
// as soon as its own delete is confirmed; failures are rolled back and joined.
// It returns how many items were removed.
func (s *Synchronizer) SettleClear(ctx context.Context, ops []*mirror.PendingOp) (int, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	var (
		mu      sync.Mutex
		removed int
	)
	p := pool.New().WithErrors().WithMaxGoroutines(maxConcurrentDeletes)
	for _, op := range ops {
		p.Go(func() error {
			if _, err := s.settleRemove(ctx, op, domain.OpClear); err != nil {
				return fmt.Errorf("remove %s: %w", op.ItemID, err)
			}
			mu.Lock()
			removed++
			mu.Unlock()
			return nil
		})
	}
	err := p.Wait()

	s.logger.Info("cleared completed todos", "removed", removed, "requested", len(ops))
	return removed, err
}

// ClearCompleted deletes every completed item
func (s *Synchronizer) ClearCompleted(ctx context.Context) (int, error) {
	return s.SettleClear(ctx, s.BeginClear())
}

// failureOutcome tells a reverted local change from one a newer intent superseded
func failureOutcome(reverted bool) domain.Outcome {
	if reverted {
		return domain.OutcomeRolledBack
	}
	return domain.OutcomeFailed
}

func (s *Synchronizer) record(entry domain.Activity, outcome domain.Outcome, err error) {
	entry.Outcome = outcome
	if err != nil {
		entry.Error = err.Error()
	}
	if rerr := s.recorder.Record(entry); rerr != nil {
		s.logger.Warn("failed to record activity", "error", rerr, "op", entry.Op)
	}
}

