package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/todos/internal/domain"
)

func seeded(items ...domain.Todo) *Mirror {
	m := New()
	m.Replace(items)
	return m
}

func todos(m *Mirror) []domain.Todo {
	return m.Snapshot().Todos()
}

func TestReplace(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		m := seeded()
		assert.Empty(t, todos(m))
		assert.Zero(t, m.IncompleteCount())
	})

	t.Run("CountsIncomplete", func(t *testing.T) {
		m := seeded(
			domain.Todo{ID: "1", Body: "a"},
			domain.Todo{ID: "2", Body: "b", Completed: true},
			domain.Todo{ID: "3", Body: "c"},
		)
		assert.Len(t, todos(m), 3)
		assert.Equal(t, 2, m.IncompleteCount())
		assert.Equal(t, domain.CountIncomplete(todos(m)), m.IncompleteCount())
	})

	t.Run("DropsDuplicateIDs", func(t *testing.T) {
		m := seeded(
			domain.Todo{ID: "1", Body: "first"},
			domain.Todo{ID: "1", Body: "second"},
		)
		require.Len(t, todos(m), 1)
		got, _ := m.Get("1")
		assert.Equal(t, "first", got.Body)
	})

	t.Run("InvalidatesInFlightOps", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1", Body: "milk"})
		op, err := m.BeginToggle("1", true)
		require.NoError(t, err)

		m.Replace([]domain.Todo{{ID: "1", Body: "milk"}})
		assert.False(t, m.Rollback(op))
		got, _ := m.Get("1")
		assert.False(t, got.Completed)
	})
}

func TestAppendAndSetBody(t *testing.T) {
	m := seeded(domain.Todo{ID: "1", Body: "milk"})

	m.Append(domain.Todo{ID: "2", Body: "eggs"})
	assert.Equal(t, 2, m.IncompleteCount())
	assert.Equal(t, "2", todos(m)[1].ID)

	m.Append(domain.Todo{ID: "2", Body: "eggs!"})
	assert.Len(t, todos(m), 2, "known id is replaced, not duplicated")

	require.NoError(t, m.SetBody("1", "oat milk"))
	got, _ := m.Get("1")
	assert.Equal(t, domain.Todo{ID: "1", Body: "oat milk"}, got)

	err := m.SetBody("9", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggle(t *testing.T) {
	t.Run("ImmediateCount", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1", Body: "milk"})
		op, err := m.BeginToggle("1", true)
		require.NoError(t, err)

		assert.Zero(t, m.IncompleteCount(), "count changes before the server answers")
		assert.Len(t, m.Pending(), 1)
		assert.True(t, m.Snapshot().Items[0].Syncing)

		assert.True(t, m.Confirm(op, domain.Todo{ID: "1", Body: "milk", Completed: true}))
		got, _ := m.Get("1")
		assert.True(t, got.Completed)
		assert.Empty(t, m.Pending())
	})

	t.Run("SameValueKeepsCount", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1", Completed: true})
		_, err := m.BeginToggle("1", true)
		require.NoError(t, err)
		assert.Zero(t, m.IncompleteCount())
	})

	t.Run("UnknownID", func(t *testing.T) {
		m := seeded()
		_, err := m.BeginToggle("1", true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, m.Pending())
	})

	t.Run("RollbackRestores", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1", Body: "milk"})
		op, _ := m.BeginToggle("1", true)

		assert.True(t, m.Rollback(op))
		got, _ := m.Get("1")
		assert.False(t, got.Completed)
		assert.Equal(t, 1, m.IncompleteCount())
	})

	t.Run("AdoptsServerValue", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		op, _ := m.BeginToggle("1", true)
		m.Confirm(op, domain.Todo{ID: "1", Completed: false})
		assert.Equal(t, 1, m.IncompleteCount())
	})

	t.Run("LatestIntentWins", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		first, _ := m.BeginToggle("1", true)
		second, _ := m.BeginToggle("1", false)

		// Second settles first, then the stale first one fails
		assert.True(t, m.Confirm(second, domain.Todo{ID: "1", Completed: false}))
		assert.False(t, m.Rollback(first))

		got, _ := m.Get("1")
		assert.False(t, got.Completed)
		assert.Equal(t, 1, m.IncompleteCount())
		assert.Empty(t, m.Pending())
	})

	t.Run("StaleConfirmIgnored", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		first, _ := m.BeginToggle("1", true)
		_, _ = m.BeginToggle("1", false)

		assert.False(t, m.Confirm(first, domain.Todo{ID: "1", Completed: true}))
		got, _ := m.Get("1")
		assert.False(t, got.Completed)
	})

	t.Run("BothFailRestoresServerValue", func(t *testing.T) {
		for _, order := range []string{"oldest first", "newest first"} {
			t.Run(order, func(t *testing.T) {
				m := seeded(domain.Todo{ID: "1"})
				first, _ := m.BeginToggle("1", true)
				second, _ := m.BeginToggle("1", false)

				if order == "oldest first" {
					m.Rollback(first)
					m.Rollback(second)
				} else {
					m.Rollback(second)
					m.Rollback(first)
				}

				got, _ := m.Get("1")
				assert.False(t, got.Completed)
				assert.Equal(t, 1, m.IncompleteCount())
				assert.Empty(t, m.Pending())
			})
		}
	})

	t.Run("NewestFailsAfterOlderConfirmed", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		first, _ := m.BeginToggle("1", true)
		second, _ := m.BeginToggle("1", false)

		assert.False(t, m.Confirm(first, domain.Todo{ID: "1", Completed: true}))
		assert.True(t, m.Rollback(second))

		got, _ := m.Get("1")
		assert.True(t, got.Completed)
		assert.Zero(t, m.IncompleteCount())
	})

	t.Run("OlderConfirmAfterNewestFailed", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		first, _ := m.BeginToggle("1", true)
		second, _ := m.BeginToggle("1", false)

		assert.False(t, m.Rollback(second), "shows the confirmed false already")
		assert.True(t, m.Confirm(first, domain.Todo{ID: "1", Completed: true}))

		got, _ := m.Get("1")
		assert.True(t, got.Completed)
		assert.Zero(t, m.IncompleteCount())
	})

	t.Run("BaselineFollowsReload", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		m.Replace([]domain.Todo{{ID: "1", Completed: true}})

		op, _ := m.BeginToggle("1", false)
		assert.True(t, m.Rollback(op))
		got, _ := m.Get("1")
		assert.True(t, got.Completed)
	})

	t.Run("SettleTwiceIsNoop", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		op, _ := m.BeginToggle("1", true)
		assert.True(t, m.Confirm(op, domain.Todo{ID: "1", Completed: true}))
		assert.False(t, m.Rollback(op))
		got, _ := m.Get("1")
		assert.True(t, got.Completed)
	})
}

func TestRemove(t *testing.T) {
	t.Run("CountDropsBeforeConfirm", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1", Body: "milk"}, domain.Todo{ID: "2", Body: "eggs"})
		op := m.BeginRemove(domain.Todo{ID: "1"})

		assert.Equal(t, 1, m.IncompleteCount())
		assert.Len(t, todos(m), 2, "entry stays until confirmed")
		assert.True(t, m.Snapshot().Items[0].Removing)

		assert.True(t, m.Confirm(op, domain.Todo{ID: "1", Body: "milk"}))
		_, ok := m.Get("1")
		assert.False(t, ok)
		assert.Equal(t, 1, m.IncompleteCount())
	})

	t.Run("CompletedItemKeepsCount", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1", Completed: true}, domain.Todo{ID: "2"})
		m.BeginRemove(domain.Todo{ID: "1", Completed: true})
		assert.Equal(t, 1, m.IncompleteCount())
	})

	t.Run("UsesServerID", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"}, domain.Todo{ID: "2"})
		op := m.BeginRemove(domain.Todo{ID: "1"})

		m.Confirm(op, domain.Todo{ID: "2"})
		_, ok := m.Get("2")
		assert.False(t, ok)
		_, ok = m.Get("1")
		assert.True(t, ok)
		assert.False(t, m.IsRemoving("1"))
		assert.Equal(t, 1, m.IncompleteCount())
	})

	t.Run("EmptyServerIDFallsBack", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		op := m.BeginRemove(domain.Todo{ID: "1"})
		m.Confirm(op, domain.Todo{})
		assert.Empty(t, todos(m))
	})

	t.Run("RollbackRestoresCount", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"})
		op := m.BeginRemove(domain.Todo{ID: "1"})
		assert.Zero(t, m.IncompleteCount())

		assert.True(t, m.Rollback(op))
		assert.Equal(t, 1, m.IncompleteCount())
		assert.False(t, m.IsRemoving("1"))
	})

	t.Run("DoubleRemoveCountsOnce", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "1"}, domain.Todo{ID: "2"})
		first := m.BeginRemove(domain.Todo{ID: "1"})
		second := m.BeginRemove(domain.Todo{ID: "1"})
		assert.Equal(t, 1, m.IncompleteCount())

		m.Confirm(first, domain.Todo{ID: "1"})
		assert.False(t, m.Rollback(second), "item already gone")
		assert.Len(t, todos(m), 1)
		assert.Equal(t, 1, m.IncompleteCount())
	})

	t.Run("NotInMirror", func(t *testing.T) {
		m := seeded(domain.Todo{ID: "2"})
		op := m.BeginRemove(domain.Todo{ID: "1"})
		assert.Equal(t, 1, m.IncompleteCount())
		assert.False(t, m.Confirm(op, domain.Todo{ID: "1"}))
		assert.Len(t, todos(m), 1)
	})
}

func TestCompletedIDs(t *testing.T) {
	m := seeded(
		domain.Todo{ID: "1", Completed: true},
		domain.Todo{ID: "2"},
		domain.Todo{ID: "3", Completed: true},
	)
	m.BeginRemove(domain.Todo{ID: "3"})
	assert.Equal(t, []string{"1"}, m.CompletedIDs())
}

func TestSnapshotIsCopy(t *testing.T) {
	m := seeded(domain.Todo{ID: "1", Body: "milk"})
	snap := m.Snapshot()
	snap.Items[0].Body = "changed"

	got, _ := m.Get("1")
	assert.Equal(t, "milk", got.Body)
	assert.Equal(t, []domain.Todo{{ID: "1", Body: "changed"}}, snap.Todos())
}
