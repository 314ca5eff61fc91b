package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/logging"
)

func TestOpenJournal(t *testing.T) {
	t.Run("Disk", func(t *testing.T) {
		j, err := openJournal(filepath.Join(t.TempDir(), "journal.db"), logging.NullLogger())
		require.NoError(t, err)
		require.NotNil(t, j)
		defer j.Close()
		assert.NoError(t, j.Record(domain.Activity{Op: domain.OpLoad, Outcome: domain.OutcomeOK}))
	})

	t.Run("UnusablePathFallsBackToMemory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		j, err := openJournal(filepath.Join(blocker, "journal.db"), logging.NullLogger())
		require.NoError(t, err)
		require.NotNil(t, j)
		require.NoError(t, j.Record(domain.Activity{Op: domain.OpLoad, Outcome: domain.OutcomeOK}))

		entries, err := j.Recent(0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
