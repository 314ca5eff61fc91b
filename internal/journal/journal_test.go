package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/todos/internal/domain"
)

func openBoth(t *testing.T) map[string]*Journal {
	t.Helper()
	disk, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	mem, err := Open("")
	require.NoError(t, err)

	return map[string]*Journal{"Disk": disk, "Memory": mem}
}

func TestRecordAndRecent(t *testing.T) {
	for name, j := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, j.Record(domain.Activity{Op: domain.OpAdd, ItemID: "1", Body: "milk", Outcome: domain.OutcomeOK}))
			require.NoError(t, j.Record(domain.Activity{Op: domain.OpToggle, ItemID: "1", Outcome: domain.OutcomeRolledBack, Error: "boom"}))

			all, err := j.Recent(0)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, domain.OpToggle, all[0].Op, "newest first")
			assert.Equal(t, uint64(2), all[0].Seq)
			assert.Equal(t, "boom", all[0].Error)
			assert.False(t, all[1].At.IsZero())

			one, err := j.Recent(1)
			require.NoError(t, err)
			assert.Len(t, one, 1)
		})
	}
}

func TestRetention(t *testing.T) {
	for name, j := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			j.SetMaxEntries(3)
			for i := 0; i < 5; i++ {
				require.NoError(t, j.Record(domain.Activity{Op: domain.OpLoad, Outcome: domain.OutcomeOK}))
			}
			all, err := j.Recent(0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, uint64(5), all[0].Seq)
			assert.Equal(t, uint64(3), all[2].Seq)
		})
	}
}

func TestShrinkingRetentionPrunesBacklog(t *testing.T) {
	for name, j := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				require.NoError(t, j.Record(domain.Activity{Op: domain.OpLoad, Outcome: domain.OutcomeOK}))
			}
			j.SetMaxEntries(3)
			require.NoError(t, j.Record(domain.Activity{Op: domain.OpAdd, Outcome: domain.OutcomeOK}))

			all, err := j.Recent(0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			seqs := []uint64{all[0].Seq, all[1].Seq, all[2].Seq}
			assert.Equal(t, []uint64{11, 10, 9}, seqs)
		})
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(domain.Activity{At: at, Op: domain.OpRemove, ItemID: "7", Outcome: domain.OutcomeOK}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	all, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, at.Equal(all[0].At))
	assert.Equal(t, "7", all[0].ItemID)
}
