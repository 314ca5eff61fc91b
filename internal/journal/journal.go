// Package journal keeps a bounded log of settled to-do operations in BoltDB.
// It never stores the collection itself.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/todos/internal/domain"
)

// DefaultMaxEntries bounds how many entries are kept
const DefaultMaxEntries = 1000

var bucketActivity = []byte("activity")

// Journal implements domain.ActivityRecorder.
type Journal struct {
	db  *bolt.DB
	mu  sync.Mutex
	max uint64
	now func() time.Time

	// Memory-only mode
	mem []domain.Activity
	seq uint64
}

var _ domain.ActivityRecorder = (*Journal)(nil)

// Open opens the journal at path, creating it if needed.
// An empty path gives a memory-only journal.
func Open(path string) (*Journal, error) {
	j := &Journal{max: DefaultMaxEntries, now: time.Now}
	if path == "" {
		return j, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketActivity)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	j.db = db
	return j, nil
}

// SetMaxEntries changes the retention bound (minimum 1)
func (j *Journal) SetMaxEntries(n int) {
	if n < 1 {
		n = 1
	}
	j.mu.Lock()
	j.max = uint64(n)
	j.mu.Unlock()
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Record appends an entry, stamping Seq and (if unset) At
func (j *Journal) Record(entry domain.Activity) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.At.IsZero() {
		entry.At = j.now()
	}

	if j.db == nil {
		j.seq++
		entry.Seq = j.seq
		j.mem = append(j.mem, entry)
		if over := len(j.mem) - int(j.max); over > 0 {
			j.mem = append([]domain.Activity(nil), j.mem[over:]...)
		}
		return nil
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivity)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		entry.Seq = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put(itob(seq), data); err != nil {
			return err
		}

		// Drop everything that fell out of the retention window. Keys are
		// collected first; deleting under a cursor skips the next key.
		var expired [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && binary.BigEndian.Uint64(k)+j.max <= seq; k, _ = c.Next() {
			expired = append(expired, append([]byte(nil), k...))
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (j *Journal) Recent(n int) ([]domain.Activity, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []domain.Activity

	if j.db == nil {
		for i := len(j.mem) - 1; i >= 0; i-- {
			if n > 0 && len(out) == n {
				break
			}
			out = append(out, j.mem[i])
		}
		return out, nil
	}

	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketActivity).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(out) == n {
				break
			}
			var entry domain.Activity
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt journal entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
