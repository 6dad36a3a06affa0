package pager

import (
	"fmt"
	"log"
	"sync"

	"scriptbot/internal/storage"
)

const Table = "pager"

// Store persists pagination records keyed by message id. Mutations on the
// same key are serialized through a per-key mutex so two rapid clicks on the
// same message read-modify-write in sequence instead of racing.
type Store struct {
	db *storage.Storage

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(db *storage.Storage) *Store {
	return &Store{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

func (st *Store) keyLock(messageID string) *sync.Mutex {
	st.mu.Lock()
	defer st.mu.Unlock()
	lock, ok := st.locks[messageID]
	if !ok {
		lock = &sync.Mutex{}
		st.locks[messageID] = lock
	}
	return lock
}

// Get reads a record. A miss is "no data", not an error.
func (st *Store) Get(messageID string) (*Record, bool, error) {
	rec := &Record{}
	found, err := st.db.GetJSON(Table, messageID, rec)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return rec, true, nil
}

// Create starts a record with its first answer.
func (st *Store) Create(messageID string, first Answer) (*Record, error) {
	lock := st.keyLock(messageID)
	lock.Lock()
	defer lock.Unlock()

	rec := &Record{Answers: []Answer{first}, Index: 0}
	if err := st.db.SetJSON(Table, messageID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// mutate runs fn over the stored record and writes it back, unless the
// record is already soft-deleted, in which case nothing changes.
func (st *Store) mutate(messageID string, fn func(*Record)) (*Record, error) {
	lock := st.keyLock(messageID)
	lock.Lock()
	defer lock.Unlock()

	rec, found, err := st.Get(messageID)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Printf("[WARN] Pagination record missing for message %s", messageID)
		return nil, fmt.Errorf("no pagination record for message %s", messageID)
	}
	if rec.Deleted {
		return rec, nil
	}

	fn(rec)
	rec.clampIndex()

	if err := st.db.SetJSON(Table, messageID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Append adds a freshly generated answer and jumps to it.
func (st *Store) Append(messageID string, ans Answer) (*Record, error) {
	return st.mutate(messageID, func(rec *Record) {
		rec.Answers = append(rec.Answers, ans)
		rec.Index = len(rec.Answers) - 1
	})
}

// Navigate moves the current index by dir, clamped to the answer bounds.
// Navigating past an edge is a no-op, never an error.
func (st *Store) Navigate(messageID string, dir int) (*Record, error) {
	return st.mutate(messageID, func(rec *Record) {
		rec.Index += dir
	})
}

// Attach merges files into the current answer using the given method.
func (st *Store) Attach(messageID string, files []Attachment, method AttachMethod) (*Record, error) {
	return st.mutate(messageID, func(rec *Record) {
		if len(rec.Answers) == 0 {
			return
		}
		rec.Answers[rec.Index].Files = mergeFiles(rec.Answers[rec.Index].Files, files, method)
	})
}

// Cancel soft-deletes the record. The history is retained so a concurrent
// in-flight task can still see the flag; the operation is idempotent.
func (st *Store) Cancel(messageID string) (*Record, error) {
	lock := st.keyLock(messageID)
	lock.Lock()
	defer lock.Unlock()

	rec, found, err := st.Get(messageID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no pagination record for message %s", messageID)
	}
	if rec.Deleted {
		return rec, nil
	}

	rec.Deleted = true
	if err := st.db.SetJSON(Table, messageID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
