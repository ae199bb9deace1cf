package session

import (
	"slices"
	"sync"

	"finance-tracker/internal/ledger"

	"github.com/google/uuid"
)

type entry struct {
	tx ledger.Transaction
	// key identifies a pending record until the backend assigns an ID.
	key string
}

// Store is the in-memory snapshot of a user's transactions. Readers always
// see a complete snapshot; every mutation happens under the lock.
type Store struct {
	mu      sync.RWMutex
	entries []entry
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current transactions in store order.
func (s *Store) Snapshot() []ledger.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Transaction, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.tx.Clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Replace swaps the whole snapshot with txs. Pending records are kept.
func (s *Store) Replace(txs []ledger.Transaction) {
	entries := make([]entry, 0, len(txs))
	for _, t := range txs {
		entries = append(entries, entry{tx: t.Clone()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.key != "" {
			entries = append(entries, e)
		}
	}
	s.entries = entries
}

// AddPending appends a record that has not been confirmed by the backend and
// returns the key used to confirm or discard it.
func (s *Store) AddPending(t ledger.Transaction) string {
	key := uuid.NewString()
	t = t.Clone()
	t.ID = ""

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{tx: t, key: key})
	return key
}

// Confirm replaces a pending record with the persisted version.
func (s *Store) Confirm(key string, persisted ledger.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexKey(key)
	if i < 0 {
		return false
	}
	s.entries[i] = entry{tx: persisted.Clone()}
	return true
}

func (s *Store) Discard(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexKey(key)
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// Pending reports how many records await confirmation.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.key != "" {
			n++
		}
	}
	return n
}

func (s *Store) Get(id string) (ledger.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexID(id)
	if i < 0 {
		return ledger.Transaction{}, false
	}
	return s.entries[i].tx.Clone(), true
}

// Remove deletes the record with the given ID.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexID(id)
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// ApplyOccurrence appends a materialized occurrence and moves its parent's
// next due date forward.
func (s *Store) ApplyOccurrence(m ledger.Materialized) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexID(m.ParentID); i >= 0 && s.entries[i].tx.Recurrence != nil {
		s.entries[i].tx.Recurrence.NextDueDate = m.NextDueDate
	}
	if m.Occurrence.ID == "" || s.indexID(m.Occurrence.ID) < 0 {
		s.entries = append(s.entries, entry{tx: m.Occurrence.Clone()})
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *Store) indexID(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.entries, func(e entry) bool { return e.key == "" && e.tx.ID == id })
}

func (s *Store) indexKey(key string) int {
	return slices.IndexFunc(s.entries, func(e entry) bool { return e.key == key })
}
