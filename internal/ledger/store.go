package ledger

import (
	"strings"
	"sync"
)

// Store holds the transaction collection and the ordered category sequence.
// It is the single source of truth consumed by the presentation layer and is
// safe for concurrent use. Every mutation is a single indivisible operation;
// after any of them, every transaction's category is a member of the current
// category sequence.
type Store struct {
	mu           sync.RWMutex
	transactions []*Transaction
	categories   []string
}

// NewStore creates a ledger with the given category sequence, falling back to
// DefaultCategories when none is given. Duplicates are dropped (first
// occurrence wins) and the fallback category is appended if missing.
func NewStore(categories ...string) *Store {
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	seen := make(map[string]bool, len(categories))
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cats = append(cats, c)
	}
	if !seen[FallbackCategory] {
		cats = append(cats, FallbackCategory)
	}

	return &Store{categories: cats}
}

// Transactions returns a snapshot of the collection in display order
// (most recent batch first).
func (s *Store) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transaction, len(s.transactions))
	for i, t := range s.transactions {
		out[i] = *t
	}
	return out
}

// Transaction returns a copy of the entry matching id.
func (s *Store) Transaction(id string) (Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transactions {
		if t.ID == id {
			return *t, true
		}
	}
	return Transaction{}, false
}

// Categories returns a snapshot of the category sequence in display order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// AddPending prepends new entries to the collection, preserving their relative
// order within the batch. Entries are forced into pending state and their
// category is coerced into the current set. Display position is fixed here and
// never changes when analyses complete out of order.
func (s *Store) AddPending(entries []Transaction) {
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	block := make([]*Transaction, 0, len(entries))
	for _, e := range entries {
		e.Status = StatusPending
		if !s.hasCategoryLocked(e.Category) {
			e.Category = FallbackCategory
		}
		entry := e
		block = append(block, &entry)
	}
	s.transactions = append(block, s.transactions...)
}

// Update applies a field-level patch to the entry matching id and reports
// whether a matching entry existed. A missing id is not an error: the entry
// may have been deleted while its analysis was still in flight, and the late
// result write must be silently absorbed.
func (s *Store) Update(id string, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions {
		if t.ID != id {
			continue
		}
		if p.Status != nil {
			t.Status = *p.Status
		}
		if p.Payee != nil {
			t.Payee = *p.Payee
		}
		if p.Amount != nil {
			t.Amount = *p.Amount
		}
		if p.Date != nil {
			t.Date = *p.Date
		}
		if p.Category != nil {
			cat := *p.Category
			if !s.hasCategoryLocked(cat) {
				cat = FallbackCategory
			}
			t.Category = cat
		}
		return true
	}
	return false
}

// Delete removes the entry matching id. Deleting an absent id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return
		}
	}
}

// AddCategory appends name to the category sequence and reports whether it was
// added. Empty names and duplicates (case-sensitive exact match) are no-ops.
func (s *Store) AddCategory(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasCategoryLocked(name) {
		return false
	}
	s.categories = append(s.categories, name)
	return true
}

// ReorderCategory swaps the category at index with its neighbor in direction
// (-1 = earlier, +1 = later) and reports whether a swap happened. Out-of-range
// indexes and swaps past either boundary are no-ops.
func (s *Store) ReorderCategory(index, direction int) bool {
	if direction != -1 && direction != 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.categories) {
		return false
	}
	j := index + direction
	if j < 0 || j >= len(s.categories) {
		return false
	}
	s.categories[index], s.categories[j] = s.categories[j], s.categories[index]
	return true
}

// DeleteCategory removes name from the sequence and, atomically with the
// removal, reassigns every transaction holding it to the fallback category.
// It returns whether the category was removed and how many transactions were
// reassigned, so the caller can reset a presentation-side filter that pointed
// at the deleted name. Deleting the fallback category or an unknown name is a
// no-op.
func (s *Store) DeleteCategory(name string) (removed bool, reassigned int) {
	if name == FallbackCategory {
		return false, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, 0
	}

	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	for _, t := range s.transactions {
		if t.Category == name {
			t.Category = FallbackCategory
			reassigned++
		}
	}
	return true, reassigned
}

func (s *Store) hasCategoryLocked(name string) bool {
	for _, c := range s.categories {
		if c == name {
			return true
		}
	}
	return false
}
