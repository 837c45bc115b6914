// Package store holds the records a list view renders: the current page's
// records, the total row count and the current page number.
package store

import (
	"slices"
	"sync"

	"github.com/Majid760/xpensemate-sub000/src/models"
)

// Snapshot is a copy of store state, taken before an optimistic change.
type Snapshot[T models.Record] struct {
	Records []T
	Total   int
	Page    int
}

// ChangeKind selects the optimistic primitive Apply performs.
type ChangeKind int

const (
	InsertHead ChangeKind = iota
	ReplaceInPlace
	RemoveByID
)

func (k ChangeKind) String() string {
	switch k {
	case InsertHead:
		return "insert"
	case ReplaceInPlace:
		return "replace"
	case RemoveByID:
		return "remove"
	}
	return "unknown"
}

// Change describes one optimistic edit. Record is used by InsertHead and
// ReplaceInPlace, ID by RemoveByID.
type Change[T models.Record] struct {
	Kind   ChangeKind
	Record T
	ID     string
}

// Applied is the receipt of Apply. It carries what Undo needs to compensate
// the change even when other changes landed after it.
type Applied[T models.Record] struct {
	Change   Change[T]
	Found    bool // false when Replace/Remove matched nothing
	Index    int
	Previous T
	PrevPage int
	// Before is the store as it was just before the change.
	Before  Snapshot[T]
	version uint64
}

// Store is safe for concurrent use. Slices it returns are copies.
type Store[T models.Record] struct {
	mu        sync.RWMutex
	records   []T
	total     int
	page      int
	perPage   int
	version   uint64
	listeners []func(Snapshot[T])

	// order is the page's record order including records removed since it
	// was loaded. Held records are always a subsequence of it.
	order []string
	// pending holds inserts neither committed nor undone, and prePage the
	// page shown before the first of them.
	pending map[string]struct{}
	prePage int
}

// New returns an empty store on page 1.
func New[T models.Record](perPage int) *Store[T] {
	return &Store[T]{page: 1, perPage: perPage, pending: make(map[string]struct{})}
}

// OnChange registers fn to be called after every change. It runs outside the
// store lock.
func (s *Store[T]) OnChange(fn func(Snapshot[T])) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Records: append([]T(nil), s.records...),
		Total:   s.total,
		Page:    s.page,
	}
}

// changed must be called with the lock held; it returns the notifier to run
// once the lock is released.
func (s *Store[T]) changed() func() {
	s.version++
	if len(s.listeners) == 0 {
		return func() {}
	}
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	return func() {
		for _, fn := range listeners {
			fn(snap)
		}
	}
}

// Snapshot captures the current records, total and page.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store[T]) Records() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T(nil), s.records...)
}

func (s *Store[T]) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Store[T]) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *Store[T]) PerPage() int {
	return s.perPage
}

// Find returns the held record with the given ID.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.records[i], true
	}
	var zero T
	return zero, false
}

func (s *Store[T]) indexLocked(id string) int {
	for i, r := range s.records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

func (s *Store[T]) resetOrderLocked() {
	s.order = s.order[:0]
	for _, r := range s.records {
		s.order = append(s.order, r.RecordID())
	}
	clear(s.pending)
}

// reinsertAtLocked finds where a removed record goes back: right after the
// nearest record held that precedes it in order.
func (s *Store[T]) reinsertAtLocked(id string, fallback int) int {
	k := slices.Index(s.order, id)
	if k < 0 {
		at := min(max(fallback, 0), len(s.records))
		pos := 0
		if at > 0 {
			pos = slices.Index(s.order, s.records[at-1].RecordID()) + 1
		}
		s.order = slices.Insert(s.order, pos, id)
		return at
	}
	for j := k - 1; j >= 0; j-- {
		if h := s.indexLocked(s.order[j]); h >= 0 {
			return h + 1
		}
	}
	return 0
}

// SetPage replaces the held records and metadata with a resolved fetch.
func (s *Store[T]) SetPage(p models.Page[T]) {
	s.mu.Lock()
	s.records = append([]T(nil), p.Records...)
	s.total = p.Total
	if p.Page > 0 {
		s.page = p.Page
	}
	s.resetOrderLocked()
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

// Apply performs an optimistic change synchronously:
//   - InsertHead puts the record first, increments total and forces page 1
//   - ReplaceInPlace swaps the record with the same ID
//   - RemoveByID drops the record and decrements total
func (s *Store[T]) Apply(ch Change[T]) Applied[T] {
	s.mu.Lock()
	a := Applied[T]{Change: ch, PrevPage: s.page, Index: -1, Before: s.snapshotLocked()}
	switch ch.Kind {
	case InsertHead:
		id := ch.Record.RecordID()
		if len(s.pending) == 0 {
			s.prePage = s.page
		}
		s.pending[id] = struct{}{}
		s.order = slices.Insert(s.order, 0, id)
		s.records = append([]T{ch.Record}, s.records...)
		s.total++
		s.page = 1
		a.Found = true
		a.Index = 0
	case ReplaceInPlace:
		if i := s.indexLocked(ch.Record.RecordID()); i >= 0 {
			a.Found, a.Index, a.Previous = true, i, s.records[i]
			s.records[i] = ch.Record
		}
	case RemoveByID:
		if i := s.indexLocked(ch.ID); i >= 0 {
			a.Found, a.Index, a.Previous = true, i, s.records[i]
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			s.total--
		}
	}
	if !a.Found {
		s.mu.Unlock()
		return a
	}
	notify := s.changed()
	a.version = s.version
	s.mu.Unlock()
	notify()
	return a
}

// Commit replaces the record keyed by localKey with the server-confirmed
// value. It reports false when localKey is no longer held.
func (s *Store[T]) Commit(serverRecord T, localKey string) bool {
	s.mu.Lock()
	i := s.indexLocked(localKey)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.records[i] = serverRecord
	if id := serverRecord.RecordID(); id != localKey {
		if k := slices.Index(s.order, localKey); k >= 0 {
			s.order[k] = id
		}
	}
	if _, ok := s.pending[localKey]; ok {
		// A committed create really sits on page 1.
		delete(s.pending, localKey)
		s.prePage = 1
	}
	notify := s.changed()
	s.mu.Unlock()
	notify()
	return true
}

// Rollback restores the exact collection, total and page of snap.
func (s *Store[T]) Rollback(snap Snapshot[T]) {
	s.mu.Lock()
	s.records = append([]T(nil), snap.Records...)
	s.total = snap.Total
	s.page = snap.Page
	s.resetOrderLocked()
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

// RollbackIfLatest restores a.Before only when a was the last change applied,
// so nothing applied since would be lost. It reports whether it restored.
func (s *Store[T]) RollbackIfLatest(a Applied[T]) bool {
	s.mu.Lock()
	if !a.Found || s.version != a.version {
		s.mu.Unlock()
		return false
	}
	s.records = append([]T(nil), a.Before.Records...)
	s.total = a.Before.Total
	s.page = a.Before.Page
	if a.Change.Kind == InsertHead {
		delete(s.pending, a.Change.Record.RecordID())
	}
	notify := s.changed()
	s.mu.Unlock()
	notify()
	return true
}

// Undo compensates a single applied change without touching unrelated
// records, for when other mutations landed after it.
func (s *Store[T]) Undo(a Applied[T]) {
	if !a.Found {
		return
	}
	s.mu.Lock()
	switch a.Change.Kind {
	case InsertHead:
		id := a.Change.Record.RecordID()
		if i := s.indexLocked(id); i >= 0 {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			s.total--
		}
		// The page is restored only once no other insert still forces page 1.
		if _, ok := s.pending[id]; ok {
			delete(s.pending, id)
			if len(s.pending) == 0 {
				s.page = s.prePage
			}
		}
	case ReplaceInPlace:
		if i := s.indexLocked(a.Previous.RecordID()); i >= 0 {
			s.records[i] = a.Previous
		}
	case RemoveByID:
		id := a.Previous.RecordID()
		if s.indexLocked(id) >= 0 {
			break
		}
		at := s.reinsertAtLocked(id, a.Index)
		s.records = slices.Insert(s.records, at, a.Previous)
		s.total++
	}
	notify := s.changed()
	s.mu.Unlock()
	notify()
}
