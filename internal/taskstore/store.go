// Package taskstore holds the last fetched task page, its total count and
// the last fetched single task.
package taskstore

import (
	"sync"

	"taskmgr/internal/service"
)

// Ticket identifies one list fetch. Only the most recently issued ticket
// may replace the snapshot.
type Ticket uint64

// Store is the in-memory task state. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snap     service.Snapshot
	selected *service.Task
	issued   Ticket
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current page and count.
func (s *Store) Snapshot() service.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return service.Snapshot{
		Items: append([]service.Task{}, s.snap.Items...),
		Count: s.snap.Count,
	}
}

// Tasks returns a copy of the current page.
func (s *Store) Tasks() []service.Task {
	return s.Snapshot().Items
}

// Count returns the total size of the filtered set.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Count
}

// Begin issues a ticket for a new list fetch, superseding all earlier ones.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// ReplaceSnapshot stores snap if t is still the latest ticket and reports
// whether it did. Items and count always change together.
func (s *Store) ReplaceSnapshot(t Ticket, snap service.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.issued {
		return false
	}
	s.set(snap)
	return true
}

// SetSnapshot stores snap unconditionally and supersedes outstanding tickets.
func (s *Store) SetSnapshot(snap service.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.set(snap)
}

func (s *Store) set(snap service.Snapshot) {
	items := append([]service.Task{}, snap.Items...)
	s.snap = service.Snapshot{Items: items, Count: snap.Count}
}

// Selected returns the last fetched single task.
func (s *Store) Selected() (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return service.Task{}, false
	}
	return *s.selected, true
}

// SetSelected replaces the single-task slot.
func (s *Store) SetSelected(t service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &t
}

// ClearSelected empties the single-task slot.
func (s *Store) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}
