// Package store holds the process-wide scrape status snapshot. Implementations
// here are purely in-memory; nothing survives a restart.
package store

import (
	"sync"

	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

// StatusStore is the single shared holder of the current job snapshot.
// One writer (the active controller run) and many readers (status pollers)
// are supported; every publish replaces the snapshot atomically and readers
// always get defensive copies.
type StatusStore struct {
	mu   sync.RWMutex
	snap scraper.JobSnapshot
}

// NewStatusStore creates a store initialized to the idle snapshot.
func NewStatusStore() *StatusStore {
	return &StatusStore{snap: scraper.NewIdleSnapshot()}
}

// Publish atomically replaces the stored snapshot with a deep copy of snap,
// so later mutation by the caller cannot leak into readers.
func (s *StatusStore) Publish(snap scraper.JobSnapshot) {
	cp := snap.Clone()
	s.mu.Lock()
	s.snap = cp
	s.mu.Unlock()
}

// Read returns a deep copy of the current snapshot.
func (s *StatusStore) Read() scraper.JobSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}
