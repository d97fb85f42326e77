package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/shelf/internal/catalog"
)

// offlineAfter is the number of failed refreshes before the catalog is shown
// as served from cache.
const offlineAfter = 2

// Snapshot is the catalog status the UI draws in its header.
type Snapshot struct {
	Subjects    []catalog.Subject
	BookCount   int
	HasCatalog  bool
	LastUpdated time.Time // last refresh attempt, successful or not
	LastSuccess time.Time
	LastError   error

	ConsecutiveFailures int
}

// IsOffline reports whether the catalog source has failed several refreshes
// in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= offlineAfter
}

// Age is how long ago the catalog was last loaded successfully. It is zero
// before the first success.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.LastSuccess.IsZero() {
		return 0
	}
	return now.Sub(s.LastSuccess)
}

// Subject looks up a subject of the last successful refresh by ID.
func (s Snapshot) Subject(id string) (catalog.Subject, bool) {
	for _, subj := range s.Subjects {
		if subj.ID == id {
			return subj, true
		}
	}
	return catalog.Subject{}, false
}

// Store guards the snapshot shared by the refresher and the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Update records a refresh outcome. A non-nil err keeps the previous subjects
// and count and only bumps the failure counter.
func (s *Store) Update(subjects []catalog.Subject, bookCount int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.snapshot.LastUpdated = now
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Subjects = append([]catalog.Subject(nil), subjects...)
	s.snapshot.BookCount = bookCount
	s.snapshot.HasCatalog = true
	s.snapshot.LastSuccess = now
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy that shares nothing with the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if len(s.snapshot.Subjects) > 0 {
		snap.Subjects = append([]catalog.Subject(nil), s.snapshot.Subjects...)
	} else {
		snap.Subjects = nil
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
