// Package sessions keeps the navigator sessions of connected clients.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/logging"
	"github.com/seuros/funnelscope/internal/navigator"
)

// ErrNotFound is returned for unknown or evicted session ids.
var ErrNotFound = errors.New("session not found")

var nowFunc = time.Now

// Options configure a Store.
type Options struct {
	TopN int
	// Idle is how long a session may go unused before Sweep evicts it.
	Idle  time.Duration
	Hooks navigator.Hooks
	// OnCount observes the number of live sessions after every change.
	OnCount func(active int)
}

type entry struct {
	mu       sync.Mutex
	nav      *navigator.Session
	lastUsed time.Time
}

// Result is the outcome of one operation on a session.
type Result struct {
	ID      string          `json:"id"`
	Changed bool            `json:"changed"`
	Frame   navigator.Frame `json:"frame"`
}

// Store maps session ids to navigator sessions. Operations on different
// sessions run in parallel; operations on one session are serialised.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	snapshot *dataset.Snapshot
	opts     Options
}

// NewStore creates an empty store serving snapshot.
func NewStore(snapshot *dataset.Snapshot, opts Options) *Store {
	if opts.Idle <= 0 {
		opts.Idle = 30 * time.Minute
	}
	return &Store{
		entries:  make(map[string]*entry),
		snapshot: snapshot,
		opts:     opts,
	}
}

// Snapshot returns the snapshot new sessions start on.
func (s *Store) Snapshot() *dataset.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetSnapshot swaps the snapshot for sessions created afterwards. Existing
// sessions keep the data they were opened with.
func (s *Store) SetSnapshot(snapshot *dataset.Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
}

// Create opens a session on Root for key.
func (s *Store) Create(key dataset.Key) Result {
	id := uuid.NewString()

	s.mu.Lock()
	nav := navigator.New(s.snapshot, key,
		navigator.WithTopN(s.opts.TopN),
		navigator.WithHooks(s.opts.Hooks),
	)
	e := &entry{nav: nav, lastUsed: nowFunc()}
	s.entries[id] = e
	count := len(s.entries)
	s.mu.Unlock()

	s.observeCount(count)
	logging.L().Debug("session created", "session_id", id, "key", key.String())

	e.mu.Lock()
	defer e.mu.Unlock()
	return Result{ID: id, Changed: true, Frame: e.nav.Render()}
}

// Frame renders the current view of a session.
func (s *Store) Frame(id string) (Result, error) {
	return s.Do(id, func(*navigator.Session) bool { return false })
}

// Do applies fn to the session and renders the resulting view. fn reports
// whether it changed the state.
func (s *Store) Do(id string, fn func(*navigator.Session) bool) (Result, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Result{}, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = nowFunc()
	changed := fn(e.nav)
	return Result{ID: id, Changed: changed, Frame: e.nav.Render()}, nil
}

// Exists reports whether id names a live session.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// Delete removes a session.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	count := len(s.entries)
	s.mu.Unlock()

	if ok {
		s.observeCount(count)
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than the configured timeout and
// returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := nowFunc().Add(-s.opts.Idle)

	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.entries, id)
			removed++
		}
	}
	count := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		s.observeCount(count)
	}
	return removed
}

func (s *Store) observeCount(n int) {
	if s.opts.OnCount != nil {
		s.opts.OnCount(n)
	}
}
