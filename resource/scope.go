package resource

import (
	"errors"
	"sync"
)

// ErrScopeClosed is returned by Scope.Insert/Track once the scope has
// already been closed.
var ErrScopeClosed = errors.New("resource: scope already closed")

// Scope tracks the rids a single host-driven call allocates and releases
// every one of them on Close, on all exit paths (success or failure).
// Rids the plugin allocates through its own imports during the call are not
// tracked by the scope — those are the plugin's responsibility via
// std.destroy, or are reclaimed by the Sweeper.
type Scope struct {
	table   *unifiedTable
	handles []Handle
	mu      sync.Mutex
	closed  bool
}

// Insert allocates a resource in the underlying table and tracks it for
// release when the scope closes.
func (s *Scope) Insert(kind Kind, value any) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrScopeClosed
	}
	h := s.table.Insert(kind, value)
	if h != 0 {
		s.handles = append(s.handles, h)
	}
	return h, nil
}

// Track adds an already-allocated handle to this scope's cleanup list,
// without inserting anything new.
func (s *Scope) Track(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrScopeClosed
	}
	s.handles = append(s.handles, h)
	return nil
}

// Len reports the number of handles currently tracked.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Close releases every tracked handle exactly once. Calling Close twice is
// a no-op.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	for _, h := range handles {
		s.table.ForceRemove(h)
	}
}
