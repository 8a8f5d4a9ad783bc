package supervisor

import "sync"

// Slot holds the live process of a run so that a cancel request coming from
// another goroutine can kill it. The lock only guards the reference; Kill
// runs outside of it.
type Slot struct {
	mu     sync.Mutex
	handle ProcessHandle
}

// Store publishes h as the live process
func (s *Slot) Store(h ProcessHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
}

// Load returns the live process, or nil
func (s *Slot) Load() ProcessHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Clear removes the live process
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = nil
}

// Kill kills the live process, if any. Returns false when the slot is empty.
func (s *Slot) Kill() (bool, error) {
	h := s.Load()
	if h == nil {
		return false, nil
	}
	return true, h.Kill()
}
