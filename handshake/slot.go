package handshake

import "sync"

// slot is a single-use handoff for the delivered credential. The first
// successful offer wins; every later offer is dropped.
type slot struct {
	mu     sync.Mutex
	ch     chan string
	filled bool
	closed bool
}

func newSlot() *slot {
	return &slot{ch: make(chan string, 1)}
}

// offer places token in the slot. It reports false if the slot was already
// filled or closed.
func (s *slot) offer(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filled || s.closed {
		return false
	}
	s.filled = true
	s.ch <- token
	return true
}

// close stops accepting offers. A value already offered stays readable.
func (s *slot) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
