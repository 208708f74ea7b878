package spindecay

import (
	"sync"
	"time"
)

/*
Space hands job results over to whoever awaits them. A result may be stored
before or after someone starts waiting for it; either way Await delivers it
exactly once.
*/
type Space struct {
	mu      sync.Mutex
	values  map[string]Result
	waiting map[string][]chan Result
	closed  bool
}

func newSpace() *Space {
	return &Space{
		values:  make(map[string]Result),
		waiting: make(map[string][]chan Result),
	}
}

// Store records the outcome of job id and wakes its waiters.
func (s *Space) Store(id string, value any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	result := Result{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
	}

	if channels, ok := s.waiting[id]; ok {
		for _, ch := range channels {
			ch <- result
			close(ch)
		}
		delete(s.waiting, id)
		return
	}

	s.values[id] = result
}

// Await returns a channel that receives the result of job id once it is stored.
func (s *Space) Await(id string) chan Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Result, 1)

	if result, ok := s.values[id]; ok {
		delete(s.values, id)
		ch <- result
		close(ch)
		return ch
	}

	if s.closed {
		close(ch)
		return ch
	}

	s.waiting[id] = append(s.waiting[id], ch)
	return ch
}

// Close drops unclaimed results and closes every pending waiter.
func (s *Space) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for id, channels := range s.waiting {
		for _, ch := range channels {
			close(ch)
		}
		delete(s.waiting, id)
	}

	s.values = make(map[string]Result)
}
