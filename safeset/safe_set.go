// Package safeset provides a small mutex-protected set. The multiplexed
// server maintains one as the externally visible view of its readiness set:
// the processing loop is the only writer, but tests and diagnostics read it
// from other goroutines.
package safeset

import "sync"

// SafeSet stores unique elements of a comparable type and is safe for
// concurrent use.
type SafeSet[T comparable] struct {
	m map[T]struct{}
	sync.RWMutex
}

// NewSafeSet returns a new empty SafeSet.
func NewSafeSet[T comparable]() *SafeSet[T] {
	return &SafeSet[T]{m: make(map[T]struct{})}
}

// Add inserts value into the set; adding an existing value is a no-op.
//
// Parameters:
//   - value: The element to add
func (s *SafeSet[T]) Add(value T) {
	s.Lock()
	defer s.Unlock()
	s.m[value] = struct{}{}
}

// Remove deletes value from the set; removing a missing value is a no-op.
//
// Parameters:
//   - value: The element to remove
func (s *SafeSet[T]) Remove(value T) {
	s.Lock()
	defer s.Unlock()
	delete(s.m, value)
}

// Contains reports whether value is in the set.
//
// Parameters:
//   - value: The element to look up
//
// Returns:
//   - true if the set contains value
func (s *SafeSet[T]) Contains(value T) bool {
	s.RLock()
	defer s.RUnlock()
	_, ok := s.m[value]
	return ok
}

// Size returns the number of elements in the set.
func (s *SafeSet[T]) Size() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.m)
}

// Range calls f for each element until f returns false. The behavior is
// undefined if f mutates the set.
//
// Parameters:
//   - f: Function called per element; return false to stop
func (s *SafeSet[T]) Range(f func(value T) bool) {
	s.RLock()
	defer s.RUnlock()
	for v := range s.m {
		if !f(v) {
			break
		}
	}
}
