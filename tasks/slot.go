package tasks

import "fmt"

// Poll is the outcome of polling a slot. When Ready is false the slot still
// holds its handle.
type Poll[T any] struct {
	Ready bool
	Value T
	Err   error
}

// Slot owns at most one outstanding handle.
type Slot[T any] struct {
	handle *Handle[T]
}

func (s *Slot[T]) Empty() bool {
	return s.handle == nil
}

// Set stores h in an empty slot. Overwriting an outstanding handle would lose
// its result, so that panics.
func (s *Slot[T]) Set(h *Handle[T]) {
	if s.handle != nil {
		panic(fmt.Errorf("slot already holds an outstanding handle"))
	}
	s.handle = h
}

// Poll never blocks. A ready handle is removed from the slot and its result is
// returned; polling an empty or not-ready slot changes nothing.
func (s *Slot[T]) Poll() Poll[T] {
	if s.handle == nil || !s.handle.Ready() {
		return Poll[T]{}
	}
	h := s.handle
	s.handle = nil
	return Poll[T]{
		Ready: true,
		Value: h.value,
		Err:   h.err,
	}
}

// Cancel forwards an advisory cancel to the outstanding handle, which stays in
// the slot until it resolves.
func (s *Slot[T]) Cancel() {
	if s.handle != nil {
		s.handle.Cancel()
	}
}
