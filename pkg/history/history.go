// Package history keeps bounded undo and redo stacks of value snapshots.
package history

// DefaultCapacity is the number of snapshots kept when no capacity is given.
const DefaultCapacity = 100

// Stack is a bounded LIFO stack. Pushing onto a full stack evicts the oldest
// entry, so Len never exceeds Cap.
type Stack[T any] struct {
	items []T
	head  int // index of the oldest entry
	size  int
}

// NewStack returns an empty stack holding at most capacity entries.
// A non-positive capacity selects DefaultCapacity.
func NewStack[T any](capacity int) *Stack[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack[T]{items: make([]T, capacity)}
}

// Push adds v on top, evicting the oldest entry when full.
func (s *Stack[T]) Push(v T) {
	capacity := len(s.items)
	if s.size == capacity {
		s.items[s.head] = v
		s.head = (s.head + 1) % capacity
		return
	}
	s.items[(s.head+s.size)%capacity] = v
	s.size++
}

// Pop removes and returns the most recent entry.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.size == 0 {
		return zero, false
	}
	idx := (s.head + s.size - 1) % len(s.items)
	v := s.items[idx]
	s.items[idx] = zero
	s.size--
	return v, true
}

// Peek returns the most recent entry without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if s.size == 0 {
		var zero T
		return zero, false
	}
	return s.items[(s.head+s.size-1)%len(s.items)], true
}

// Len returns the number of entries.
func (s *Stack[T]) Len() int { return s.size }

// Cap returns the maximum number of entries.
func (s *Stack[T]) Cap() int { return len(s.items) }

// Clear drops every entry.
func (s *Stack[T]) Clear() {
	clear(s.items)
	s.head = 0
	s.size = 0
}

// History pairs an undo stack with a redo stack of the same capacity.
// It is not safe for concurrent use.
type History[T any] struct {
	undo *Stack[T]
	redo *Stack[T]
}

// New returns an empty history with the given per-stack capacity.
func New[T any](capacity int) *History[T] {
	return &History[T]{
		undo: NewStack[T](capacity),
		redo: NewStack[T](capacity),
	}
}

// Push records the state that is about to be replaced. Any redo entries are
// discarded because they no longer follow from the current state.
func (h *History[T]) Push(snapshot T) {
	h.undo.Push(snapshot)
	h.redo.Clear()
}

// CanUndo reports whether Undo has anything to return.
func (h *History[T]) CanUndo() bool { return h.undo.Len() > 0 }

// CanRedo reports whether Redo has anything to return.
func (h *History[T]) CanRedo() bool { return h.redo.Len() > 0 }

// Undo pops the most recent snapshot and files current for Redo. It returns
// false when there is nothing to undo; that is not an error.
func (h *History[T]) Undo(current T) (T, bool) {
	prev, ok := h.undo.Pop()
	if !ok {
		return prev, false
	}
	h.redo.Push(current)
	return prev, true
}

// Redo reverses the last Undo.
func (h *History[T]) Redo(current T) (T, bool) {
	next, ok := h.redo.Pop()
	if !ok {
		return next, false
	}
	h.undo.Push(current)
	return next, true
}

// ClearRedo drops the redo stack without touching undo.
func (h *History[T]) ClearRedo() { h.redo.Clear() }

// Len returns the number of undo entries.
func (h *History[T]) Len() int { return h.undo.Len() }

// Cap returns the undo capacity.
func (h *History[T]) Cap() int { return h.undo.Cap() }
