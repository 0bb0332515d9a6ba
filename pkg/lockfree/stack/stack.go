// Package stack provides a lock-free LIFO stack safe for concurrent use.
package stack

import "sync/atomic"

type node[T any] struct {
	value T
	next  *node[T]
}

// Stack is a Treiber stack. The zero value is an empty stack ready to use.
//
// Nodes are never reused, so the garbage collector rules out the ABA
// problem that a manual-memory version would have to handle.
type Stack[T any] struct {
	head atomic.Pointer[node[T]]
	size atomic.Int64
}

// New returns an empty stack.
func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Push places v on top of the stack.
func (s *Stack[T]) Push(v T) {
	n := &node[T]{value: v}
	for {
		old := s.head.Load()
		n.next = old
		if s.head.CompareAndSwap(old, n) {
			s.size.Add(1)
			return
		}
	}
}

// Pop removes and returns the top value. ok is false if the stack is empty.
func (s *Stack[T]) Pop() (v T, ok bool) {
	for {
		old := s.head.Load()
		if old == nil {
			return v, false
		}
		if s.head.CompareAndSwap(old, old.next) {
			s.size.Add(-1)
			return old.value, true
		}
	}
}

// Peek returns the top value without removing it.
func (s *Stack[T]) Peek() (v T, ok bool) {
	if top := s.head.Load(); top != nil {
		return top.value, true
	}
	return v, false
}

// Len returns the number of values on the stack. Under concurrent use it
// is a snapshot that may already be stale.
func (s *Stack[T]) Len() int {
	if n := s.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// IsEmpty reports whether the stack has no values.
func (s *Stack[T]) IsEmpty() bool {
	return s.head.Load() == nil
}

// Drain atomically detaches every value and returns them top first.
func (s *Stack[T]) Drain() []T {
	for {
		old := s.head.Load()
		if old == nil {
			return nil
		}
		if !s.head.CompareAndSwap(old, nil) {
			continue
		}
		var out []T
		for n := old; n != nil; n = n.next {
			out = append(out, n.value)
		}
		s.size.Add(-int64(len(out)))
		return out
	}
}
