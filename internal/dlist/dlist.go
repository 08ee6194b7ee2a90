// Package dlist implements an intrusive, circular doubly linked list.
//
// The Element is meant to be embedded in the structure it links, so threading
// a value onto a list allocates nothing. The zero List is an empty list ready
// to use. The list does no locking; callers synchronize externally.
package dlist

import "iter"

// Element is a link embedded in a structure threaded on a List.
type Element[T any] struct {
	next, prev *Element[T]
	list       *List[T]

	// Value is the structure owning this element.
	Value T
}

// Next returns the next element or nil.
func (e *Element[T]) Next() *Element[T] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// Linked reports whether e is currently on a list.
func (e *Element[T]) Linked() bool {
	return e.list != nil
}

// List is a circular doubly linked list with a sentinel root.
type List[T any] struct {
	root Element[T]
	len  int
}

// Init initializes or clears l.
func (l *List[T]) Init() *List[T] {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	return l
}

func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.Init()
	}
}

// Len returns the number of linked elements. O(1).
func (l *List[T]) Len() int { return l.len }

// Front returns the first element or nil.
func (l *List[T]) Front() *Element[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// InsertTail links e at the back of l. An element already linked elsewhere
// is moved.
func (l *List[T]) InsertTail(e *Element[T]) {
	l.lazyInit()
	if e.list != nil {
		e.list.Remove(e)
	}
	at := l.root.prev
	e.prev = at
	e.next = &l.root
	at.next = e
	l.root.prev = e
	e.list = l
	l.len++
}

// Remove unlinks e from l. It is a no-op if e is not on l. O(1).
func (l *List[T]) Remove(e *Element[T]) {
	if e.list != l {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
}

// All yields the elements front to back. Removing the yielded element ends
// the iteration early; use AllSafe for that.
func (l *List[T]) All() iter.Seq[*Element[T]] {
	return func(yield func(*Element[T]) bool) {
		if l.root.next == nil {
			return
		}
		for e := l.root.next; e != nil && e != &l.root; e = e.next {
			if !yield(e) {
				return
			}
		}
	}
}

// AllSafe yields the elements front to back and tolerates removal of the
// yielded element during iteration.
func (l *List[T]) AllSafe() iter.Seq[*Element[T]] {
	return func(yield func(*Element[T]) bool) {
		if l.root.next == nil {
			return
		}
		for e, n := l.root.next, l.root.next.next; e != &l.root; e, n = n, n.next {
			if !yield(e) {
				return
			}
		}
	}
}

// Values yields the payload of each element front to back.
func (l *List[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for e := range l.All() {
			if !yield(e.Value) {
				return
			}
		}
	}
}
