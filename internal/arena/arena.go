// Package arena provides a fixed-capacity bump store.
//
// An Arena hands out slots from a block reserved up front and never frees
// them individually. Slot addresses stay valid until Release because the
// backing slice is never reallocated.
package arena

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned when an allocation would exceed the arena capacity.
var ErrExhausted = errors.New("arena exhausted")

// Arena is a bump allocator over values of type T.
//
// Example:
//
//	a := arena.New[Node](1024)
//	i, err := a.Alloc(Node{})
//	n := a.At(i)
type Arena[T any] struct {
	items []T
}

// New reserves an arena able to hold capacity values.
func New[T any](capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena[T]{items: make([]T, 0, capacity)}
}

// Alloc appends v and returns its slot index.
func (a *Arena[T]) Alloc(v T) (int, error) {
	if len(a.items) == cap(a.items) {
		return 0, fmt.Errorf("%w: capacity %d", ErrExhausted, cap(a.items))
	}
	a.items = append(a.items, v)
	return len(a.items) - 1, nil
}

// At returns a pointer to slot i. It panics if i was never allocated.
func (a *Arena[T]) At(i int) *T {
	return &a.items[i]
}

// Len returns the number of allocated slots.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// Cap returns the total number of slots reserved.
func (a *Arena[T]) Cap() int {
	return cap(a.items)
}

// Release drops every allocation at once. The arena holds zero capacity afterwards.
func (a *Arena[T]) Release() {
	a.items = nil
}
