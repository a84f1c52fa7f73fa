// Package collections provides the bounded, key-sorted container the
// SequencingBuffer uses to hold pending slots.
package collections

import "sort"

// SortedFixedList is a fixed-capacity list kept sorted ascending by a u32
// key. Insertion at capacity is rejected rather than evicting existing
// content: overflow fails the insert by exactly one slot, it never drops
// existing content.
type SortedFixedList[T any] struct {
	capacity int
	keys     []uint32
	items    []T
}

// NewSortedFixedList creates a list with room for at most capacity items.
func NewSortedFixedList[T any](capacity int) *SortedFixedList[T] {
	return &SortedFixedList[T]{
		capacity: capacity,
		keys:     make([]uint32, 0, capacity),
		items:    make([]T, 0, capacity),
	}
}

// Len returns the number of items currently held.
func (l *SortedFixedList[T]) Len() int { return len(l.items) }

// Cap returns the configured capacity.
func (l *SortedFixedList[T]) Cap() int { return l.capacity }

// Full reports whether the list is at capacity.
func (l *SortedFixedList[T]) Full() bool { return len(l.items) >= l.capacity }

// Insert places item at the position that keeps keys sorted ascending.
// It returns false without modifying the list if it is already at capacity.
func (l *SortedFixedList[T]) Insert(key uint32, item T) bool {
	if l.Full() {
		return false
	}
	idx := sort.Search(len(l.keys), func(i int) bool { return l.keys[i] >= key })
	l.keys = append(l.keys, 0)
	l.items = append(l.items, item)
	copy(l.keys[idx+1:], l.keys[idx:len(l.keys)-1])
	copy(l.items[idx+1:], l.items[idx:len(l.items)-1])
	l.keys[idx] = key
	l.items[idx] = item
	return true
}

// Front returns the lowest-keyed item without removing it.
func (l *SortedFixedList[T]) Front() (key uint32, item T, ok bool) {
	if len(l.items) == 0 {
		return 0, item, false
	}
	return l.keys[0], l.items[0], true
}

// PopFront removes and returns the lowest-keyed item. It shifts the
// remaining elements down in place rather than reslicing from the front, so
// the backing arrays keep their original capacity across the life of the
// list instead of shrinking by one slot on every pop.
func (l *SortedFixedList[T]) PopFront() (key uint32, item T, ok bool) {
	if len(l.items) == 0 {
		return 0, item, false
	}
	key, item = l.keys[0], l.items[0]
	copy(l.keys, l.keys[1:])
	copy(l.items, l.items[1:])
	l.keys = l.keys[:len(l.keys)-1]
	l.items = l.items[:len(l.items)-1]
	return key, item, true
}

// Reset empties the list without changing its capacity.
func (l *SortedFixedList[T]) Reset() {
	l.keys = l.keys[:0]
	l.items = l.items[:0]
}

// Keys returns the current sorted keys, for diagnostics and tests. The
// returned slice aliases internal state and must not be mutated.
func (l *SortedFixedList[T]) Keys() []uint32 { return l.keys }
