package common

import "github.com/iotaledger/hive.go/ds/orderedmap"

// OrderedSet is an insertion-ordered, duplicate-free set. Ledger lists such as
// owned or staking hotkeys are merged through it so repeated merges never
// produce duplicate entries.
type OrderedSet[T comparable] struct {
	entries *orderedmap.OrderedMap[T, struct{}]
}

// NewOrderedSet builds a set from the provided elements, keeping the first
// occurrence of each.
func NewOrderedSet[T comparable](elements ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{entries: orderedmap.New[T, struct{}]()}
	s.Add(elements...)
	return s
}

// Add appends elements that are not yet present.
func (s *OrderedSet[T]) Add(elements ...T) {
	for _, element := range elements {
		if s.entries.Has(element) {
			continue
		}
		s.entries.Set(element, struct{}{})
	}
}

// Has reports whether the element is in the set.
func (s *OrderedSet[T]) Has(element T) bool {
	return s.entries.Has(element)
}

// Remove deletes the element, preserving the order of the rest.
func (s *OrderedSet[T]) Remove(element T) {
	s.entries.Delete(element)
}

// Len returns the number of elements.
func (s *OrderedSet[T]) Len() int {
	return s.entries.Size()
}

// Slice returns the elements in insertion order.
func (s *OrderedSet[T]) Slice() []T {
	out := make([]T, 0, s.entries.Size())
	s.entries.ForEach(func(element T, _ struct{}) bool {
		out = append(out, element)
		return true
	})
	return out
}

// Union returns base followed by every element of extra not already in base.
func Union[T comparable](base, extra []T) []T {
	set := NewOrderedSet(base...)
	set.Add(extra...)
	return set.Slice()
}
