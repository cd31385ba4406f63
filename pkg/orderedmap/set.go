// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

// Set is an insertion ordered set without duplicates.
type Set[T comparable] struct {
	m Map[T, struct{}]
}

func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	s.Add(items...)
	return s
}

func (s *Set[T]) Add(items ...T) {
	for _, item := range items {
		s.m.Set(item, struct{}{})
	}
}

func (s *Set[T]) Has(item T) bool { return s.m.Has(item) }

func (s *Set[T]) Len() int { return s.m.Len() }

// Items returns a copy of the members in insertion order.
func (s *Set[T]) Items() []T {
	if s == nil {
		return nil
	}
	return s.m.Keys()
}
