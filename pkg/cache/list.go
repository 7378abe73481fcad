// Package cache holds the in-memory, ordered entity lists each repository
// view keeps beside the database. Writes go to the store first; on success a
// deterministic local transform mirrors the remote effect. The cache is never
// authoritative: any refetch replaces it wholesale.
package cache

import (
	"sync"
)

// Entity is anything with a stable identifier.
type Entity interface {
	EntityID() string
}

// List is an ordered, mutex-guarded sequence of entities owned by exactly
// one repository or feed instance.
type List[T Entity] struct {
	mu    sync.RWMutex
	items []T
}

func NewList[T Entity]() *List[T] {
	return &List[T]{}
}

// Replace swaps the entire cached sequence, preserving the given order.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make([]T, len(items))
	copy(l.items, items)
}

// Prepend inserts an entity at the head (newest-first ordering).
func (l *List[T]) Prepend(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append([]T{item}, l.items...)
}

// Patch applies transform to the entity with the given id, in place. Returns
// false when no cached entity matches.
func (l *List[T]) Patch(id string, transform func(T) T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if item.EntityID() == id {
			l.items[i] = transform(item)
			return true
		}
	}
	return false
}

// Remove filters out the entity with the given id. Returns false when no
// cached entity matches.
func (l *List[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if item.EntityID() == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the cached entity with the given id.
func (l *List[T]) Get(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, item := range l.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot copies the current sequence in order.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len reports the number of cached entities.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
