// Package workqueue provides a draining multi-producer/multi-consumer queue.
package workqueue

import "sync"

// Queue is a FIFO safe for concurrent Push and Take. Take never blocks waiting for
// new items: an empty queue is reported as exhausted.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
}

// New builds a queue preloaded with items.
func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{items: make([]T, len(items))}
	copy(q.items, items)
	return q
}

// Push appends an item at the tail.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Take removes and returns the head item; ok is false once the queue is empty.
func (q *Queue[T]) Take() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		var zero T
		return zero, false
	}
	item = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return item, true
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
