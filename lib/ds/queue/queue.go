// Package queue provides a first-in first-out queue.
package queue

import (
	"github.com/pkg/errors"
)

var ErrQueueEmpty = errors.New("queue is empty")

// Queue is a FIFO backed by a slice. The zero value is an empty queue.
type Queue[T any] struct {
	items []T
}

func New[T any](initialCap uint) *Queue[T] {
	return &Queue[T]{items: make([]T, 0, initialCap)}
}

func (q *Queue[T]) Enqueue(v ...T) {
	q.items = append(q.items, v...)
}

func (q *Queue[T]) Dequeue() (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, ErrQueueEmpty
	}

	v := q.items[0]
	// Release the reference held by the backing array.
	q.items[0] = zero
	q.items = q.items[1:]

	return v, nil
}

func (q *Queue[T]) Peek() (T, error) {
	if len(q.items) == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}
	return q.items[0], nil
}

func (q *Queue[T]) Len() uint { return uint(len(q.items)) }

// Clear drops every item.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}
