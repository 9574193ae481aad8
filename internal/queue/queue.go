// Package queue provides an unbounded, goroutine-safe FIFO with a timed Get.
package queue

import (
	"sync"
	"time"
)

// Queue is a generic FIFO queue shared between producer and consumer
// goroutines. It never blocks on Put.
type Queue[T any] struct {
	mu         sync.Mutex
	items      []T
	unfinished int
	notify     chan struct{}
}

// New creates and returns a new Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Put adds an element to the end of the queue.
func (q *Queue[T]) Put(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.unfinished++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryGet removes and returns the front element without waiting.
// The boolean indicates whether an element was dequeued.
func (q *Queue[T]) TryGet() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Get removes and returns the front element, waiting up to timeout for one
// to arrive. The boolean is false if the timeout elapsed first.
func (q *Queue[T]) Get(timeout time.Duration) (T, bool) {
	if item, ok := q.TryGet(); ok {
		return item, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.notify:
			if item, ok := q.TryGet(); ok {
				q.renotify()
				return item, true
			}
		case <-timer.C:
			return q.TryGet()
		}
	}
}

// renotify passes the wakeup on when items remain for other consumers.
func (q *Queue[T]) renotify() {
	if q.Len() == 0 {
		return
	}
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TaskDone marks one previously dequeued element as fully processed.
func (q *Queue[T]) TaskDone() {
	q.mu.Lock()
	if q.unfinished > 0 {
		q.unfinished--
	}
	q.mu.Unlock()
}

// Unfinished returns the number of elements put but not yet marked done.
func (q *Queue[T]) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Len returns the number of elements waiting in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns every waiting element. Drained elements count
// as done.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	q.unfinished -= len(items)
	if q.unfinished < 0 {
		q.unfinished = 0
	}
	return items
}
