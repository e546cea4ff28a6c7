package engine

import (
	"sync"

	"github.com/roach88/gauntlet/internal/results"
)

// rowQueue is a thread-safe FIFO queue of finished result rows.
//
// Many workers enqueue and a single writer dequeues. The queue is
// unbounded so a slow writer never blocks a worker.
//
// The queue uses a channel for signaling so the writer can wait without
// spinning. Close is the stop sentinel: once closed and drained, Dequeue
// reports false.
type rowQueue struct {
	mu     sync.Mutex
	rows   []results.Row
	closed bool
	signal chan struct{} // Signals row availability (buffered, size 1)
}

func newRowQueue() *rowQueue {
	return &rowQueue{
		rows:   make([]results.Row, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a row to the back of the queue.
// Returns false if the queue is closed.
func (q *rowQueue) Enqueue(r results.Row) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.rows = append(q.rows, r)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Dequeue removes and returns the front row, blocking until one is
// available. Returns (nil, false) once the queue is closed and empty.
func (q *rowQueue) Dequeue() (results.Row, bool) {
	for {
		if r, ok := q.TryDequeue(); ok {
			return r, true
		}

		q.mu.Lock()
		if q.closed && len(q.rows) == 0 {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()

		<-q.signal
	}
}

// TryDequeue attempts to dequeue without blocking.
func (q *rowQueue) TryDequeue() (results.Row, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.rows) == 0 {
		return nil, false
	}
	r := q.rows[0]
	q.rows[0] = nil // release for GC
	if len(q.rows) == 1 {
		q.rows = q.rows[:0]
	} else {
		q.rows = q.rows[1:]
	}
	return r, true
}

// Len returns the current queue length.
func (q *rowQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.rows)
}

// Close signals that no more rows will be enqueued and wakes the writer.
func (q *rowQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
