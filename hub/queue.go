package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/skillsenselab/relay/envelope"
)

// OverflowPolicy selects what happens when a subscriber's outbound queue is
// full at enqueue time.
type OverflowPolicy string

const (
	// DropOldest evicts the oldest queued event to make room. Favors
	// freshness: live dashboards and notification feeds want the newest
	// data. This is the default.
	DropOldest OverflowPolicy = "drop_oldest"

	// DropNewest rejects the incoming event. Favors completeness of what
	// was already queued.
	DropNewest OverflowPolicy = "drop_newest"
)

// Queue is the per-subscriber bounded outbound queue. Enqueue never blocks:
// a full queue applies the overflow policy and counts the dropped event.
// Events are dequeued in arrival order (FIFO).
type Queue struct {
	mu      sync.Mutex
	buf     []envelope.Event
	head    int
	count   int
	policy  OverflowPolicy
	closed  bool
	dropped atomic.Uint64

	notify chan struct{} // signaled on enqueue
	done   chan struct{} // closed on Close
}

// NewQueue creates a queue with the given capacity and overflow policy.
func NewQueue(capacity int, policy OverflowPolicy) *Queue {
	if capacity <= 0 {
		capacity = 256
	}
	if policy != DropNewest {
		policy = DropOldest
	}
	return &Queue{
		buf:    make([]envelope.Event, capacity),
		policy: policy,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Enqueue appends an event. accepted is false when the event was not taken:
// the queue is closed, or it was full under DropNewest. Under DropOldest a
// full queue evicts its oldest event and the new one is accepted; evicted
// reports that someone else's event paid for the slot. Overflow is never
// fatal; either way exactly one event moved the dropped counter.
func (q *Queue) Enqueue(e envelope.Event) (accepted, evicted bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false, false
	}
	if q.count == len(q.buf) {
		q.dropped.Add(1)
		if q.policy == DropNewest {
			q.mu.Unlock()
			return false, false
		}
		// Evict the oldest queued event.
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		evicted = true
	}
	q.buf[(q.head+q.count)%len(q.buf)] = e
	q.count++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true, evicted
}

// Dequeue removes and returns the oldest queued event, blocking until one is
// available. It returns false once the queue is closed and fully drained, or
// when ctx is done. Queued events remain dequeuable after Close so a
// draining connection can flush them.
func (q *Queue) Dequeue(ctx context.Context) (envelope.Event, bool) {
	for {
		q.mu.Lock()
		if q.count > 0 {
			e := q.buf[q.head]
			q.buf[q.head] = envelope.Event{}
			q.head = (q.head + 1) % len(q.buf)
			q.count--
			q.mu.Unlock()
			return e, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return envelope.Event{}, false
		}

		select {
		case <-ctx.Done():
			return envelope.Event{}, false
		case <-q.done:
			// Re-check: events enqueued before Close are still drained.
		case <-q.notify:
		}
	}
}

// TryDequeue removes and returns the oldest queued event without blocking.
func (q *Queue) TryDequeue() (envelope.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return envelope.Event{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = envelope.Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return e, true
}

// Close marks the queue closed. Pending events can still be dequeued;
// further enqueues are rejected. Safe to call multiple times.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Dropped returns the number of events dropped by the overflow policy.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
