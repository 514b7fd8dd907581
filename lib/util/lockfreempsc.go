// Package util provides a lock-free Multi-Producer Single-Consumer (MPSC) queue implementation.
//
// The expiring map uses it to hand evicted entries from the reclaimer to the goroutine that
// runs the user's eviction listener, so a slow listener never delays the next sweep.
//
// Features and Guarantees:
//
//   - Lock-Free pushes: producers only use atomic operations on the linked list
//   - Unbounded Size: the queue grows as needed, limited only by available memory
//   - Single Consumer: exactly one goroutine reads values through the Recv() channel
//   - Draining Close: values pushed before Close are still delivered, then Recv() is closed
//   - No Strict FIFO Guarantee across producers: the order is the order in which
//     producers won their CAS, not the order in which they called Push
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// mpscNode is a single element of the queue's linked list
type mpscNode[T any] struct {
	value *T
	next  atomic.Pointer[mpscNode[T]]
}

// LockFreeMPSC is a lock-free multi-producer single-consumer queue.
// A background goroutine moves values from the linked list to the channel returned by Recv.
type LockFreeMPSC[T any] struct {
	head     atomic.Pointer[mpscNode[T]]
	tail     atomic.Pointer[mpscNode[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	// parking for the forwarding goroutine
	mu   sync.Mutex
	cond *sync.Cond
}

// NewLockFreeMPSC creates a new queue and starts its forwarding goroutine
func NewLockFreeMPSC[T any]() *LockFreeMPSC[T] {
	sentinel := &mpscNode[T]{}

	q := &LockFreeMPSC[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.forward()

	return q
}

// Push adds a value to the queue.
// Returns false if the value is nil or the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	newNode := &mpscNode[T]{value: value}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// another producer may already have advanced the tail for us
				q.tail.CompareAndSwap(tailNode, newNode)
				q.wakeConsumer()
				return true
			}
		} else {
			// help a producer that linked its node but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// spin with exponential backoff first, then yield
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wakeConsumer signals the forwarding goroutine.
// The signal is sent while holding mu so it cannot fall between the consumer's check and its Wait.
func (q *LockFreeMPSC[T]) wakeConsumer() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// forward moves values from the linked list to the out channel until the queue is closed and empty
func (q *LockFreeMPSC[T]) forward() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		forwarded := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			forwarded = true

			value := next.value
			q.head.Store(next)
			q.out <- value

			// help go gc
			next.value = nil
		}

		if forwarded {
			continue
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil {
			if q.closed.Load() {
				q.mu.Unlock()
				return
			}
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// Recv returns the channel values are delivered on.
// The channel is closed once the queue is closed and every pending value was delivered.
func (q *LockFreeMPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close prevents further pushes. Values already queued are still delivered.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)
	q.wakeConsumer()
}

// IsClosed returns true if the queue is closed
func (q *LockFreeMPSC[T]) IsClosed() bool {
	return q.closed.Load()
}
