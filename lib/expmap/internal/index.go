package internal

import (
	"fmt"
	"sync"

	"github.com/ValentinKolb/expmap/lib/util"
)

// ExpirationIndex orders the keys of an expiring map by deadline.
//
// Keys with the same deadline share one bucket. The buckets live in a MapHeap keyed and
// prioritized by their deadline, so the earliest bucket is available in O(1) and a bucket is
// found, created or removed in O(log n). A bucket is removed as soon as its last key is
// cancelled; an empty bucket in the heap is a bug and panics.
//
// Whenever the earliest deadline changes, a signal is sent on Wake(). The channel has a buffer of
// one and sends never block, so a signal raised while the reclaimer is busy is kept until the
// reclaimer waits again and multiple signals collapse into one.
//
// All methods are safe for concurrent use; one mutex guards the heap.
type ExpirationIndex[K comparable] struct {
	mu      sync.Mutex
	buckets *util.MapHeap[int64, map[K]struct{}]
	keys    int
	wake    chan struct{}
}

// NewExpirationIndex creates an empty index
func NewExpirationIndex[K comparable]() *ExpirationIndex[K] {
	return &ExpirationIndex[K]{
		buckets: util.NewMapHeap[int64, map[K]struct{}](),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule adds key to the bucket for expiresAt, creating the bucket if needed.
// Scheduling a pair that is already present changes nothing.
func (idx *ExpirationIndex[K]) Schedule(expiresAt int64, key K) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	earliest, hadEarliest := idx.earliestLocked()

	if bucket, ok := idx.buckets.GetByKey(expiresAt); ok {
		if _, dup := bucket.Value[key]; dup {
			return
		}
		bucket.Value[key] = struct{}{}
	} else {
		idx.buckets.AddItem(expiresAt, expiresAt, map[K]struct{}{key: {}})
	}
	idx.keys++

	if !hadEarliest || expiresAt < earliest {
		idx.signal()
	}
}

// Cancel removes key from the bucket for expiresAt and prunes the bucket if it became empty.
// Returns false if the pair was not scheduled.
func (idx *ExpirationIndex[K]) Cancel(expiresAt int64, key K) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bucket, ok := idx.buckets.GetByKey(expiresAt)
	if !ok {
		return false
	}
	if _, member := bucket.Value[key]; !member {
		return false
	}

	earliest, _ := idx.earliestLocked()

	delete(bucket.Value, key)
	idx.keys--

	if len(bucket.Value) == 0 {
		idx.buckets.RemoveByKey(expiresAt)
		if earliest == expiresAt {
			idx.signal()
		}
	}
	return true
}

// PeekEarliest returns the earliest deadline and a copy of its keys
func (idx *ExpirationIndex[K]) PeekEarliest() (int64, []K, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bucket, ok := idx.buckets.Peek()
	if !ok {
		return 0, nil, false
	}
	idx.mustNotBeEmpty(bucket.Key, bucket.Value)
	return bucket.Key, keysOf(bucket.Value), true
}

// NextDeadline returns the earliest deadline without copying its keys
func (idx *ExpirationIndex[K]) NextDeadline() (int64, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.earliestLocked()
}

// PopEarliestIfDue removes and returns the earliest bucket if its deadline is <= now.
// Peek and removal happen under one lock, so a bucket is handed out at most once.
func (idx *ExpirationIndex[K]) PopEarliestIfDue(now int64) (int64, []K, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bucket, ok := idx.buckets.Peek()
	if !ok || bucket.Key > now {
		return 0, nil, false
	}
	idx.mustNotBeEmpty(bucket.Key, bucket.Value)

	idx.buckets.PopMin()
	idx.keys -= len(bucket.Value)
	return bucket.Key, keysOf(bucket.Value), true
}

// Contains returns true if key is scheduled for expiresAt
func (idx *ExpirationIndex[K]) Contains(expiresAt int64, key K) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bucket, ok := idx.buckets.GetByKey(expiresAt)
	if !ok {
		return false
	}
	_, member := bucket.Value[key]
	return member
}

// Size returns the number of buckets
func (idx *ExpirationIndex[K]) Size() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.buckets.Len()
}

// Len returns the number of scheduled keys over all buckets
func (idx *ExpirationIndex[K]) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.keys
}

// BucketSizes returns the number of keys in every bucket, in no particular order
func (idx *ExpirationIndex[K]) BucketSizes() []float64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	sizes := make([]float64, 0, idx.buckets.Len())
	idx.buckets.Range(func(_ int64, _ int64, keys map[K]struct{}) bool {
		sizes = append(sizes, float64(len(keys)))
		return true
	})
	return sizes
}

// Wake returns the channel that receives a value whenever the earliest deadline changed
func (idx *ExpirationIndex[K]) Wake() <-chan struct{} {
	return idx.wake
}

// earliestLocked returns the earliest deadline, idx.mu must be held
func (idx *ExpirationIndex[K]) earliestLocked() (int64, bool) {
	bucket, ok := idx.buckets.Peek()
	if !ok {
		return 0, false
	}
	idx.mustNotBeEmpty(bucket.Key, bucket.Value)
	return bucket.Key, true
}

// signal notifies the reclaimer without blocking
func (idx *ExpirationIndex[K]) signal() {
	select {
	case idx.wake <- struct{}{}:
	default:
	}
}

func (idx *ExpirationIndex[K]) mustNotBeEmpty(expiresAt int64, keys map[K]struct{}) {
	if len(keys) == 0 {
		panic(fmt.Sprintf("expiration index corrupted: bucket %d has no keys", expiresAt))
	}
}

func keysOf[K comparable](set map[K]struct{}) []K {
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
