package expmap

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/expmap/lib/expmap/internal"
	"github.com/ValentinKolb/expmap/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("expmap")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures an expiring map during initialization
type Options[K comparable, V any] struct {
	Name    string               // Used in log lines and as the "map" metrics label
	OnEvict func(key K, value V) // Called once for every entry removed by the reclaimer (nil = no listener)
	Metrics *metrics.Set         // Set the map registers its metrics in (nil = a private set)
	Presize int                  // Expected number of keys (0 = xsync default)
}

// DefaultOptions returns the default options
func DefaultOptions[K comparable, V any]() *Options[K, V] {
	return &Options[K, V]{
		Name: "default",
	}
}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// evictEvent carries an evicted entry to the eviction listener
type evictEvent[K comparable, V any] struct {
	key   K
	value V
}

// expireMap implements IExpireMap on top of an EntryStore and an ExpirationIndex.
//
// Deadlines are milliseconds since start on the monotonic clock, so wall clock jumps never
// expire or revive entries.
type expireMap[K comparable, V any] struct {
	name  string
	start time.Time
	store *internal.EntryStore[K, V]
	index *internal.ExpirationIndex[K]

	// reclaimer lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	reclaimer sync.WaitGroup
	closed    atomic.Bool

	// eviction listener
	onEvict    func(key K, value V)
	events     *util.LockFreeMPSC[evictEvent[K, V]]
	dispatcher sync.WaitGroup

	metrics *mapMetrics
}

// NewExpireMap creates a new expiring map with the specified options (optional) and starts its reclaimer.
// Call Close to stop the reclaimer.
func NewExpireMap[K comparable, V any](opts *Options[K, V]) IExpireMap[K, V] {
	if opts == nil {
		opts = DefaultOptions[K, V]()
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &expireMap[K, V]{
		name:    name,
		start:   time.Now(),
		store:   internal.NewEntryStore[K, V](opts.Presize),
		index:   internal.NewExpirationIndex[K](),
		ctx:     ctx,
		cancel:  cancel,
		onEvict: opts.OnEvict,
	}

	m.metrics = newMapMetrics(opts.Metrics, name,
		func() float64 { return float64(m.store.Size()) },
		func() float64 { return float64(m.index.Size()) },
	)

	if m.onEvict != nil {
		m.events = util.NewLockFreeMPSC[evictEvent[K, V]]()
		m.dispatcher.Add(1)
		go m.dispatch()
	}

	m.reclaimer.Add(1)
	go m.reclaim()

	log.Debugf("map %q: created", name)
	return m
}

// --------------------------------------------------------------------------
// Clock
// --------------------------------------------------------------------------

// now returns the current time in milliseconds on the map's clock
func (m *expireMap[K, V]) now() int64 {
	return time.Since(m.start).Milliseconds()
}

// deadline converts a timeout into an absolute deadline, saturating instead of overflowing.
//
// now() rounds down, so the deadline is rounded up to the next millisecond: an entry is never
// reported expired before its full timeout elapsed. A zero timeout yields the current
// millisecond, which is already due.
func (m *expireMap[K, V]) deadline(timeout time.Duration) int64 {
	elapsed := time.Since(m.start)
	if timeout == 0 {
		return elapsed.Milliseconds()
	}
	if timeout > time.Duration(math.MaxInt64)-elapsed {
		return math.MaxInt64
	}

	end := elapsed + timeout
	ms := int64(end / time.Millisecond)
	if end%time.Millisecond != 0 {
		ms++
	}
	return ms
}

// msToDuration converts a millisecond span into a Duration, saturating at the largest Duration
func msToDuration(ms int64) time.Duration {
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// --------------------------------------------------------------------------
// IExpireMap Interface Methods
// --------------------------------------------------------------------------

// Put inserts or replaces the entry for key.
//
// The index is updated inside the store's per-key critical section: the old deadline is cancelled
// and the new one scheduled before the new entry becomes visible. Concurrent puts of the same key
// are therefore serialized and never leave a stale schedule behind.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *expireMap[K, V]) Put(key K, value V, timeout time.Duration) error {
	if timeout < 0 {
		return NewError(RetCInvalidOperation, fmt.Sprintf("timeout must not be negative, got %s", timeout))
	}
	if m.closed.Load() {
		return ErrClosed
	}

	expiresAt := m.deadline(timeout)

	m.store.InsertOrReplace(key, value, expiresAt, func(prev int64, replaced bool) {
		if replaced {
			m.index.Cancel(prev, key)
			m.metrics.overwrites.Inc()
		}
		m.index.Schedule(expiresAt, key)
	})
	m.metrics.puts.Inc()

	return nil
}

// Get returns the value for key if it exists and has not expired.
// An entry whose deadline passed is reported as missing even if the reclaimer has not removed it yet.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *expireMap[K, V]) Get(key K) (V, bool) {
	entry, ok := m.store.Lookup(key)
	if !ok || entry.Expired(m.now()) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Remove deletes the entry for key together with its schedule
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *expireMap[K, V]) Remove(key K) bool {
	_, ok := m.store.Delete(key, func(expiresAt int64) {
		m.index.Cancel(expiresAt, key)
	})
	if ok {
		m.metrics.removes.Inc()
	}
	return ok
}

// Has returns whether a live entry exists for key
func (m *expireMap[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// TTL returns the remaining lifetime of the entry for key
func (m *expireMap[K, V]) TTL(key K) (time.Duration, bool) {
	entry, ok := m.store.Lookup(key)
	elapsed := time.Since(m.start)
	if !ok || entry.Expired(elapsed.Milliseconds()) {
		return 0, false
	}
	return msToDuration(entry.ExpiresAt) - elapsed, true
}

// Size returns the number of stored entries
func (m *expireMap[K, V]) Size() int {
	return m.store.Size()
}

// IsEmpty returns whether the map holds no entries
func (m *expireMap[K, V]) IsEmpty() bool {
	return m.store.IsEmpty()
}

// Info returns statistics about the map
func (m *expireMap[K, V]) Info() Info {
	next := time.Duration(-1)
	if deadline, ok := m.index.NextDeadline(); ok {
		next = msToDuration(max(deadline-m.now(), 0))
	}

	return Info{
		Name:           m.name,
		Entries:        m.store.Size(),
		Buckets:        m.index.Size(),
		ScheduledKeys:  m.index.Len(),
		NextDeadlineIn: next,
		Puts:           m.metrics.puts.Get(),
		Overwrites:     m.metrics.overwrites.Get(),
		Removes:        m.metrics.removes.Get(),
		Evictions:      m.metrics.evictions.Get(),
		Sweeps:         m.metrics.sweeps.Get(),
		BucketStats:    util.NewDistributionStats(m.index.BucketSizes()),
		SweepLagP50Ms:  m.metrics.lag.Percentile(0.5),
		SweepLagP99Ms:  m.metrics.lag.Percentile(0.99),
		Closed:         m.closed.Load(),
	}
}

// WriteMetrics writes the map's metrics in the Prometheus text format
func (m *expireMap[K, V]) WriteMetrics(w io.Writer) {
	m.metrics.write(w)
}

// Close stops the reclaimer and waits until every pending eviction event was delivered.
// Entries still in the map stay readable until they expire; they are no longer reclaimed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *expireMap[K, V]) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	m.cancel()
	m.reclaimer.Wait()

	// the reclaimer is the only producer, after it stopped no event can be lost
	if m.events != nil {
		m.events.Close()
		m.dispatcher.Wait()
	}

	m.metrics.stop()
	log.Debugf("map %q: closed with %d entries", m.name, m.store.Size())
	return nil
}

// --------------------------------------------------------------------------
// Eviction listener
// --------------------------------------------------------------------------

// dispatch delivers eviction events to the listener until the event queue is closed and drained
func (m *expireMap[K, V]) dispatch() {
	defer m.dispatcher.Done()

	for ev := range m.events.Recv() {
		m.notify(ev)
	}
}

// notify calls the listener, a panic in user code is logged and swallowed
func (m *expireMap[K, V]) notify(ev *evictEvent[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("map %q: eviction listener panicked for key %v: %v", m.name, ev.key, r)
		}
	}()
	m.onEvict(ev.key, ev.value)
}
