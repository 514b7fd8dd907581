package expmap

import (
	"time"
)

// reclaim is the reclaimer loop of a map. It runs in its own goroutine until the map is closed.
//
// Each iteration sweeps every due bucket and then sleeps. With nothing scheduled it waits for a
// wake signal only, otherwise also until the earliest deadline. Every wake recomputes the earliest
// deadline from the index, so early or spurious wakes are harmless.
//
// WARNING: this method should never be called directly, NewExpireMap starts it.
func (m *expireMap[K, V]) reclaim() {
	defer m.reclaimer.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		m.sweep()

		deadline, scheduled := m.index.NextDeadline()
		if !scheduled {
			// idle wait
			select {
			case <-m.index.Wake():
			case <-m.ctx.Done():
				return
			}
			continue
		}

		wait := deadline - m.now()
		if wait <= 0 {
			continue
		}

		// timed wait
		timer.Reset(msToDuration(wait))
		select {
		case <-timer.C:
		case <-m.index.Wake():
			timer.Stop()
		case <-m.ctx.Done():
			return
		}
	}
}

// sweep evicts the keys of every bucket that is due.
//
// The current time is read once per sweep. Buckets that become due while sweeping are handled
// by the next sweep, so a steady stream of short-lived puts cannot keep the reclaimer in here.
func (m *expireMap[K, V]) sweep() {
	var (
		start   = time.Now()
		now     = m.now()
		buckets int
		evicted int
	)

	for {
		expiresAt, keys, ok := m.index.PopEarliestIfDue(now)
		if !ok {
			break
		}
		buckets++
		m.metrics.lag.Update(now - expiresAt)

		for _, key := range keys {
			if m.evict(key, expiresAt) {
				evicted++
			}
		}
	}

	if buckets == 0 {
		return
	}

	m.metrics.sweep.UpdateSince(start)
	m.metrics.sweeps.Inc()
	log.Debugf("map %q: swept %d buckets, evicted %d keys in %s", m.name, buckets, evicted, time.Since(start))
}

// evict removes key if it still carries the deadline of the popped bucket.
//
// The bucket was already taken out of the index, but a concurrent put may have re-inserted the key
// with the very same deadline and scheduled it again. The Cancel hook removes that schedule together
// with the entry; in every other case it is a no-op.
func (m *expireMap[K, V]) evict(key K, expiresAt int64) bool {
	value, ok := m.store.DeleteIfExpiresAt(key, expiresAt, func(V) {
		m.index.Cancel(expiresAt, key)
	})
	if !ok {
		return false
	}

	m.metrics.evictions.Inc()
	if m.events != nil {
		m.events.Push(&evictEvent[K, V]{key: key, value: value})
	}
	return true
}
