package internal

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry Type (value with its deadline)
// --------------------------------------------------------------------------

// Entry is the value stored for a live key
type Entry[V any] struct {
	Value     V     // User payload
	ExpiresAt int64 // Absolute deadline in milliseconds on the owning map's clock
}

// Expired returns true if the entry's deadline has been reached at now
func (e Entry[V]) Expired(now int64) bool {
	return now >= e.ExpiresAt
}

// --------------------------------------------------------------------------
// Entry Store
// --------------------------------------------------------------------------

// EntryStore is the authoritative key -> entry mapping of an expiring map.
//
// Every mutation runs inside xsync's per-key critical section (MapOf.Compute). The optional
// hooks passed to the mutators run inside that section too, after the old state is known and
// before the new state becomes visible to readers. The store itself knows nothing about the
// expiration index; callers use the hooks to keep it in step.
type EntryStore[K comparable, V any] struct {
	data *xsync.MapOf[K, Entry[V]]
}

// NewEntryStore creates an empty store. presize is a hint for the expected number of keys,
// values <= 0 use xsync's default.
func NewEntryStore[K comparable, V any](presize int) *EntryStore[K, V] {
	if presize > 0 {
		return &EntryStore[K, V]{data: xsync.NewMapOf[K, Entry[V]](xsync.WithPresize(presize))}
	}
	return &EntryStore[K, V]{data: xsync.NewMapOf[K, Entry[V]]()}
}

// InsertOrReplace stores value under key with the given deadline.
// onSwap (may be nil) is called with the previous deadline and whether a previous entry existed.
// Returns the previous deadline and true if an entry was replaced.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *EntryStore[K, V]) InsertOrReplace(key K, value V, expiresAt int64, onSwap func(prevExpiresAt int64, replaced bool)) (int64, bool) {
	var (
		prev     int64
		replaced bool
	)

	s.data.Compute(key, func(old Entry[V], loaded bool) (Entry[V], bool) {
		if loaded {
			prev, replaced = old.ExpiresAt, true
		}
		if onSwap != nil {
			onSwap(prev, replaced)
		}
		return Entry[V]{Value: value, ExpiresAt: expiresAt}, false
	})

	return prev, replaced
}

// Lookup returns the entry stored under key.
// It does not check the deadline, see Entry.Expired.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *EntryStore[K, V]) Lookup(key K) (Entry[V], bool) {
	return s.data.Load(key)
}

// Delete removes key. onDelete (may be nil) is called with the removed entry's deadline.
// Returns the removed deadline and true if the key existed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *EntryStore[K, V]) Delete(key K, onDelete func(expiresAt int64)) (int64, bool) {
	var (
		expiresAt int64
		existed   bool
	)

	s.data.Compute(key, func(old Entry[V], loaded bool) (Entry[V], bool) {
		if !loaded {
			// delete of a missing key is a no-op for xsync
			return old, true
		}
		expiresAt, existed = old.ExpiresAt, true
		if onDelete != nil {
			onDelete(old.ExpiresAt)
		}
		return old, true
	})

	return expiresAt, existed
}

// DeleteIfExpiresAt removes key only if its entry still carries the given deadline.
// This is the compare-and-delete used by the reclaimer: a key that was removed or re-inserted
// with another deadline since it was scheduled is left alone.
// onDelete (may be nil) is called with the removed value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *EntryStore[K, V]) DeleteIfExpiresAt(key K, expiresAt int64, onDelete func(value V)) (V, bool) {
	var (
		removed V
		ok      bool
	)

	s.data.Compute(key, func(old Entry[V], loaded bool) (Entry[V], bool) {
		if !loaded {
			return old, true
		}
		if old.ExpiresAt != expiresAt {
			// the key was re-inserted with another deadline, keep it
			return old, false
		}
		removed, ok = old.Value, true
		if onDelete != nil {
			onDelete(old.Value)
		}
		return old, true
	})

	return removed, ok
}

// Range calls fn for every entry until fn returns false.
// The iteration is not a snapshot, see xsync.MapOf.Range.
func (s *EntryStore[K, V]) Range(fn func(key K, entry Entry[V]) bool) {
	s.data.Range(fn)
}

// Size returns the number of stored entries, including entries that are due but not yet reclaimed
func (s *EntryStore[K, V]) Size() int {
	return s.data.Size()
}

// IsEmpty returns true if the store holds no entries
func (s *EntryStore[K, V]) IsEmpty() bool {
	return s.data.Size() == 0
}
