// Package expmap provides a concurrent map whose entries expire a fixed time after they were put.
//
// Expired entries are removed proactively: every map runs one reclaimer goroutine that sleeps
// until the earliest deadline, evicts every entry that is due and sleeps again. Readers never
// have to touch an entry for it to be removed.
//
// A map is composed of two independently synchronized parts:
//
//   - an entry store (xsync.MapOf) that owns the key -> (value, deadline) mapping
//   - an expiration index that groups keys by deadline in a heap of buckets
//
// Index updates run inside the entry store's per-key critical section, so for every live key
// the index holds exactly one schedule, the one matching the entry's deadline. The reclaimer
// evicts with a compare-and-delete on the deadline, so a key re-inserted with a new timeout is
// never evicted for its old one.
//
// Usage:
//
//	m := expmap.NewExpireMap[string, []byte](&expmap.Options[string, []byte]{
//		Name: "sessions",
//		OnEvict: func(key string, _ []byte) {
//			fmt.Println("expired:", key)
//		},
//	})
//	defer m.Close()
//
//	_ = m.Put("token", []byte("..."), 30*time.Second)
//	value, ok := m.Get("token")
//
// Deadlines have millisecond granularity and are measured on a monotonic clock private to the
// map. A zero timeout makes an entry invisible to Get immediately; it is removed on the next sweep.
package expmap
