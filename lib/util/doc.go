// Package util provides the data structures the expiring map is built from.
//
// The package contains:
//   - mapheap: A generic priority queue that also supports key-based access, used to order expiration buckets
//   - lockfreempsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue used to deliver eviction events
//   - statistics: Summary statistics used to describe the occupancy of expiration buckets
//
// None of the types except LockFreeMPSC are safe for concurrent use on their own; callers
// provide the synchronization.
package util
