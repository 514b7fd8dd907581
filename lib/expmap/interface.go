package expmap

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/expmap/lib/util"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IExpireMap is a concurrent map whose entries expire a fixed time after they were put.
// Expired entries are removed by a background reclaimer without any reader touching them.
//
// Read operations never fail: a missing or expired key is reported as (zero value, false).
// Write operations return a *Error (nil on success).
type IExpireMap[K comparable, V any] interface {
	// Put inserts or replaces the entry for key. The entry expires timeout after the call.
	// A zero timeout makes the entry invisible immediately and it is reclaimed on the next sweep.
	// A negative timeout is rejected with RetCInvalidOperation, a closed map with ErrClosed.
	Put(key K, value V, timeout time.Duration) (err error)
	// Get returns the value for key. The boolean is false if the key is missing or expired.
	Get(key K) (value V, loaded bool)
	// Remove deletes the entry for key and returns whether it existed. Removing a missing key is a no-op.
	Remove(key K) (removed bool)
	// Has returns whether a live, unexpired entry exists for key.
	Has(key K) (loaded bool)
	// TTL returns the remaining lifetime of the entry for key.
	TTL(key K) (remaining time.Duration, loaded bool)
	// Size returns the number of stored entries. Entries that are due but not yet reclaimed are counted.
	Size() int
	// IsEmpty returns whether Size() is zero.
	IsEmpty() bool
	// Info returns statistics about the map. All values are a best-effort snapshot.
	Info() Info
	// WriteMetrics writes the map's metrics in the Prometheus text format.
	WriteMetrics(w io.Writer)
	// Close stops the reclaimer and delivers pending eviction events. Close is idempotent.
	Close() error
}

// Info describes the state of an expiring map
type Info struct {
	Name           string                 `json:"name"`
	Entries        int                    `json:"entries"`
	Buckets        int                    `json:"buckets"`
	ScheduledKeys  int                    `json:"scheduled_keys"`
	NextDeadlineIn time.Duration          `json:"next_deadline_in"` // -1 if nothing is scheduled
	Puts           uint64                 `json:"puts"`
	Overwrites     uint64                 `json:"overwrites"`
	Removes        uint64                 `json:"removes"`
	Evictions      uint64                 `json:"evictions"`
	Sweeps         uint64                 `json:"sweeps"`
	BucketStats    util.DistributionStats `json:"bucket_stats"`
	SweepLagP50Ms  float64                `json:"sweep_lag_p50_ms"`
	SweepLagP99Ms  float64                `json:"sweep_lag_p99_ms"`
	Closed         bool                   `json:"closed"`
}

func (i Info) String() string {
	return fmt.Sprintf(`Map %q:
  Entries: %d
  Buckets: %d (scheduled keys: %d, mean keys per bucket: %.2f)
  Next Deadline In: %s
  Puts: %d (overwrites: %d)
  Removes: %d
  Evictions: %d in %d sweeps (lag p50 %.1fms, p99 %.1fms)
  Closed: %t`,
		i.Name, i.Entries, i.Buckets, i.ScheduledKeys, i.BucketStats.Mean, i.NextDeadlineIn,
		i.Puts, i.Overwrites, i.Removes, i.Evictions, i.Sweeps, i.SweepLagP50Ms, i.SweepLagP99Ms, i.Closed)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ExpireMapError (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is an *Error with the same code, so errors.Is(err, ErrClosed) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// ErrClosed is returned by write operations on a closed map
var ErrClosed = NewError(RetCClosed, "map is closed")

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported.
	RetCInvalidOperation                    // 3: Invalid operation (e.g. negative timeout).
	RetCClosed                              // 4: The map was closed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
