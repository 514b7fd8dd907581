package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/expmap/lib/expmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MapFactory is a function that creates a new instance of an IExpireMap implementation
type MapFactory func() expmap.IExpireMap[string, []byte]

// how long the suite waits for the reclaimer before failing
const (
	evictionTimeout = 2 * time.Second
	pollInterval    = 5 * time.Millisecond
)

// RunExpireMapTests runs a comprehensive test suite for an IExpireMap implementation.
func RunExpireMapTests(t *testing.T, name string, factory MapFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory())
		})

		t.Run("Expiry", func(t *testing.T) {
			testExpiry(t, factory())
		})

		t.Run("OverwriteShorter", func(t *testing.T) {
			testOverwriteShorter(t, factory())
		})

		t.Run("OverwriteLonger", func(t *testing.T) {
			testOverwriteLonger(t, factory())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory())
		})

		t.Run("ManyDeadlines", func(t *testing.T) {
			testManyDeadlines(t, factory())
		})

		t.Run("ShortTimeoutVisible", func(t *testing.T) {
			testShortTimeoutVisible(t, factory())
		})

		t.Run("ZeroTimeout", func(t *testing.T) {
			testZeroTimeout(t, factory())
		})

		t.Run("InvalidTimeout", func(t *testing.T) {
			testInvalidTimeout(t, factory())
		})

		t.Run("TTL", func(t *testing.T) {
			testTTL(t, factory())
		})

		t.Run("ConcurrentReinsert", func(t *testing.T) {
			testConcurrentReinsert(t, factory())
		})

		t.Run("ConcurrentMixed", func(t *testing.T) {
			testConcurrentMixed(t, factory())
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireEvicted waits until key is gone and the map holds at most size entries
func requireEvicted(t *testing.T, m expmap.IExpireMap[string, []byte], key string, size int) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := m.Get(key)
		return !ok && m.Size() <= size
	}, evictionTimeout, pollInterval, "key %q was not evicted", key)
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.True(t, m.IsEmpty())

	require.NoError(t, m.Put("k", []byte("v1"), time.Minute))
	value, ok := m.Get("k")
	require.True(t, ok, "key should be visible right after Put")
	assert.Equal(t, []byte("v1"), value)

	require.NoError(t, m.Put("k", []byte("v2"), time.Minute))
	value, ok = m.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), value)
	assert.Equal(t, 1, m.Size(), "overwriting must not add an entry")
	assert.True(t, m.Has("k"))

	_, ok = m.Get("nonexistent-key")
	assert.False(t, ok)
	assert.False(t, m.Has("nonexistent-key"))
}

func testExpiry(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.NoError(t, m.Put("short", []byte("v"), 100*time.Millisecond))
	require.NoError(t, m.Put("long", []byte("v"), time.Minute))

	_, ok := m.Get("short")
	require.True(t, ok)

	requireEvicted(t, m, "short", 1)

	_, ok = m.Get("long")
	assert.True(t, ok, "a key with a long timeout must survive the eviction of another key")
	assert.Equal(t, 1, m.Size())
}

func testOverwriteShorter(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.NoError(t, m.Put("k", []byte("old"), time.Hour))
	require.NoError(t, m.Put("k", []byte("new"), 50*time.Millisecond))

	requireEvicted(t, m, "k", 0)
	assert.True(t, m.IsEmpty())
}

func testOverwriteLonger(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.NoError(t, m.Put("k", []byte("old"), 50*time.Millisecond))
	require.NoError(t, m.Put("k", []byte("new"), time.Minute))

	// well past the first deadline
	time.Sleep(250 * time.Millisecond)

	value, ok := m.Get("k")
	require.True(t, ok, "the old deadline must not evict the re-inserted key")
	assert.Equal(t, []byte("new"), value)
	assert.Equal(t, 1, m.Size())
}

func testRemove(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.NoError(t, m.Put("k", []byte("v"), 50*time.Millisecond))
	assert.True(t, m.Remove("k"))

	_, ok := m.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Size())
	assert.False(t, m.Remove("k"), "removing a missing key is a no-op")

	// nothing left to evict, the map stays empty past the old deadline
	time.Sleep(150 * time.Millisecond)
	assert.True(t, m.IsEmpty())
}

func testManyDeadlines(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	const numKeys = 500
	for i := 0; i < numKeys; i++ {
		timeout := time.Duration(10+i%100) * time.Millisecond
		require.NoError(t, m.Put(fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)), timeout))
	}

	require.Eventually(t, func() bool {
		return m.Size() == 0
	}, evictionTimeout, pollInterval, "not every key was evicted, %d left", m.Size())

	for i := 0; i < numKeys; i++ {
		_, ok := m.Get(fmt.Sprintf("key-%d", i))
		require.False(t, ok)
	}
}

// testShortTimeoutVisible checks that an entry is readable right after Put even if its timeout
// is only a millisecond, wherever inside the current millisecond the Put happens
func testShortTimeoutVisible(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	const rounds = 20_000
	misses := 0
	for i := 0; i < rounds; i++ {
		key := fmt.Sprintf("k%d", i%100)
		require.NoError(t, m.Put(key, []byte("v"), time.Millisecond))
		if _, ok := m.Get(key); !ok {
			misses++
		}
	}
	assert.Zero(t, misses, "%d of %d entries were not visible right after Put", misses, rounds)
}

func testZeroTimeout(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.NoError(t, m.Put("k", []byte("v"), 0))

	_, ok := m.Get("k")
	assert.False(t, ok, "an entry with zero timeout is expired immediately")

	requireEvicted(t, m, "k", 0)
}

func testInvalidTimeout(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	err := m.Put("k", []byte("v"), -time.Second)
	require.Error(t, err)

	var mapErr *expmap.Error
	require.True(t, errors.As(err, &mapErr), "expected *expmap.Error, got %T", err)
	assert.Equal(t, expmap.RetCInvalidOperation, mapErr.Code)
	assert.Equal(t, 0, m.Size(), "a rejected put must not store anything")
}

func testTTL(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	require.NoError(t, m.Put("k", []byte("v"), 10*time.Second))

	ttl, ok := m.TTL("k")
	require.True(t, ok)
	// deadlines are rounded up to the next millisecond
	assert.LessOrEqual(t, ttl, 10*time.Second+time.Millisecond)
	assert.Greater(t, ttl, 9*time.Second)

	_, ok = m.TTL("missing")
	assert.False(t, ok)
}

// testConcurrentReinsert overwrites one key from many goroutines while readers check that every
// value they see is one of the written values in full
func testConcurrentReinsert(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	const (
		writers    = 8
		readers    = 4
		iterations = 2000
		valueSize  = 64
	)

	var (
		wg   sync.WaitGroup
		done atomic.Bool
		torn atomic.Int64
	)

	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			value := bytes.Repeat([]byte{byte('a' + w)}, valueSize)
			for i := 0; i < iterations; i++ {
				// mix short and long timeouts so the reclaimer races the writers
				timeout := time.Duration(i%3) * time.Millisecond
				if i%2 == 0 {
					timeout = time.Minute
				}
				if err := m.Put("shared", value, timeout); err != nil {
					t.Errorf("Put failed: %v", err)
					return
				}
			}
		}(w)
	}

	var rg sync.WaitGroup
	rg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer rg.Done()
			for !done.Load() {
				value, ok := m.Get("shared")
				if !ok {
					continue
				}
				if len(value) != valueSize || !bytes.Equal(value, bytes.Repeat(value[:1], valueSize)) {
					torn.Add(1)
				}
			}
		}()
	}

	wg.Wait()
	done.Store(true)
	rg.Wait()

	assert.Zero(t, torn.Load(), "readers observed torn values")
	assert.LessOrEqual(t, m.Size(), 1)

	// whichever put won, the key must end up with exactly one deadline and be evictable
	require.NoError(t, m.Put("shared", []byte("final"), 20*time.Millisecond))
	requireEvicted(t, m, "shared", 0)
}

// testConcurrentMixed runs puts, gets and removes on overlapping keys and checks that the map
// drains completely once every key expired
func testConcurrentMixed(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()

	const (
		workers = 8
		ops     = 1000
		keys    = 50
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				key := fmt.Sprintf("key-%d", (w*ops+i)%keys)
				switch i % 4 {
				case 0, 1:
					_ = m.Put(key, []byte(key), time.Duration(1+i%50)*time.Millisecond)
				case 2:
					if value, ok := m.Get(key); ok && string(value) != key {
						t.Errorf("key %s holds %s", key, value)
					}
				case 3:
					m.Remove(key)
				}
			}
		}(w)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return m.IsEmpty()
	}, evictionTimeout, pollInterval, "map did not drain, %d entries left", m.Size())
}

func testClose(t *testing.T, m expmap.IExpireMap[string, []byte]) {
	require.NoError(t, m.Put("k", []byte("v"), time.Minute))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "Close must be idempotent")

	err := m.Put("other", []byte("v"), time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, expmap.ErrClosed))

	// reads keep working on a closed map
	_, ok := m.Get("k")
	assert.True(t, ok)
}
