package internal

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// --------------------------------------------------------------------------
// Entry Store
// --------------------------------------------------------------------------

func TestEntryStoreInsertOrReplace(t *testing.T) {
	s := NewEntryStore[string, int](0)

	var hookCalls int
	prev, replaced := s.InsertOrReplace("a", 1, 100, func(prev int64, replaced bool) {
		hookCalls++
		if replaced {
			t.Errorf("first insert reported replaced with prev %d", prev)
		}
	})
	if replaced || prev != 0 {
		t.Errorf("InsertOrReplace on new key = (%d, %v), want (0, false)", prev, replaced)
	}

	prev, replaced = s.InsertOrReplace("a", 2, 200, func(p int64, r bool) {
		hookCalls++
		if !r || p != 100 {
			t.Errorf("hook got (%d, %v), want (100, true)", p, r)
		}
	})
	if !replaced || prev != 100 {
		t.Errorf("InsertOrReplace on existing key = (%d, %v), want (100, true)", prev, replaced)
	}
	if hookCalls != 2 {
		t.Errorf("hook was called %d times, want 2", hookCalls)
	}

	e, ok := s.Lookup("a")
	if !ok || e.Value != 2 || e.ExpiresAt != 200 {
		t.Errorf("Lookup = (%d, %d, %v), want (2, 200, true)", e.Value, e.ExpiresAt, ok)
	}
	if s.Size() != 1 {
		t.Errorf("Size = %d, want 1", s.Size())
	}
}

func TestEntryStoreDelete(t *testing.T) {
	s := NewEntryStore[string, string](16)

	if _, ok := s.Delete("missing", func(int64) { t.Error("hook called for missing key") }); ok {
		t.Error("Delete of missing key returned true")
	}

	s.InsertOrReplace("k", "v", 42, nil)

	var hookExp int64
	exp, ok := s.Delete("k", func(e int64) { hookExp = e })
	if !ok || exp != 42 || hookExp != 42 {
		t.Errorf("Delete = (%d, %v) hook %d, want (42, true) hook 42", exp, ok, hookExp)
	}
	if !s.IsEmpty() {
		t.Error("store should be empty after delete")
	}
	if _, ok := s.Lookup("k"); ok {
		t.Error("deleted key still visible")
	}
}

func TestEntryStoreDeleteIfExpiresAt(t *testing.T) {
	s := NewEntryStore[string, string](0)
	s.InsertOrReplace("k", "v1", 10, nil)

	t.Run("Mismatch", func(t *testing.T) {
		if _, ok := s.DeleteIfExpiresAt("k", 9, func(string) { t.Error("hook called on mismatch") }); ok {
			t.Error("DeleteIfExpiresAt with a stale deadline removed the entry")
		}
		if _, ok := s.Lookup("k"); !ok {
			t.Error("entry disappeared after a mismatched compare-and-delete")
		}
	})

	t.Run("Match", func(t *testing.T) {
		var hookVal string
		v, ok := s.DeleteIfExpiresAt("k", 10, func(v string) { hookVal = v })
		if !ok || v != "v1" || hookVal != "v1" {
			t.Errorf("DeleteIfExpiresAt = (%q, %v) hook %q, want (v1, true) hook v1", v, ok, hookVal)
		}
		if !s.IsEmpty() {
			t.Error("store should be empty")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, ok := s.DeleteIfExpiresAt("k", 10, nil); ok {
			t.Error("DeleteIfExpiresAt of a missing key returned true")
		}
		if s.Size() != 0 {
			t.Error("compare-and-delete of a missing key must not insert it")
		}
	})
}

func TestEntryExpired(t *testing.T) {
	e := Entry[int]{Value: 1, ExpiresAt: 100}
	if e.Expired(99) {
		t.Error("entry expired before its deadline")
	}
	if !e.Expired(100) {
		t.Error("entry not expired at its deadline")
	}
}

// --------------------------------------------------------------------------
// Expiration Index
// --------------------------------------------------------------------------

func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}

func TestIndexSharedBucket(t *testing.T) {
	idx := NewExpirationIndex[string]()

	idx.Schedule(1000, "k1")
	idx.Schedule(1000, "k2")

	if idx.Size() != 1 {
		t.Fatalf("two keys with one deadline should share a bucket, got %d buckets", idx.Size())
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}

	exp, keys, ok := idx.PeekEarliest()
	if !ok || exp != 1000 {
		t.Fatalf("PeekEarliest = (%d, %v), want (1000, true)", exp, ok)
	}
	if got := sortedKeys(keys); len(got) != 2 || got[0] != "k1" || got[1] != "k2" {
		t.Errorf("bucket keys = %v, want [k1 k2]", got)
	}

	// cancel one key, the bucket stays
	if !idx.Cancel(1000, "k1") {
		t.Fatal("Cancel of a scheduled pair returned false")
	}
	_, keys, _ = idx.PeekEarliest()
	if len(keys) != 1 || keys[0] != "k2" {
		t.Errorf("bucket keys after cancel = %v, want [k2]", keys)
	}
	if idx.Contains(1000, "k1") {
		t.Error("cancelled key still contained")
	}

	// cancel the last key, the bucket is pruned
	idx.Cancel(1000, "k2")
	if idx.Size() != 0 || idx.Len() != 0 {
		t.Errorf("index should be empty, has %d buckets and %d keys", idx.Size(), idx.Len())
	}
	if _, _, ok := idx.PeekEarliest(); ok {
		t.Error("PeekEarliest on empty index returned ok")
	}
}

func TestIndexCancelAbsent(t *testing.T) {
	idx := NewExpirationIndex[string]()
	idx.Schedule(5, "a")

	if idx.Cancel(6, "a") {
		t.Error("Cancel with wrong deadline returned true")
	}
	if idx.Cancel(5, "b") {
		t.Error("Cancel of unscheduled key returned true")
	}
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}
}

func TestIndexScheduleIdempotent(t *testing.T) {
	idx := NewExpirationIndex[int]()
	idx.Schedule(5, 1)
	idx.Schedule(5, 1)

	if idx.Len() != 1 {
		t.Errorf("scheduling the same pair twice counted %d keys", idx.Len())
	}
}

func TestIndexPopEarliestIfDue(t *testing.T) {
	idx := NewExpirationIndex[string]()
	idx.Schedule(300, "c")
	idx.Schedule(100, "a")
	idx.Schedule(200, "b")

	if _, _, ok := idx.PopEarliestIfDue(99); ok {
		t.Fatal("bucket popped before it was due")
	}

	exp, keys, ok := idx.PopEarliestIfDue(100)
	if !ok || exp != 100 || len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("PopEarliestIfDue(100) = (%d, %v, %v), want (100, [a], true)", exp, keys, ok)
	}

	var order []int64
	for {
		exp, _, ok := idx.PopEarliestIfDue(1_000)
		if !ok {
			break
		}
		order = append(order, exp)
	}
	if len(order) != 2 || order[0] != 200 || order[1] != 300 {
		t.Errorf("pop order = %v, want [200 300]", order)
	}
	if idx.Len() != 0 || idx.Size() != 0 {
		t.Errorf("index should be empty after popping everything")
	}
}

func TestIndexWakeSignals(t *testing.T) {
	idx := NewExpirationIndex[string]()

	drain := func() bool {
		select {
		case <-idx.Wake():
			return true
		default:
			return false
		}
	}

	idx.Schedule(500, "a")
	if !drain() {
		t.Error("first schedule should signal")
	}

	idx.Schedule(900, "b")
	if drain() {
		t.Error("a later deadline should not signal")
	}

	idx.Schedule(100, "c")
	if !drain() {
		t.Error("an earlier deadline should signal")
	}

	idx.Cancel(900, "b")
	if drain() {
		t.Error("cancelling a non-earliest bucket should not signal")
	}

	idx.Cancel(100, "c")
	if !drain() {
		t.Error("pruning the earliest bucket should signal")
	}

	// signals collapse instead of blocking
	idx.Schedule(50, "d")
	idx.Schedule(10, "e")
	if !drain() {
		t.Error("expected a pending signal")
	}
	if drain() {
		t.Error("signals should collapse into one")
	}
}

func TestIndexBucketSizes(t *testing.T) {
	idx := NewExpirationIndex[int]()
	for i := 0; i < 6; i++ {
		idx.Schedule(int64(i%3), i)
	}

	sizes := idx.BucketSizes()
	if len(sizes) != 3 {
		t.Fatalf("BucketSizes returned %d buckets, want 3", len(sizes))
	}
	for _, s := range sizes {
		if s != 2 {
			t.Errorf("bucket size %f, want 2", s)
		}
	}
}

// TestIndexConcurrent schedules and cancels from many goroutines and checks the final counts
func TestIndexConcurrent(t *testing.T) {
	idx := NewExpirationIndex[int]()

	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := w*perWorker + i
				idx.Schedule(int64(key%37), key)
				if i%2 == 0 {
					idx.Cancel(int64(key%37), key)
				}
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent schedule/cancel did not finish")
	}

	if want := workers * perWorker / 2; idx.Len() != want {
		t.Errorf("Len = %d, want %d", idx.Len(), want)
	}

	total := 0
	for _, s := range idx.BucketSizes() {
		if s == 0 {
			t.Error("found an empty bucket")
		}
		total += int(s)
	}
	if total != idx.Len() {
		t.Errorf("bucket sizes sum to %d, Len is %d", total, idx.Len())
	}
}
