package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/expmap/lib/expmap"
)

// RunExpireMapBenchmarks runs all benchmarks for an IExpireMap implementation
func RunExpireMapBenchmarks(b *testing.B, name string, factory MapFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory())
		})

		b.Run("PutExisting", func(b *testing.B) {
			benchmarkPutExisting(b, factory())
		})

		b.Run("PutShortTimeout", func(b *testing.B) {
			benchmarkPutShortTimeout(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Remove", func(b *testing.B) {
			benchmarkRemove(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// keys is shared by the benchmarks so key formatting does not show up in the results
var keys = func() []string {
	k := make([]string, 1<<16)
	for i := range k {
		k[i] = fmt.Sprintf("bench-key-%d", i)
	}
	return k
}()

func benchmarkPut(b *testing.B, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()
	value := []byte("bench-value")

	var counter atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			_ = m.Put(keys[i%uint64(len(keys))], value, time.Hour)
		}
	})
}

func benchmarkPutExisting(b *testing.B, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()
	value := []byte("bench-value")

	for _, k := range keys[:1024] {
		_ = m.Put(k, value, time.Hour)
	}

	var counter atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			// every put moves the key into another bucket
			_ = m.Put(keys[i%1024], value, time.Hour+time.Duration(i%1000)*time.Millisecond)
		}
	})
}

func benchmarkPutShortTimeout(b *testing.B, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()
	value := []byte("bench-value")

	var counter atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			// keeps the reclaimer busy while putting
			_ = m.Put(keys[i%uint64(len(keys))], value, time.Duration(i%5)*time.Millisecond)
		}
	})
}

func benchmarkGet(b *testing.B, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()
	value := []byte("bench-value")

	for _, k := range keys {
		_ = m.Put(k, value, time.Hour)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			m.Get(keys[r.Intn(len(keys))])
		}
	})
}

func benchmarkRemove(b *testing.B, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()
	value := []byte("bench-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		b.StopTimer()
		_ = m.Put(k, value, time.Hour)
		b.StartTimer()
		m.Remove(k)
	}
}

func benchmarkMixedUsage(b *testing.B, m expmap.IExpireMap[string, []byte]) {
	defer m.Close()
	value := []byte("bench-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			k := keys[r.Intn(len(keys))]
			switch op := r.Intn(10); {
			case op < 3:
				_ = m.Put(k, value, time.Duration(1+r.Intn(100))*time.Millisecond)
			case op < 9:
				m.Get(k)
			default:
				m.Remove(k)
			}
		}
	})
}
