package util

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestPushRecv tests that values pushed by a single producer arrive in order
func TestPushRecv(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		v := i
		if !q.Push(&v) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case val := <-q.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %d", i, *val)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	select {
	case val := <-q.Recv():
		t.Errorf("Queue should be empty, but got %v", *val)
	case <-time.After(10 * time.Millisecond):
	}
}

// TestPushNil tests that nil values are rejected
func TestPushNil(t *testing.T) {
	q := NewLockFreeMPSC[string]()
	defer q.Close()

	if q.Push(nil) {
		t.Error("Push(nil) should return false")
	}
}

// TestManyProducers verifies that no value is lost or duplicated with concurrent producers
func TestManyProducers(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	const producers = 8
	const perProducer = 2000
	total := producers * perProducer

	seen := make([]bool, total)
	done := make(chan int)

	go func() {
		count := 0
		for val := range q.Recv() {
			if seen[*val] {
				t.Errorf("Duplicate item received: %d", *val)
			}
			seen[*val] = true
			count++
		}
		done <- count
	}()

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := id*perProducer + i
				if !q.Push(&v) {
					t.Errorf("Producer %d failed to push item %d", id, i)
				}
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}
	wg.Wait()
	q.Close()

	select {
	case count := <-done:
		if count != total {
			t.Errorf("Expected %d items, got %d", total, count)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for consumer to drain the queue")
	}
}

// TestCloseDrains verifies that values pushed before Close are delivered and the channel is closed afterwards
func TestCloseDrains(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	for i := 0; i < 5; i++ {
		v := i
		q.Push(&v)
	}
	q.Close()

	if !q.IsClosed() {
		t.Error("IsClosed should return true after Close")
	}

	late := 100
	if q.Push(&late) {
		t.Error("Should not be able to push after queue is closed")
	}

	for i := 0; i < 5; i++ {
		select {
		case val, ok := <-q.Recv():
			if !ok {
				t.Fatalf("Channel closed before item %d was delivered", i)
			}
			if *val != i {
				t.Errorf("Expected %d, got %d", i, *val)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for item %d after close", i)
		}
	}

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("Channel should be closed but is still open")
		}
	case <-time.After(time.Second):
		t.Error("Channel was not closed after draining")
	}
}

// TestCloseEmpty verifies that closing an idle queue releases the forwarding goroutine
func TestCloseEmpty(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	// let the forwarder park first
	time.Sleep(5 * time.Millisecond)
	q.Close()

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("Empty closed queue should not deliver values")
		}
	case <-time.After(time.Second):
		t.Fatal("Closing an idle queue did not close Recv()")
	}
}

// BenchmarkMPSCPush benchmarks concurrent producers against one draining consumer
func BenchmarkMPSCPush(b *testing.B) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	go func() {
		for range q.Recv() {
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			v := i
			q.Push(&v)
			i++
		}
	})
}
