package queue

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 3; i++ {
		q.Put(i)
	}

	if q.Len() != 3 {
		t.Errorf("Expected length 3, got %d", q.Len())
	}

	for want := 1; want <= 3; want++ {
		got, ok := q.Get(10 * time.Millisecond)
		if !ok {
			t.Fatalf("Expected item %d, got timeout", want)
		}
		if got != want {
			t.Errorf("Expected %d, got %d", want, got)
		}
	}
}

func TestQueue_GetTimeout(t *testing.T) {
	q := New[string]()

	start := time.Now()
	_, ok := q.Get(50 * time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Error("Expected timeout on empty queue")
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("Expected Get to wait for the timeout, returned after %v", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected Get to return promptly after timeout, took %v", elapsed)
	}
}

func TestQueue_GetWakesOnPut(t *testing.T) {
	q := New[int]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Put(42)
	}()

	got, ok := q.Get(time.Second)
	if !ok || got != 42 {
		t.Errorf("Expected 42, got %d (ok=%v)", got, ok)
	}
}

func TestQueue_TaskDone(t *testing.T) {
	q := New[int]()
	q.Put(1)
	q.Put(2)

	q.Get(0)
	if q.Unfinished() != 2 {
		t.Errorf("Expected 2 unfinished before TaskDone, got %d", q.Unfinished())
	}

	q.TaskDone()
	if q.Unfinished() != 1 {
		t.Errorf("Expected 1 unfinished, got %d", q.Unfinished())
	}

	// Extra TaskDone calls never go negative
	q.TaskDone()
	q.TaskDone()
	if q.Unfinished() != 0 {
		t.Errorf("Expected 0 unfinished, got %d", q.Unfinished())
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[int]()
	q.Put(1)
	q.Put(2)
	q.Put(3)

	items := q.Drain()
	if len(items) != 3 {
		t.Errorf("Expected 3 drained items, got %d", len(items))
	}
	if q.Len() != 0 || q.Unfinished() != 0 {
		t.Errorf("Expected empty queue after drain, got len=%d unfinished=%d", q.Len(), q.Unfinished())
	}
	if _, ok := q.TryGet(); ok {
		t.Error("Expected TryGet to fail after drain")
	}
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	q := New[int]()
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(i)
			}
		}()
	}

	var mu sync.Mutex
	received := 0
	var consumers sync.WaitGroup
	for c := 0; c < 2; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				if _, ok := q.Get(100 * time.Millisecond); !ok {
					return
				}
				q.TaskDone()
				mu.Lock()
				received++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	consumers.Wait()

	if received != producers*perProducer {
		t.Errorf("Expected %d items, got %d", producers*perProducer, received)
	}
	if q.Unfinished() != 0 {
		t.Errorf("Expected 0 unfinished, got %d", q.Unfinished())
	}
}
