package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		if !q.Enqueue(i) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if l := q.Len(); l != 5 {
		t.Fatalf("expected length 5, got %d", l)
	}
	for i := 0; i < 5; i++ {
		got, err := q.Dequeue(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
	if _, ok := q.TryDequeue(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestDequeueTimesOut(t *testing.T) {
	q := New[int]()
	start := time.Now()
	_, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned before timeout: %v", elapsed)
	}
}

func TestDequeueWakesOnEnqueue(t *testing.T) {
	q := New[string]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue("late")
	}()
	got, err := q.Dequeue(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got != "late" {
		t.Fatalf("expected late, got %q", got)
	}
}

func TestDequeueHonorsContext(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Dequeue(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCloseDrainsThenReportsClosed(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Close()
	q.Close()
	if q.Enqueue(2) {
		t.Fatalf("enqueue after close must fail")
	}
	if got, err := q.Dequeue(context.Background(), time.Second); err != nil || got != 1 {
		t.Fatalf("expected queued item after close, got %d, %v", got, err)
	}
	if _, err := q.Dequeue(context.Background(), time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if !q.IsClosed() {
		t.Fatalf("expected closed")
	}
}

func TestConcurrentProducersPreserveOrder(t *testing.T) {
	type item struct {
		producer int
		seq      int
	}
	q := New[item]()
	const producers = 2
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(item{producer: p, seq: i})
			}
		}(p)
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for received := 0; received < producers*perProducer; received++ {
		got, err := q.Dequeue(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("dequeue after %d items: %v", received, err)
		}
		if got.seq != last[got.producer]+1 {
			t.Fatalf("producer %d out of order: %d after %d", got.producer, got.seq, last[got.producer])
		}
		last[got.producer] = got.seq
	}
	wg.Wait()
}

func TestDepthHook(t *testing.T) {
	var depth atomic.Int64
	q := New[int](WithDepthHook(func(n int) { depth.Store(int64(n)) }))
	q.Enqueue(1)
	q.Enqueue(2)
	if got := depth.Load(); got != 2 {
		t.Fatalf("expected depth 2, got %d", got)
	}
	q.TryDequeue()
	if got := depth.Load(); got != 1 {
		t.Fatalf("expected depth 1, got %d", got)
	}
}
