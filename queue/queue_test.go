package queue

import (
	"testing"
	"unsafe"
	"time"

	"golang.org/x/sync/errgroup"
)

// TestNewPanicsOnBadCapacity verifies that construction rejects capacities
// that are either non-power-of-two or zero.
func TestNewPanicsOnBadCapacity(t *testing.T) {
	bad := []uint64{0, 3, 1000}
	for _, capacity := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) should panic", capacity)
				}
			}()
			_ = New[uint64](capacity)
		}()
	}
}

// TestNewPanicsOnPointerElement verifies the ShmData predicate fires at
// construction for element types carrying pointers.
func TestNewPanicsOnPointerElement(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New[string] should panic")
		}
	}()
	_ = New[string](8)
}

// TestPushPopRoundTrip performs a minimal sanity round-trip on a size-8
// queue: push one element, pop it, confirm the queue is empty afterwards.
func TestPushPopRoundTrip(t *testing.T) {
	q := New[uint64](8)
	if !q.TryPush(42) {
		t.Fatal("first push must succeed")
	}
	var got uint64
	if !q.TryPop(&got) || got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if !q.Empty() {
		t.Fatal("queue should now be empty")
	}
}

// TestPushFailsWhenFull fills the queue to capacity and checks that a
// further push reports back-pressure.
func TestPushFailsWhenFull(t *testing.T) {
	q := New[int32](4)
	for i := int32(0); i < 4; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	if q.TryPush(99) {
		t.Fatal("push into full queue should return false")
	}
	if !q.Full() {
		t.Fatal("Full() should report true")
	}
}

// TestPopFailsWhenEmpty checks the empty condition both initially and after
// a drain.
func TestPopFailsWhenEmpty(t *testing.T) {
	q := New[uint64](4)
	var v uint64
	if q.TryPop(&v) {
		t.Fatal("pop on fresh queue should fail")
	}
	q.Push(7)
	_ = q.Pop()
	if q.TryPop(&v) {
		t.Fatal("pop after drain should fail")
	}
}

// TestCapacityOne exercises the N=1 degenerate queue: full after one push,
// empty after one pop, alternating correctly.
func TestCapacityOne(t *testing.T) {
	q := New[uint64](1)
	for i := uint64(0); i < 16; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d into empty size-1 queue failed", i)
		}
		if q.TryPush(i) {
			t.Fatalf("second push %d should hit full", i)
		}
		got, ok := q.TryPopValue()
		if !ok || got != i {
			t.Fatalf("pop %d: got (%d,%v)", i, got, ok)
		}
		if _, ok := q.TryPopValue(); ok {
			t.Fatalf("second pop %d should hit empty", i)
		}
	}
}

// TestWrapAround pushes and pops far past the capacity to exercise the
// masking math and both shadow-index refresh paths.
func TestWrapAround(t *testing.T) {
	q := New[uint64](4)
	for i := uint64(0); i < 1000; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
		got, ok := q.TryPopValue()
		if !ok || got != i {
			t.Fatalf("iteration %d: got (%d,%v)", i, got, ok)
		}
	}
}

// TestFIFOOrderAcrossGoroutines is the 100k-element SPSC scenario: one
// producer pushes 0..99999 in order, one consumer pops them all, and the pop
// order must equal the push order.
func TestFIFOOrderAcrossGoroutines(t *testing.T) {
	const total = 100_000
	q := New[uint64](1024)

	var g errgroup.Group
	g.Go(func() error {
		for i := uint64(0); i < total; i++ {
			q.Push(i)
		}
		return nil
	})

	received := make([]uint64, 0, total)
	g.Go(func() error {
		var v uint64
		for len(received) < total {
			if q.TryPop(&v) {
				received = append(received, v)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < total; i++ {
		if received[i] != i {
			t.Fatalf("position %d: got %d", i, received[i])
		}
	}
	if !q.Empty() {
		t.Fatal("queue should be empty after the drain")
	}
}

// TestVisitorProduceConsume checks the zero-copy paths mutate slots in
// place.
func TestVisitorProduceConsume(t *testing.T) {
	type pair struct{ A, B uint32 }
	q := New[pair](8)
	if !q.TryProduce(func(p *pair) { p.A, p.B = 3, 4 }) {
		t.Fatal("produce failed")
	}
	var sum uint32
	if !q.TryConsume(func(p *pair) { sum = p.A + p.B }) {
		t.Fatal("consume failed")
	}
	if sum != 7 {
		t.Fatalf("sum = %d, want 7", sum)
	}
}

// TestPushWaitTimesOut is the backpressure scenario: a full size-2 queue
// with no consumer must reject a timed push after at least the timeout.
func TestPushWaitTimesOut(t *testing.T) {
	q := New[int32](2)
	q.Push(1)
	q.Push(2)

	const timeout = 50 * time.Millisecond
	start := time.Now()
	if q.PushWait(3, timeout) {
		t.Fatal("push into full queue with no consumer should time out")
	}
	if elapsed := time.Since(start); elapsed < timeout {
		t.Fatalf("returned after %v, want >= %v", elapsed, timeout)
	}
}

// TestPopWaitReceivesLatePush verifies a timed pop survives until a delayed
// producer shows up.
func TestPopWaitReceivesLatePush(t *testing.T) {
	q := New[uint64](2)
	go func() {
		time.Sleep(5 * time.Millisecond)
		q.Push(77)
	}()
	var v uint64
	if !q.PopWait(&v, time.Second) || v != 77 {
		t.Fatalf("PopWait got (%d), want 77", v)
	}
}

// TestBatchTransfer checks partial batch semantics against a small queue.
func TestBatchTransfer(t *testing.T) {
	q := New[uint64](4)
	pushed := q.PushBatch([]uint64{1, 2, 3, 4, 5, 6})
	if pushed != 4 {
		t.Fatalf("PushBatch = %d, want 4", pushed)
	}
	out := make([]uint64, 8)
	popped := q.PopBatch(out)
	if popped != 4 {
		t.Fatalf("PopBatch = %d, want 4", popped)
	}
	for i, v := range out[:4] {
		if v != uint64(i+1) {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}
}

// TestLenTracksOccupancy probes the approximate counters in a quiet queue.
func TestLenTracksOccupancy(t *testing.T) {
	q := New[uint64](8)
	if q.Len() != 0 || q.Cap() != 8 {
		t.Fatalf("fresh queue: len %d cap %d", q.Len(), q.Cap())
	}
	for i := uint64(1); i <= 8; i++ {
		q.Push(i)
		if q.Len() != i {
			t.Fatalf("after %d pushes: len %d", i, q.Len())
		}
	}
}

// TestPlaceAttachShareRegion initializes a region through Place and reads it
// through a second Attach view, mimicking the ipc wiring inside one process.
func TestPlaceAttachShareRegion(t *testing.T) {
	q := New[uint64](8) // owner view, heap region
	r := Attach[uint64](unsafe.Pointer(q.hdr), 8)
	q.Push(123)
	got, ok := r.TryPopValue()
	if !ok || got != 123 {
		t.Fatalf("attached view got (%d,%v)", got, ok)
	}
}

// TestAttachRejectsCapacityMismatch verifies the stored mask guards against
// mis-sized attaches.
func TestAttachRejectsCapacityMismatch(t *testing.T) {
	q := New[uint64](8)
	defer func() {
		if recover() == nil {
			t.Fatal("Attach with wrong capacity should panic")
		}
	}()
	_ = Attach[uint64](unsafe.Pointer(q.hdr), 16)
}
