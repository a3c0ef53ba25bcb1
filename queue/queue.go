// ============================================================================
// LOCK-FREE SPSC BOUNDED QUEUE
// ============================================================================
//
// Single-producer/single-consumer FIFO with shadow indices and cache-line
// partitioning. The queue operates over a raw memory region so the same code
// path serves heap backing (itc), anonymous huge-page backing (itc huge) and
// file-backed shared memory (ipc).
//
// Core protocol:
//   - head and tail are monotonically increasing 64-bit counters; the
//     physical slot is counter & (capacity-1).
//   - Empty when head == tail; full when tail - head == capacity.
//   - The producer owns tail and a local shadowHead; the consumer owns head
//     and a local shadowTail. Shadows lag the true counter and only avoid
//     redundant cross-core loads. Correctness never depends on them.
//   - Index publication is a release store paired with an acquire load of
//     the opposite index, which carries the slot contents with it.
//
// Memory layout (region):
//   line 0: head + shadowTail            (consumer line)
//   line 1: tail + shadowHead            (producer line)
//   line 2: mask                         (immutable after init)
//   line 3+: capacity × sizeof(T) slots
//
// Safety model:
//   - SPSC discipline required: one producer, one consumer, at most.
//   - Element types must satisfy types.ShmData (checked at construction).

package queue

import (
	"sync/atomic"
	"time"
	"unsafe"

	"shmchan/constants"
	"shmchan/platform"
	"shmchan/types"
	"shmchan/utils"
)

// header occupies the first three cache lines of the region. Only the
// producer writes the producer line, only the consumer writes the consumer
// line; the mask line is immutable after initialization.
type header struct {
	head       atomic.Uint64
	shadowTail uint64
	_          [constants.CacheLine - 16]byte

	tail       atomic.Uint64
	shadowHead uint64
	_          [constants.CacheLine - 16]byte

	mask uint64
	_    [constants.CacheLine - 8]byte
}

// HeaderSize is the fixed region prefix before the slot array starts.
const HeaderSize = unsafe.Sizeof(header{})

// Queue is a view over a queue region. The view itself is cheap to copy but
// the SPSC contract binds each region to exactly one producing and one
// consuming view at a time.
type Queue[T any] struct {
	hdr    *header
	slots  unsafe.Pointer
	mask   uint64
	cap    uint64
	stride uintptr
	region []byte // keepalive for process-local backings; nil for mapped regions
}

// Footprint returns the region size a queue of the given capacity needs,
// including the header.
func Footprint[T any](capacity uint64) uintptr {
	checkGeometry[T](capacity)
	return HeaderSize + uintptr(capacity)*unsafe.Sizeof(*new(T))
}

// New allocates a heap-backed queue. This is the itc backing.
func New[T any](capacity uint64) *Queue[T] {
	block := utils.AlignedBlock(Footprint[T](capacity))
	q := Place[T](unsafe.Pointer(&block[0]), capacity)
	q.region = block
	return q
}

// Place initializes a queue in zero-reachable raw memory and returns a view
// of it. mem must be cache-line aligned and hold at least Footprint[T] bytes.
// The owner side of a shared segment calls this exactly once.
func Place[T any](mem unsafe.Pointer, capacity uint64) *Queue[T] {
	q := view[T](mem, capacity)
	q.hdr.head.Store(0)
	q.hdr.tail.Store(0)
	q.hdr.shadowHead = 0
	q.hdr.shadowTail = 0
	q.hdr.mask = capacity - 1
	return q
}

// Attach builds a view over a region another process (or goroutine) already
// initialized with Place. The stored mask must match the expected capacity.
func Attach[T any](mem unsafe.Pointer, capacity uint64) *Queue[T] {
	q := view[T](mem, capacity)
	if q.hdr.mask != capacity-1 {
		panic("queue: attached region capacity mismatch")
	}
	return q
}

func view[T any](mem unsafe.Pointer, capacity uint64) *Queue[T] {
	checkGeometry[T](capacity)
	if uintptr(mem)&(constants.CacheLine-1) != 0 {
		panic("queue: region must be cache-line aligned")
	}
	return &Queue[T]{
		hdr:    (*header)(mem),
		slots:  unsafe.Add(mem, HeaderSize),
		mask:   capacity - 1,
		cap:    capacity,
		stride: unsafe.Sizeof(*new(T)),
	}
}

func checkGeometry[T any](capacity uint64) {
	types.AssertShmData[T]()
	if unsafe.Sizeof(*new(T)) == 0 {
		panic("queue: zero-size element type")
	}
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("queue: capacity must be >0 and a power of two")
	}
}

//go:nosplit
//go:inline
func (q *Queue[T]) slot(counter uint64) *T {
	return (*T)(unsafe.Add(q.slots, uintptr(counter&q.mask)*q.stride))
}

// ============================================================================
// PRODUCER OPERATIONS
// ============================================================================

// TryProduce gives writer exclusive mutable access to the next slot and
// publishes it. Returns false iff the queue is full after refreshing the
// shadow head.
//
//go:nosplit
func (q *Queue[T]) TryProduce(writer func(*T)) bool {
	tail := q.hdr.tail.Load()
	if tail-q.hdr.shadowHead >= q.cap {
		q.hdr.shadowHead = q.hdr.head.Load() // acquire reload of the true head
		if tail-q.hdr.shadowHead >= q.cap {
			return false // full
		}
	}
	writer(q.slot(tail))
	q.hdr.tail.Store(tail + 1) // release publish
	return true
}

// TryPush copies v into the next slot. Returns false iff full.
//
//go:nosplit
func (q *Queue[T]) TryPush(v T) bool {
	return q.TryProduce(func(slot *T) { *slot = v })
}

// Produce spins until space is available.
func (q *Queue[T]) Produce(writer func(*T)) {
	for !q.TryProduce(writer) {
		platform.Relax()
	}
}

// Push spins until v is accepted.
func (q *Queue[T]) Push(v T) {
	for !q.TryPush(v) {
		platform.Relax()
	}
}

// PushWait spins until v is accepted or the timeout elapses. The monotonic
// clock is consulted once every constants.TimeoutCheckMask+1 attempts.
func (q *Queue[T]) PushWait(v T, timeout time.Duration) bool {
	if q.TryPush(v) {
		return true
	}
	deadline := time.Now().Add(timeout)
	for spins := uint64(1); ; spins++ {
		if q.TryPush(v) {
			return true
		}
		if spins&constants.TimeoutCheckMask == 0 && !time.Now().Before(deadline) {
			return false
		}
		platform.Relax()
	}
}

// PushDeadline is PushWait against an absolute monotonic deadline.
func (q *Queue[T]) PushDeadline(v T, deadline time.Time) bool {
	return q.PushWait(v, time.Until(deadline))
}

// PushBatch pushes values until the queue fills, returning how many were
// accepted.
func (q *Queue[T]) PushBatch(values []T) int {
	for i := range values {
		if !q.TryPush(values[i]) {
			return i
		}
	}
	return len(values)
}

// ============================================================================
// CONSUMER OPERATIONS
// ============================================================================

// TryConsume gives visitor mutable access to the head slot, then retires the
// slot. Returns false iff the queue is empty after refreshing the shadow
// tail.
//
//go:nosplit
func (q *Queue[T]) TryConsume(visitor func(*T)) bool {
	head := q.hdr.head.Load()
	if q.hdr.shadowTail == head {
		q.hdr.shadowTail = q.hdr.tail.Load() // acquire reload of the true tail
		if q.hdr.shadowTail == head {
			return false // empty
		}
	}
	visitor(q.slot(head))
	q.hdr.head.Store(head + 1) // release the slot back to the producer
	return true
}

// TryPop copies the head element into out. Returns false iff empty.
//
//go:nosplit
func (q *Queue[T]) TryPop(out *T) bool {
	return q.TryConsume(func(slot *T) { *out = *slot })
}

// TryPopValue is TryPop without an out-parameter.
//
//go:nosplit
func (q *Queue[T]) TryPopValue() (T, bool) {
	var v T
	ok := q.TryPop(&v)
	return v, ok
}

// Consume spins until an element is visited.
func (q *Queue[T]) Consume(visitor func(*T)) {
	for !q.TryConsume(visitor) {
		platform.Relax()
	}
}

// Pop spins until an element is available and returns it.
func (q *Queue[T]) Pop() T {
	var v T
	for !q.TryPop(&v) {
		platform.Relax()
	}
	return v
}

// PopWait spins until an element lands in out or the timeout elapses.
func (q *Queue[T]) PopWait(out *T, timeout time.Duration) bool {
	if q.TryPop(out) {
		return true
	}
	deadline := time.Now().Add(timeout)
	for spins := uint64(1); ; spins++ {
		if q.TryPop(out) {
			return true
		}
		if spins&constants.TimeoutCheckMask == 0 && !time.Now().Before(deadline) {
			return false
		}
		platform.Relax()
	}
}

// PopDeadline is PopWait against an absolute monotonic deadline.
func (q *Queue[T]) PopDeadline(out *T, deadline time.Time) bool {
	return q.PopWait(out, time.Until(deadline))
}

// PopBatch drains up to len(out) elements, returning how many were read.
func (q *Queue[T]) PopBatch(out []T) int {
	for i := range out {
		if !q.TryPop(&out[i]) {
			return i
		}
	}
	return len(out)
}

// ============================================================================
// STATE PROBES
// ============================================================================

// Len is an approximate element count. Both counters are read without mutual
// ordering, so the result is only exact while the opposite endpoint is quiet.
//
//go:nosplit
func (q *Queue[T]) Len() uint64 {
	tail := q.hdr.tail.Load()
	head := q.hdr.head.Load()
	if head >= tail {
		return 0
	}
	return tail - head
}

// Cap returns the fixed capacity.
//
//go:nosplit
func (q *Queue[T]) Cap() uint64 { return q.cap }

// Empty reports whether the queue appeared empty at the probe instant.
//
//go:nosplit
func (q *Queue[T]) Empty() bool { return q.Len() == 0 }

// Full reports whether the queue appeared full at the probe instant.
//
//go:nosplit
func (q *Queue[T]) Full() bool { return q.Len() >= q.cap }
