// ============================================================================
// IN-PROCESS (ITC) QUEUE CHANNEL
// ============================================================================
//
// Sender/Receiver endpoint pair over one bounded queue shared between
// threads of a single process. Creating a channel hands out both endpoints;
// each endpoint must stay with exactly one goroutine at a time (the SPSC
// contract of the underlying queue).
//
// The queue region is heap-backed by default; NewQueueHuge places it in an
// anonymous huge-page mapping instead, which changes the allocation and
// nothing else. Endpoints share a reference-counted handle so the region is
// released exactly once, when the second endpoint closes.

package itc

import (
	"errors"
	"sync/atomic"
	"time"

	"shmchan/constants"
	"shmchan/queue"
)

// errHugeUnsupported reports a huge-page request on a platform without
// MAP_HUGETLB.
var errHugeUnsupported = errors.New("itc: huge-page backing requires linux")

// shared is the reference-counted region handle behind an endpoint pair.
type shared struct {
	refs    atomic.Int32
	release func()
}

func newShared(release func()) *shared {
	s := &shared{release: release}
	s.refs.Store(2)
	return s
}

func (s *shared) drop() {
	if s.refs.Add(-1) == 0 && s.release != nil {
		s.release()
	}
}

// Sender is the producing endpoint of a queue channel. Single-owner: hand it
// to one goroutine and keep it there.
type Sender[T any] struct {
	q      *queue.Queue[T]
	shared *shared
}

// Receiver is the consuming endpoint of a queue channel. Single-owner.
type Receiver[T any] struct {
	q      *queue.Queue[T]
	shared *shared
}

// NewQueue creates a heap-backed queue channel. A zero capacity selects
// constants.DefaultQueueCapacity.
func NewQueue[T any](capacity uint64) (*Sender[T], *Receiver[T]) {
	if capacity == 0 {
		capacity = constants.DefaultQueueCapacity
	}
	q := queue.New[T](capacity)
	sh := newShared(nil)
	return &Sender[T]{q: q, shared: sh}, &Receiver[T]{q: q, shared: sh}
}

// ───────────────────────────── Sender ──────────────────────────────

// Send blocks (spinning) until v is accepted.
func (s *Sender[T]) Send(v T) { s.q.Push(v) }

// TrySend reports false iff the queue is full.
func (s *Sender[T]) TrySend(v T) bool { return s.q.TryPush(v) }

// SendTimeout blocks up to timeout; false means the deadline passed with
// the queue still full.
func (s *Sender[T]) SendTimeout(v T, timeout time.Duration) bool {
	return s.q.PushWait(v, timeout)
}

// SendDeadline blocks until the absolute deadline; false means it passed
// with the queue still full.
func (s *Sender[T]) SendDeadline(v T, deadline time.Time) bool {
	return s.q.PushDeadline(v, deadline)
}

// Produce blocks until a slot is available and hands it to writer.
func (s *Sender[T]) Produce(writer func(*T)) { s.q.Produce(writer) }

// TryProduce is the non-blocking zero-copy send.
func (s *Sender[T]) TryProduce(writer func(*T)) bool { return s.q.TryProduce(writer) }

// SendBatch pushes values until the queue fills, returning the accepted
// count.
func (s *Sender[T]) SendBatch(values []T) int { return s.q.PushBatch(values) }

// Len is the approximate occupancy.
func (s *Sender[T]) Len() uint64 { return s.q.Len() }

// Cap is the fixed capacity.
func (s *Sender[T]) Cap() uint64 { return s.q.Cap() }

// Full reports whether the queue appeared full at the probe instant.
func (s *Sender[T]) Full() bool { return s.q.Full() }

// Close releases this endpoint's reference to the channel region.
func (s *Sender[T]) Close() error {
	if s.shared != nil {
		s.shared.drop()
		s.shared = nil
		s.q = nil
	}
	return nil
}

// ──────────────────────────── Receiver ─────────────────────────────

// Receive blocks (spinning) until an element arrives.
func (r *Receiver[T]) Receive() T { return r.q.Pop() }

// ReceiveInto blocks and writes the element into out.
func (r *Receiver[T]) ReceiveInto(out *T) { *out = r.q.Pop() }

// TryReceive reports false iff the queue is empty.
func (r *Receiver[T]) TryReceive(out *T) bool { return r.q.TryPop(out) }

// TryReceiveValue is TryReceive without an out-parameter.
func (r *Receiver[T]) TryReceiveValue() (T, bool) { return r.q.TryPopValue() }

// ReceiveTimeout blocks up to timeout; false means the deadline passed with
// the queue still empty.
func (r *Receiver[T]) ReceiveTimeout(out *T, timeout time.Duration) bool {
	return r.q.PopWait(out, timeout)
}

// ReceiveDeadline blocks until the absolute deadline; false means it passed
// with the queue still empty.
func (r *Receiver[T]) ReceiveDeadline(out *T, deadline time.Time) bool {
	return r.q.PopDeadline(out, deadline)
}

// Consume blocks until an element is visited in place.
func (r *Receiver[T]) Consume(visitor func(*T)) { r.q.Consume(visitor) }

// TryConsume is the non-blocking zero-copy receive.
func (r *Receiver[T]) TryConsume(visitor func(*T)) bool { return r.q.TryConsume(visitor) }

// ReceiveBatch drains up to len(out) elements, returning the count read.
func (r *Receiver[T]) ReceiveBatch(out []T) int { return r.q.PopBatch(out) }

// Len is the approximate occupancy.
func (r *Receiver[T]) Len() uint64 { return r.q.Len() }

// Cap is the fixed capacity.
func (r *Receiver[T]) Cap() uint64 { return r.q.Cap() }

// Empty reports whether the queue appeared empty at the probe instant.
func (r *Receiver[T]) Empty() bool { return r.q.Empty() }

// Close releases this endpoint's reference to the channel region.
func (r *Receiver[T]) Close() error {
	if r.shared != nil {
		r.shared.drop()
		r.shared = nil
		r.q = nil
	}
	return nil
}
