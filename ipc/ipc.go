// ============================================================================
// CROSS-PROCESS (IPC) QUEUE CHANNEL
// ============================================================================
//
// Sender/Receiver endpoint pair over a bounded queue hosted in a shared
// segment. The sender side owns the segment: it creates and initializes the
// queue region, publishes the initialized flag, and unlinks the name on
// close. The receiver attaches to the same name and waits for the flag.
// Both sides must name the same element type and capacity; the queue's
// stored mask rejects a mismatched attach.
//
// Endpoint surfaces are identical to the itc flavor plus Name(), so code
// written against one moves to the other by swapping the constructor.

package ipc

import (
	"time"

	"shmchan/constants"
	"shmchan/queue"
	"shmchan/shm"
)

// Sender is the producing, segment-owning endpoint. Single-owner.
type Sender[T any] struct {
	seg *shm.Segment
	q   *queue.Queue[T]
}

// Receiver is the consuming, attaching endpoint. Single-owner.
type Receiver[T any] struct {
	seg *shm.Segment
	q   *queue.Queue[T]
}

// NewSender creates the segment for a queue channel and initializes the
// queue inside it. A zero capacity selects constants.DefaultQueueCapacity.
func NewSender[T any](name string, capacity uint64, opts shm.Options) (*Sender[T], error) {
	if capacity == 0 {
		capacity = constants.DefaultQueueCapacity
	}
	seg, err := shm.Create(name, queue.Footprint[T](capacity), opts)
	if err != nil {
		return nil, err
	}
	q := queue.Place[T](seg.Payload(), capacity)
	seg.Publish()
	return &Sender[T]{seg: seg, q: q}, nil
}

// NewReceiver attaches to a queue channel segment created by NewSender.
func NewReceiver[T any](name string, capacity uint64, opts shm.Options) (*Receiver[T], error) {
	if capacity == 0 {
		capacity = constants.DefaultQueueCapacity
	}
	seg, err := shm.Attach(name, queue.Footprint[T](capacity), opts)
	if err != nil {
		return nil, err
	}
	q := queue.Attach[T](seg.Payload(), capacity)
	return &Receiver[T]{seg: seg, q: q}, nil
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

// Name returns the channel's segment identifier.
func (s *Sender[T]) Name() string { return s.seg.Name() }

// Close destroys the segment: the mapping goes away and the name is
// unlinked, so no further receiver can attach.
func (s *Sender[T]) Close() error {
	if s.seg == nil {
		return nil
	}
	err := s.seg.Close()
	s.seg = nil
	s.q = nil
	return err
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

// Name returns the channel's segment identifier.
func (r *Receiver[T]) Name() string { return r.seg.Name() }

// Close detaches from the segment; the backing file stays for the owner to
// reap.
func (r *Receiver[T]) Close() error {
	if r.seg == nil {
		return nil
	}
	err := r.seg.Close()
	r.seg = nil
	r.q = nil
	return err
}
