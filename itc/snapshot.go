// ============================================================================
// IN-PROCESS (ITC) SNAPSHOT CHANNEL
// ============================================================================
//
// Publisher/Subscriber endpoint pair over a seqlock: plain form holds the
// single-slot cell for minimal footprint, buffered form holds the multi-slot
// ring to keep reader and writer off each other's cache lines. One writer;
// any number of goroutines may read through the subscriber concurrently.

package itc

import (
	"time"

	"shmchan/constants"
	"shmchan/seqlock"
)

// ─────────────────────────── Plain snapshot ────────────────────────────

// Publisher is the writing endpoint of a plain snapshot channel.
// Single-owner.
type Publisher[T any] struct {
	cell   *seqlock.Cell[T]
	shared *shared
}

// Subscriber is the reading endpoint of a plain snapshot channel. Reads are
// stateless, so concurrent goroutines may share one subscriber.
type Subscriber[T any] struct {
	cell   *seqlock.Cell[T]
	shared *shared
}

// NewSnapshot creates a plain (single-slot) snapshot channel.
func NewSnapshot[T any]() (*Publisher[T], *Subscriber[T]) {
	c := seqlock.NewCell[T]()
	sh := newShared(nil)
	return &Publisher[T]{cell: c, shared: sh}, &Subscriber[T]{cell: c, shared: sh}
}

// Publish stores v as the new latest value. Wait-free.
func (p *Publisher[T]) Publish(v T) { p.cell.Store(v) }

// PublishVisit mutates the payload in place under the write lock.
func (p *Publisher[T]) PublishVisit(writer func(*T)) { p.cell.Write(writer) }

// Close releases this endpoint's reference.
func (p *Publisher[T]) Close() error {
	if p.shared != nil {
		p.shared.drop()
		p.shared = nil
		p.cell = nil
	}
	return nil
}

// Fetch spins until a consistent copy of the latest value lands.
func (s *Subscriber[T]) Fetch() T { return s.cell.Load() }

// FetchInto is Fetch with an out-parameter.
func (s *Subscriber[T]) FetchInto(out *T) { *out = s.cell.Load() }

// TryFetch reports false iff a concurrent publish overlapped the read.
func (s *Subscriber[T]) TryFetch(out *T) bool { return s.cell.TryLoad(out) }

// FetchVisit spins until visitor runs over a consistent payload.
func (s *Subscriber[T]) FetchVisit(visitor func(*T)) { s.cell.Read(visitor) }

// FetchTimeout spins up to timeout for a consistent copy.
func (s *Subscriber[T]) FetchTimeout(out *T, timeout time.Duration) bool {
	return s.cell.LoadWait(out, timeout)
}

// MayBusy is a best-effort write-in-progress probe.
func (s *Subscriber[T]) MayBusy() bool { return s.cell.MayBusy() }

// Close releases this endpoint's reference.
func (s *Subscriber[T]) Close() error {
	if s.shared != nil {
		s.shared.drop()
		s.shared = nil
		s.cell = nil
	}
	return nil
}

// ────────────────────────── Buffered snapshot ──────────────────────────

// BufferedPublisher is the writing endpoint of a buffered snapshot channel.
type BufferedPublisher[T any] struct {
	ring   *seqlock.Ring[T]
	shared *shared
}

// BufferedSubscriber is the reading endpoint of a buffered snapshot
// channel.
type BufferedSubscriber[T any] struct {
	ring   *seqlock.Ring[T]
	shared *shared
}

// NewBufferedSnapshot creates a ring-backed snapshot channel. A zero depth
// selects constants.DefaultSnapshotDepth.
func NewBufferedSnapshot[T any](depth uint64) (*BufferedPublisher[T], *BufferedSubscriber[T]) {
	if depth == 0 {
		depth = constants.DefaultSnapshotDepth
	}
	r := seqlock.NewRing[T](depth)
	sh := newShared(nil)
	return &BufferedPublisher[T]{ring: r, shared: sh}, &BufferedSubscriber[T]{ring: r, shared: sh}
}

// Publish stores v as the new latest value. Wait-free.
func (p *BufferedPublisher[T]) Publish(v T) { p.ring.Store(v) }

// PublishVisit mutates the next slot in place, then publishes it.
func (p *BufferedPublisher[T]) PublishVisit(writer func(*T)) { p.ring.Write(writer) }

// Close releases this endpoint's reference.
func (p *BufferedPublisher[T]) Close() error {
	if p.shared != nil {
		p.shared.drop()
		p.shared = nil
		p.ring = nil
	}
	return nil
}

// Fetch spins until a consistent copy of the latest value lands.
func (s *BufferedSubscriber[T]) Fetch() T { return s.ring.Load() }

// FetchInto is Fetch with an out-parameter.
func (s *BufferedSubscriber[T]) FetchInto(out *T) { *out = s.ring.Load() }

// TryFetch reports false iff a concurrent publish overlapped the read.
func (s *BufferedSubscriber[T]) TryFetch(out *T) bool { return s.ring.TryLoad(out) }

// FetchVisit spins until visitor runs over a consistent payload.
func (s *BufferedSubscriber[T]) FetchVisit(visitor func(*T)) { s.ring.Read(visitor) }

// FetchTimeout spins up to timeout for a consistent copy.
func (s *BufferedSubscriber[T]) FetchTimeout(out *T, timeout time.Duration) bool {
	return s.ring.LoadWait(out, timeout)
}

// Depth returns the ring slot count.
func (s *BufferedSubscriber[T]) Depth() uint64 { return s.ring.Cap() }

// MayBusy is a best-effort write-in-progress probe.
func (s *BufferedSubscriber[T]) MayBusy() bool { return s.ring.MayBusy() }

// Close releases this endpoint's reference.
func (s *BufferedSubscriber[T]) Close() error {
	if s.shared != nil {
		s.shared.drop()
		s.shared = nil
		s.ring = nil
	}
	return nil
}
