// ============================================================================
// CROSS-PROCESS (IPC) SNAPSHOT CHANNEL
// ============================================================================
//
// Publisher/Subscriber endpoints over a seqlock hosted in a shared segment.
// The publisher owns the segment (it is the single writer); any number of
// processes may attach subscribers to the same name. Plain form hosts the
// single-slot cell, buffered form the multi-slot ring.

package ipc

import (
	"time"

	"shmchan/constants"
	"shmchan/seqlock"
	"shmchan/shm"
)

// ─────────────────────────── Plain snapshot ────────────────────────────

// Publisher is the writing, segment-owning endpoint. Single-owner.
type Publisher[T any] struct {
	seg  *shm.Segment
	cell *seqlock.Cell[T]
}

// Subscriber is a reading, attaching endpoint. Reads are stateless, so
// concurrent goroutines may share one subscriber.
type Subscriber[T any] struct {
	seg  *shm.Segment
	cell *seqlock.Cell[T]
}

// NewPublisher creates the segment for a plain snapshot channel.
func NewPublisher[T any](name string, opts shm.Options) (*Publisher[T], error) {
	seg, err := shm.Create(name, seqlock.CellFootprint[T](), opts)
	if err != nil {
		return nil, err
	}
	cell := seqlock.PlaceCell[T](seg.Payload())
	seg.Publish()
	return &Publisher[T]{seg: seg, cell: cell}, nil
}

// NewSubscriber attaches to a plain snapshot channel segment.
func NewSubscriber[T any](name string, opts shm.Options) (*Subscriber[T], error) {
	seg, err := shm.Attach(name, seqlock.CellFootprint[T](), opts)
	if err != nil {
		return nil, err
	}
	return &Subscriber[T]{seg: seg, cell: seqlock.AttachCell[T](seg.Payload())}, nil
}

// Publish stores v as the new latest value. Wait-free.
func (p *Publisher[T]) Publish(v T) { p.cell.Store(v) }

// PublishVisit mutates the payload in place under the write lock.
func (p *Publisher[T]) PublishVisit(writer func(*T)) { p.cell.Write(writer) }

// Name returns the channel's segment identifier.
func (p *Publisher[T]) Name() string { return p.seg.Name() }

// Close destroys the segment and unlinks the name.
func (p *Publisher[T]) Close() error {
	if p.seg == nil {
		return nil
	}
	err := p.seg.Close()
	p.seg = nil
	p.cell = nil
	return err
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

// Name returns the channel's segment identifier.
func (s *Subscriber[T]) Name() string { return s.seg.Name() }

// Close detaches from the segment.
func (s *Subscriber[T]) Close() error {
	if s.seg == nil {
		return nil
	}
	err := s.seg.Close()
	s.seg = nil
	s.cell = nil
	return err
}

// ────────────────────────── Buffered snapshot ──────────────────────────

// BufferedPublisher is the writing, segment-owning endpoint of a
// ring-backed snapshot channel.
type BufferedPublisher[T any] struct {
	seg  *shm.Segment
	ring *seqlock.Ring[T]
}

// BufferedSubscriber is a reading, attaching endpoint of a ring-backed
// snapshot channel.
type BufferedSubscriber[T any] struct {
	seg  *shm.Segment
	ring *seqlock.Ring[T]
}

// NewBufferedPublisher creates the segment for a buffered snapshot channel.
// A zero depth selects constants.DefaultSnapshotDepth.
func NewBufferedPublisher[T any](name string, depth uint64, opts shm.Options) (*BufferedPublisher[T], error) {
	if depth == 0 {
		depth = constants.DefaultSnapshotDepth
	}
	seg, err := shm.Create(name, seqlock.RingFootprint[T](depth), opts)
	if err != nil {
		return nil, err
	}
	ring := seqlock.PlaceRing[T](seg.Payload(), depth)
	seg.Publish()
	return &BufferedPublisher[T]{seg: seg, ring: ring}, nil
}

// NewBufferedSubscriber attaches to a buffered snapshot channel segment.
func NewBufferedSubscriber[T any](name string, depth uint64, opts shm.Options) (*BufferedSubscriber[T], error) {
	if depth == 0 {
		depth = constants.DefaultSnapshotDepth
	}
	seg, err := shm.Attach(name, seqlock.RingFootprint[T](depth), opts)
	if err != nil {
		return nil, err
	}
	return &BufferedSubscriber[T]{seg: seg, ring: seqlock.AttachRing[T](seg.Payload(), depth)}, nil
}

// Publish stores v as the new latest value. Wait-free.
func (p *BufferedPublisher[T]) Publish(v T) { p.ring.Store(v) }

// PublishVisit mutates the next slot in place, then publishes it.
func (p *BufferedPublisher[T]) PublishVisit(writer func(*T)) { p.ring.Write(writer) }

// Name returns the channel's segment identifier.
func (p *BufferedPublisher[T]) Name() string { return p.seg.Name() }

// Close destroys the segment and unlinks the name.
func (p *BufferedPublisher[T]) Close() error {
	if p.seg == nil {
		return nil
	}
	err := p.seg.Close()
	p.seg = nil
	p.ring = nil
	return err
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

// Name returns the channel's segment identifier.
func (s *BufferedSubscriber[T]) Name() string { return s.seg.Name() }

// Close detaches from the segment.
func (s *BufferedSubscriber[T]) Close() error {
	if s.seg == nil {
		return nil
	}
	err := s.seg.Close()
	s.seg = nil
	s.ring = nil
	return err
}
