// exchange_ipc.go — one-segment hosting for the symmetric snapshot exchange
//
// Segment payload: [cell A][pad to cache line][cell B]. The creating side
// (A) writes cell A and reads cell B; the attaching side (B) writes cell B
// and reads cell A. A owns the segment.

package duplex

import (
	"time"
	"unsafe"

	"shmchan/constants"
	"shmchan/seqlock"
	"shmchan/shm"
	"shmchan/utils"
)

// segPublisher adapts one cell of a shared exchange segment to
// SnapshotPublisher.
type segPublisher[T any] struct {
	cell *seqlock.Cell[T]
	sh   *segShared
}

func (p *segPublisher[T]) Publish(v T)  { p.cell.Store(v) }
func (p *segPublisher[T]) Close() error { return p.sh.drop() }

// segSubscriber adapts one cell of a shared exchange segment to
// SnapshotSubscriber.
type segSubscriber[T any] struct {
	cell *seqlock.Cell[T]
	sh   *segShared
}

func (s *segSubscriber[T]) Fetch() T             { return s.cell.Load() }
func (s *segSubscriber[T]) TryFetch(out *T) bool { return s.cell.TryLoad(out) }
func (s *segSubscriber[T]) FetchTimeout(out *T, timeout time.Duration) bool {
	return s.cell.LoadWait(out, timeout)
}
func (s *segSubscriber[T]) Close() error { return s.sh.drop() }

func exchangeLayout[T any]() (cellBOff, total uintptr) {
	cellBOff = utils.AlignUp(seqlock.CellFootprint[T](), constants.CacheLine)
	total = cellBOff + seqlock.CellFootprint[T]()
	return cellBOff, total
}

func newExchangeIPC[T any](name string, opts shm.Options, owner bool) (*Exchange[T], error) {
	cellBOff, total := exchangeLayout[T]()

	var seg *shm.Segment
	var cellA, cellB *seqlock.Cell[T]
	if owner {
		var err error
		seg, err = shm.Create(name, total, opts)
		if err != nil {
			return nil, err
		}
		cellA = seqlock.PlaceCell[T](seg.Payload())
		cellB = seqlock.PlaceCell[T](unsafe.Add(seg.Payload(), cellBOff))
		seg.Publish()
	} else {
		var err error
		seg, err = shm.Attach(name, total, opts)
		if err != nil {
			return nil, err
		}
		cellA = seqlock.AttachCell[T](seg.Payload())
		cellB = seqlock.AttachCell[T](unsafe.Add(seg.Payload(), cellBOff))
	}

	sh := newSegShared(seg)
	if owner {
		return NewExchange[T](
			&segPublisher[T]{cell: cellA, sh: sh},
			&segSubscriber[T]{cell: cellB, sh: sh}), nil
	}
	return NewExchange[T](
		&segPublisher[T]{cell: cellB, sh: sh},
		&segSubscriber[T]{cell: cellA, sh: sh}), nil
}
