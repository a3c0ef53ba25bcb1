// wiring.go — concrete itc/ipc constructors for the duplex compositions
//
// The ipc flavor hosts both directions in a single segment:
//
//   [request queue region][pad to cache line][response queue region]
//
// The requester owns the segment; the responder attaches. One name, one
// file, one owner, exactly as for a simplex channel.

package duplex

import (
	"sync/atomic"
	"time"
	"unsafe"

	"shmchan/constants"
	"shmchan/itc"
	"shmchan/queue"
	"shmchan/shm"
	"shmchan/utils"
)

// ───────────────────────────── ITC wiring ──────────────────────────────

// NewPairITC creates an in-process request/response pair.
func NewPairITC[Req, Resp any](capacity uint64) (*Requester[Req, Resp], *Responder[Req, Resp]) {
	reqTx, reqRx := itc.NewQueue[Req](capacity)
	respTx, respRx := itc.NewQueue[Resp](capacity)
	return NewRequester[Req, Resp](reqTx, respRx), NewResponder[Req, Resp](reqRx, respTx)
}

// NewExchangeITC creates both sides of an in-process symmetric exchange.
func NewExchangeITC[T any]() (*Exchange[T], *Exchange[T]) {
	abPub, abSub := itc.NewSnapshot[T]()
	baPub, baSub := itc.NewSnapshot[T]()
	return NewExchange[T](abPub, baSub), NewExchange[T](baPub, abSub)
}

// ───────────────────────────── IPC wiring ──────────────────────────────

// segShared closes the one backing segment after both halves release it.
type segShared struct {
	refs atomic.Int32
	seg  *shm.Segment
}

func newSegShared(seg *shm.Segment) *segShared {
	s := &segShared{seg: seg}
	s.refs.Store(2)
	return s
}

func (s *segShared) drop() error {
	if s.refs.Add(-1) == 0 {
		return s.seg.Close()
	}
	return nil
}

// segSender adapts one queue region of a shared duplex segment to
// QueueSender.
type segSender[T any] struct {
	q  *queue.Queue[T]
	sh *segShared
}

func (s *segSender[T]) Send(v T)          { s.q.Push(v) }
func (s *segSender[T]) TrySend(v T) bool  { return s.q.TryPush(v) }
func (s *segSender[T]) SendTimeout(v T, timeout time.Duration) bool {
	return s.q.PushWait(v, timeout)
}
func (s *segSender[T]) Close() error { return s.sh.drop() }

// segReceiver adapts one queue region of a shared duplex segment to
// QueueReceiver.
type segReceiver[T any] struct {
	q  *queue.Queue[T]
	sh *segShared
}

func (r *segReceiver[T]) Receive() T             { return r.q.Pop() }
func (r *segReceiver[T]) TryReceive(out *T) bool { return r.q.TryPop(out) }
func (r *segReceiver[T]) ReceiveTimeout(out *T, timeout time.Duration) bool {
	return r.q.PopWait(out, timeout)
}
func (r *segReceiver[T]) Close() error { return r.sh.drop() }

// duplexLayout returns the offset of the response region and the total
// payload size for one duplex segment.
func duplexLayout[Req, Resp any](capacity uint64) (respOff, total uintptr) {
	respOff = utils.AlignUp(queue.Footprint[Req](capacity), constants.CacheLine)
	total = respOff + queue.Footprint[Resp](capacity)
	return respOff, total
}

// NewRequesterIPC creates the owning side of a cross-process
// request/response pair. A zero capacity selects
// constants.DefaultQueueCapacity.
func NewRequesterIPC[Req, Resp any](name string, capacity uint64, opts shm.Options) (*Requester[Req, Resp], error) {
	if capacity == 0 {
		capacity = constants.DefaultQueueCapacity
	}
	respOff, total := duplexLayout[Req, Resp](capacity)
	seg, err := shm.Create(name, total, opts)
	if err != nil {
		return nil, err
	}
	reqQ := queue.Place[Req](seg.Payload(), capacity)
	respQ := queue.Place[Resp](unsafe.Add(seg.Payload(), respOff), capacity)
	seg.Publish()

	sh := newSegShared(seg)
	return NewRequester[Req, Resp](
		&segSender[Req]{q: reqQ, sh: sh},
		&segReceiver[Resp]{q: respQ, sh: sh}), nil
}

// NewResponderIPC attaches the serving side of a cross-process
// request/response pair created by NewRequesterIPC.
func NewResponderIPC[Req, Resp any](name string, capacity uint64, opts shm.Options) (*Responder[Req, Resp], error) {
	if capacity == 0 {
		capacity = constants.DefaultQueueCapacity
	}
	respOff, total := duplexLayout[Req, Resp](capacity)
	seg, err := shm.Attach(name, total, opts)
	if err != nil {
		return nil, err
	}
	reqQ := queue.Attach[Req](seg.Payload(), capacity)
	respQ := queue.Attach[Resp](unsafe.Add(seg.Payload(), respOff), capacity)

	sh := newSegShared(seg)
	return NewResponder[Req, Resp](
		&segReceiver[Req]{q: reqQ, sh: sh},
		&segSender[Resp]{q: respQ, sh: sh}), nil
}

// NewExchangeIPC creates the owning side (A) of a cross-process symmetric
// exchange: one segment holding two cells, A publishing into the first and
// fetching from the second.
func NewExchangeIPC[T any](name string, opts shm.Options) (*Exchange[T], error) {
	return newExchangeIPC[T](name, opts, true)
}

// AttachExchangeIPC attaches the peer side (B) of a cross-process symmetric
// exchange.
func AttachExchangeIPC[T any](name string, opts shm.Options) (*Exchange[T], error) {
	return newExchangeIPC[T](name, opts, false)
}
