// ============================================================================
// DUPLEX COMPOSITION
// ============================================================================
//
// Request/response over two opposite-direction queue channels, and a
// symmetric state exchange over two snapshot channels. Nothing here adds
// synchronization: each direction is an independent channel and ordering
// between the two directions is whatever the primitives provide.
//
// The endpoints are expressed against small interfaces so the itc and ipc
// flavors compose identically; the ITC and IPC constructors in wiring.go
// wire the concrete endpoints.

package duplex

import (
	"time"

	"shmchan/control"
	"shmchan/platform"
)

// QueueSender is the producing half of either channel flavor.
type QueueSender[T any] interface {
	Send(T)
	TrySend(T) bool
	SendTimeout(T, time.Duration) bool
	Close() error
}

// QueueReceiver is the consuming half of either channel flavor.
type QueueReceiver[T any] interface {
	Receive() T
	TryReceive(*T) bool
	ReceiveTimeout(*T, time.Duration) bool
	Close() error
}

// SnapshotPublisher is the writing half of either snapshot flavor.
type SnapshotPublisher[T any] interface {
	Publish(T)
	Close() error
}

// SnapshotSubscriber is the reading half of either snapshot flavor.
type SnapshotSubscriber[T any] interface {
	Fetch() T
	TryFetch(*T) bool
	FetchTimeout(*T, time.Duration) bool
	Close() error
}

// ──────────────────────── Request/response pair ────────────────────────

// Requester owns the request-direction sender and the response-direction
// receiver. Single-owner, like every queue endpoint.
type Requester[Req, Resp any] struct {
	out QueueSender[Req]
	in  QueueReceiver[Resp]
}

// Responder owns the request-direction receiver and the response-direction
// sender.
type Responder[Req, Resp any] struct {
	in  QueueReceiver[Req]
	out QueueSender[Resp]
}

// NewRequester composes a requester from raw endpoints.
func NewRequester[Req, Resp any](out QueueSender[Req], in QueueReceiver[Resp]) *Requester[Req, Resp] {
	return &Requester[Req, Resp]{out: out, in: in}
}

// NewResponder composes a responder from raw endpoints.
func NewResponder[Req, Resp any](in QueueReceiver[Req], out QueueSender[Resp]) *Responder[Req, Resp] {
	return &Responder[Req, Resp]{in: in, out: out}
}

// SendReceive writes one request and blocks for one response.
func (r *Requester[Req, Resp]) SendReceive(req Req) Resp {
	r.out.Send(req)
	return r.in.Receive()
}

// TrySendReceive attempts a non-blocking round trip. When the request is
// accepted it still blocks for the response: the request is in flight and
// abandoning it would desynchronize the pairing of requests to responses.
func (r *Requester[Req, Resp]) TrySendReceive(req Req) (Resp, bool) {
	var resp Resp
	if !r.out.TrySend(req) {
		return resp, false
	}
	return r.in.Receive(), true
}

// SendReceiveTimeout bounds both directions with one budget. A timeout
// after the request was accepted leaves the exchange desynchronized; the
// caller must treat the pair as dead.
func (r *Requester[Req, Resp]) SendReceiveTimeout(req Req, timeout time.Duration) (Resp, bool) {
	var resp Resp
	deadline := time.Now().Add(timeout)
	if !r.out.SendTimeout(req, timeout) {
		return resp, false
	}
	remaining := time.Until(deadline)
	if remaining <= 0 || !r.in.ReceiveTimeout(&resp, remaining) {
		return resp, false
	}
	return resp, true
}

// Close releases both directions.
func (r *Requester[Req, Resp]) Close() error {
	err := r.out.Close()
	if cerr := r.in.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReceiveSend reads one request, applies handler, writes the response.
func (r *Responder[Req, Resp]) ReceiveSend(handler func(Req) Resp) {
	req := r.in.Receive()
	r.out.Send(handler(req))
}

// TryReceiveSend serves one exchange without blocking on the request side.
func (r *Responder[Req, Resp]) TryReceiveSend(handler func(Req) Resp) bool {
	var req Req
	if !r.in.TryReceive(&req) {
		return false
	}
	r.out.Send(handler(req))
	return true
}

// Serve handles exchanges until flags.Shutdown fires. Requests are served
// strictly one at a time; the SPSC contract of both directions holds.
func (r *Responder[Req, Resp]) Serve(flags *control.Flags, handler func(Req) Resp) {
	for !flags.Stopped() {
		if !r.TryReceiveSend(handler) {
			platform.Relax()
		}
	}
}

// Close releases both directions.
func (r *Responder[Req, Resp]) Close() error {
	err := r.in.Close()
	if cerr := r.out.Close(); err == nil {
		err = cerr
	}
	return err
}

// ───────────────────────── Symmetric exchange ──────────────────────────

// Exchange is one side of a symmetric snapshot pair: it publishes its local
// state outward and fetches the peer's state inward. The two directions are
// not cross-synchronized.
type Exchange[T any] struct {
	pub SnapshotPublisher[T]
	sub SnapshotSubscriber[T]
}

// NewExchange composes an exchange side from raw endpoints.
func NewExchange[T any](pub SnapshotPublisher[T], sub SnapshotSubscriber[T]) *Exchange[T] {
	return &Exchange[T]{pub: pub, sub: sub}
}

// Publish broadcasts this side's latest state.
func (e *Exchange[T]) Publish(v T) { e.pub.Publish(v) }

// Fetch blocks for a consistent copy of the peer's latest state.
func (e *Exchange[T]) Fetch() T { return e.sub.Fetch() }

// TryFetch is the non-blocking peer read.
func (e *Exchange[T]) TryFetch(out *T) bool { return e.sub.TryFetch(out) }

// FetchTimeout bounds the peer read.
func (e *Exchange[T]) FetchTimeout(out *T, timeout time.Duration) bool {
	return e.sub.FetchTimeout(out, timeout)
}

// Close releases both directions.
func (e *Exchange[T]) Close() error {
	err := e.pub.Close()
	if cerr := e.sub.Close(); err == nil {
		err = cerr
	}
	return err
}
