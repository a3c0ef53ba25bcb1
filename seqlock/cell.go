// ============================================================================
// SEQLOCK CELL (SINGLE-SLOT LATEST-VALUE BROADCAST)
// ============================================================================
//
// Single-writer, many-reader cell holding exactly one value. The writer is
// wait-free: it bumps the sequence to odd, mutates the payload, bumps it back
// to even. Readers are lock-free with optimistic retry: they byte-copy the
// payload between two sequence loads and discard the copy when the loads
// disagree or the first load is odd.
//
// Sequence protocol per slot:
//   even  = payload is a complete prior write
//   odd   = writer in progress
//   transitions are strictly monotonic
//
// Element types must satisfy types.ShmData: a torn byte-copy of a
// pointer-free value is garbage data, never a memory hazard, and the
// consistency check discards it before anyone looks at it. The racy copy
// paths carry go:norace for exactly that reason.

package seqlock

import (
	"sync/atomic"
	"time"
	"unsafe"

	"shmchan/constants"
	"shmchan/platform"
	"shmchan/types"
)

// Cell is the N=1 degenerate form of the ring: one slot, one sequence, no
// global index.
type Cell[T any] struct {
	seq  atomic.Uint64
	_    [constants.CacheLine - 8]byte
	data T
}

// CellFootprint is the byte size a Cell occupies in a shared region.
func CellFootprint[T any]() uintptr {
	return unsafe.Sizeof(Cell[T]{})
}

// NewCell returns a heap-hosted cell. This is the itc backing.
func NewCell[T any]() *Cell[T] {
	types.AssertShmData[T]()
	return &Cell[T]{}
}

// PlaceCell initializes a cell in zeroed raw memory. mem must be cache-line
// aligned.
func PlaceCell[T any](mem unsafe.Pointer) *Cell[T] {
	c := AttachCell[T](mem)
	c.seq.Store(0)
	return c
}

// AttachCell views an already-initialized cell.
func AttachCell[T any](mem unsafe.Pointer) *Cell[T] {
	types.AssertShmData[T]()
	if uintptr(mem)&(constants.CacheLine-1) != 0 {
		panic("seqlock: region must be cache-line aligned")
	}
	return (*Cell[T])(mem)
}

// ============================================================================
// WRITER (WAIT-FREE)
// ============================================================================

// Store publishes v as the new latest value.
//
//go:norace
//go:nosplit
func (c *Cell[T]) Store(v T) {
	s := c.seq.Load()
	c.seq.Store(s + 1) // odd: write in progress
	c.data = v
	c.seq.Store(s + 2) // even: complete
}

// Write mutates the payload in place through fn, bracketed by the sequence
// protocol. fn must not retain the pointer past the call.
//
//go:norace
func (c *Cell[T]) Write(fn func(*T)) {
	s := c.seq.Load()
	c.seq.Store(s + 1)
	fn(&c.data)
	c.seq.Store(s + 2)
}

// ============================================================================
// READERS (LOCK-FREE, OPTIMISTIC)
// ============================================================================

// TryLoad copies the latest value into out. Returns false iff a concurrent
// write overlapped the read; out then holds garbage the caller must ignore.
//
//go:norace
//go:nosplit
func (c *Cell[T]) TryLoad(out *T) bool {
	s1 := c.seq.Load()
	if s1&1 != 0 {
		return false // writer in progress
	}
	*out = c.data // racy copy, validated below
	return c.seq.Load() == s1
}

// TryRead invokes visitor on the payload in place, then validates. The
// visitor may observe torn data; the caller sees success only when the read
// was consistent. The visitor must not write through the pointer.
//
//go:norace
func (c *Cell[T]) TryRead(visitor func(*T)) bool {
	s1 := c.seq.Load()
	if s1&1 != 0 {
		return false
	}
	visitor(&c.data)
	return c.seq.Load() == s1
}

// Load spins until a consistent copy lands and returns it.
func (c *Cell[T]) Load() T {
	var v T
	for !c.TryLoad(&v) {
		platform.Relax()
	}
	return v
}

// Read spins until a consistent visit completes.
func (c *Cell[T]) Read(visitor func(*T)) {
	for !c.TryRead(visitor) {
		platform.Relax()
	}
}

// LoadWait spins until a consistent copy lands or the timeout elapses.
func (c *Cell[T]) LoadWait(out *T, timeout time.Duration) bool {
	if c.TryLoad(out) {
		return true
	}
	deadline := time.Now().Add(timeout)
	for spins := uint64(1); ; spins++ {
		if c.TryLoad(out) {
			return true
		}
		if spins&constants.TimeoutCheckMask == 0 && !time.Now().Before(deadline) {
			return false
		}
		platform.Relax()
	}
}

// MayBusy is a best-effort probe for a write in progress.
//
//go:nosplit
func (c *Cell[T]) MayBusy() bool {
	return c.seq.Load()&1 != 0
}
