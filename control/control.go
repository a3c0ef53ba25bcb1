// control.go — activity and shutdown flags for pinned consumers
// ============================================================================
// CONSUMER COORDINATION FLAGS
// ============================================================================
//
// Flags carries the lightweight signaling a pinned consumer loop polls on
// every iteration: a hot flag raised by the producing side when traffic is
// flowing, and a stop flag for graceful shutdown. A nanosecond activity
// timestamp drives automatic cooldown so idle consumers fall back from
// continuous polling to relaxed spinning.
//
// Each flag is written by one side and polled by the others; all accesses
// are plain atomic loads and stores, no RMW on any path.

package control

import (
	"sync/atomic"
	"time"

	"shmchan/constants"
)

// DefaultCooldown is how long the hot flag survives past the last
// SignalActivity call.
const DefaultCooldown = time.Second

// Flags is the per-pipeline coordination block. The three atomics live on
// separate cache lines so producer-side signaling does not collide with
// consumer-side polling.
type Flags struct {
	hot atomic.Uint32
	_   [constants.CacheLine - 4]byte

	stop atomic.Uint32
	_    [constants.CacheLine - 4]byte

	lastHot    atomic.Int64
	cooldownNs int64
	_          [constants.CacheLine - 16]byte
}

// New returns a Flags block with the given cooldown window. A zero cooldown
// selects DefaultCooldown.
func New(cooldown time.Duration) *Flags {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	f := &Flags{}
	f.cooldownNs = int64(cooldown)
	return f
}

// SignalActivity marks the pipeline hot. Producers call this when traffic
// arrives so consumers keep spinning instead of relaxing.
//
//go:nosplit
//go:inline
func (f *Flags) SignalActivity() {
	f.hot.Store(1)
	f.lastHot.Store(time.Now().UnixNano())
}

// PollCooldown clears the hot flag once the cooldown window has elapsed with
// no activity. Consumers fold this into their spin loops.
//
//go:nosplit
//go:inline
func (f *Flags) PollCooldown() {
	if f.hot.Load() == 1 && time.Now().UnixNano()-f.lastHot.Load() > f.cooldownNs {
		f.hot.Store(0)
	}
}

// Hot reports whether the producing side has signaled recent traffic.
//
//go:nosplit
//go:inline
func (f *Flags) Hot() bool { return f.hot.Load() == 1 }

// Shutdown raises the stop flag. Consumers exit their loops at the next
// poll.
//
//go:nosplit
//go:inline
func (f *Flags) Shutdown() { f.stop.Store(1) }

// Stopped reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func (f *Flags) Stopped() bool { return f.stop.Load() == 1 }
