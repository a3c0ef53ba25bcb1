// ════════════════════════════════════════════════════════════════════════════════════════════════
// CORE-PINNED CONSUMER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Shared-Memory Channel Transport
// Component: Dedicated-Core Queue Draining
//
// Description:
//   Binds a goroutine to an OS thread and a CPU core, then drains a queue with
//   adaptive polling: continuous spinning while traffic flows, graduated CPU
//   relaxation once the pipeline goes quiet. Coordination runs through a
//   control.Flags block shared with the producing side.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package queue

import (
	"runtime"
	"time"

	"shmchan/control"
	"shmchan/debug"
	"shmchan/platform"
)

const (
	// hotWindow keeps the consumer in continuous polling after the last
	// successful pop, independent of the producer's hot flag.
	hotWindow = 5 * time.Second

	// spinBudget is the failed-poll count between Relax hints once the
	// pipeline has cooled.
	spinBudget = 224
)

// PinnedConsumer launches a goroutine locked to core that drains q through
// handler until flags.Shutdown fires. done is closed when the consumer has
// exited. A negative core skips the affinity call and only locks the OS
// thread.
func PinnedConsumer[T any](core int, q *Queue[T], flags *control.Flags, handler func(*T), done chan<- struct{}) {
	go func() {
		defer close(done)

		if core >= 0 {
			unpin, err := platform.PinCurrent(core, 0)
			if err != nil {
				// Run unpinned; binding failures degrade placement, not
				// correctness.
				debug.DropError("PIN", err)
			} else {
				defer unpin()
			}
		} else {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}

		var miss int
		lastHit := time.Now()

		for {
			if flags.Stopped() {
				return
			}

			if q.TryConsume(handler) {
				miss = 0
				lastHit = time.Now()
				continue
			}

			flags.PollCooldown()
			if flags.Hot() || time.Since(lastHit) <= hotWindow {
				continue
			}

			if miss++; miss >= spinBudget {
				miss = 0
				platform.Relax()
			}
		}
	}()
}
