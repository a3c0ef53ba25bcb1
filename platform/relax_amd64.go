// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - AMD64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Shared-Memory Channel Transport
// Component: x86-64 Spin-Wait Hint
//
// Description:
//   Platform-specific implementation for x86-64 processors using the PAUSE instruction.
//   Every busy-spin in the queue and seqlock blocking paths funnels through Relax, so the
//   hint keeps hyperthread siblings responsive and trims speculation during waits.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build amd64 && !nocgo

package platform

/*
#ifdef __x86_64__
static inline void cpu_pause() {
    __asm__ __volatile__("pause" ::: "memory");
}
#else
#error "This file requires x86-64 architecture"
#endif
*/
import "C"

// Relax emits the x86-64 PAUSE instruction. Call it from every spin-wait
// iteration that is waiting on the opposite endpoint of a container.
//
//go:norace
//go:nocheckptr
//go:inline
//go:registerparams
func Relax() {
	C.cpu_pause()
}
