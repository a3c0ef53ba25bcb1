// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - ARM64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Shared-Memory Channel Transport
// Component: AArch64 Spin-Wait Hint
//
// Description:
//   Platform-specific implementation for AArch64 processors using the YIELD instruction.
//   Signals the core that the current hardware thread is busy-waiting so execution
//   resources can be shared with the sibling thread.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build arm64 && !nocgo

package platform

/*
#ifdef __aarch64__
static inline void cpu_yield() {
    __asm__ __volatile__("yield" ::: "memory");
}
#else
#error "This file requires ARM64 architecture"
#endif
*/
import "C"

// Relax emits the AArch64 YIELD instruction. Call it from every spin-wait
// iteration that is waiting on the opposite endpoint of a container.
//
//go:norace
//go:nocheckptr
//go:inline
//go:registerparams
func Relax() {
	C.cpu_yield()
}
