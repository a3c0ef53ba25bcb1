// bind_linux.go — thread binding helpers via sched(2) and mempolicy(2)
//
// The transport core never calls these on its own; deployments that dedicate
// cores to producers or pinned consumers call them from the owning goroutine
// after runtime.LockOSThread. Failures are reported, never fatal.

//go:build linux

package platform

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedParam mirrors struct sched_param for sched_setscheduler(2).
type schedParam struct {
	priority int32
}

// BindCPU pins the calling thread to a single CPU core. The caller must hold
// runtime.LockOSThread for the pin to stay meaningful.
func BindCPU(core int) error {
	if core < 0 {
		return fmt.Errorf("platform: bad core index %d", core)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("platform: sched_setaffinity(core %d): %w", core, err)
	}
	return nil
}

// SetRealtimePriority switches the calling thread to SCHED_FIFO at the given
// priority (1..99). Requires CAP_SYS_NICE or an rtprio rlimit.
func SetRealtimePriority(priority int) error {
	if priority < 1 || priority > 99 {
		return fmt.Errorf("platform: bad SCHED_FIFO priority %d", priority)
	}
	p := schedParam{priority: int32(priority)}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER,
		0, // current thread
		uintptr(unix.SCHED_FIFO),
		uintptr(unsafe.Pointer(&p)))
	if errno != 0 {
		return fmt.Errorf("platform: sched_setscheduler(SCHED_FIFO %d): %w", priority, errno)
	}
	return nil
}

const mpolBind = 2 // MPOL_BIND from linux/mempolicy.h

// BindNUMA validates that core belongs to the given NUMA node, binds memory
// allocation to that node via set_mempolicy(2), then pins the thread to the
// core. Topology mismatches are rejected before any state is changed.
func BindNUMA(node, core int) error {
	if err := validateTopology(node, core); err != nil {
		return err
	}
	// Nodemask covering nodes 0..63; one word is enough for every machine
	// this library targets. The kernel reads maxnode-1 bits, so 65 spans
	// the full word.
	mask := [1]uintptr{1 << uint(node)}
	_, _, errno := unix.Syscall(unix.SYS_SET_MEMPOLICY,
		uintptr(mpolBind),
		uintptr(unsafe.Pointer(&mask[0])),
		uintptr(65))
	if errno != 0 {
		return fmt.Errorf("platform: set_mempolicy(node %d): %w", node, errno)
	}
	return BindCPU(core)
}

// validateTopology checks /sys/devices/system/node for the node's cpulist and
// confirms the requested core is on it.
func validateTopology(node, core int) error {
	if node < 0 || node > 63 {
		return fmt.Errorf("platform: bad NUMA node %d", node)
	}
	path := "/sys/devices/system/node/node" + strconv.Itoa(node) + "/cpulist"
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("platform: NUMA node %d unavailable: %w", node, err)
	}
	if !cpuListContains(strings.TrimSpace(string(raw)), core) {
		return fmt.Errorf("platform: core %d is not on NUMA node %d", core, node)
	}
	return nil
}

// cpuListContains parses a sysfs cpulist ("0-3,8,10-11") and reports whether
// cpu appears in it.
func cpuListContains(list string, cpu int) bool {
	if list == "" {
		return false
	}
	for _, part := range strings.Split(list, ",") {
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, err1 := strconv.Atoi(lo)
			b, err2 := strconv.Atoi(hi)
			if err1 == nil && err2 == nil && cpu >= a && cpu <= b {
				return true
			}
		} else if v, err := strconv.Atoi(part); err == nil && v == cpu {
			return true
		}
	}
	return false
}

// PinCurrent is the common prologue for dedicated consumer threads: lock the
// goroutine to its OS thread, pin the thread to core, and optionally raise it
// to SCHED_FIFO. A zero rtPriority skips the scheduler change. The returned
// unpin must be deferred by the caller.
func PinCurrent(core, rtPriority int) (unpin func(), err error) {
	runtime.LockOSThread()
	if err := BindCPU(core); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	if rtPriority > 0 {
		if err := SetRealtimePriority(rtPriority); err != nil {
			runtime.UnlockOSThread()
			return nil, err
		}
	}
	return runtime.UnlockOSThread, nil
}
