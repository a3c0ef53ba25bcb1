//go:build !linux

package platform

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned from the binding helpers on platforms without
// sched(2)/mempolicy(2).
var ErrUnsupported = errors.New("platform: thread binding not supported on this OS")

func BindCPU(core int) error                 { return ErrUnsupported }
func SetRealtimePriority(priority int) error { return ErrUnsupported }
func BindNUMA(node, core int) error          { return ErrUnsupported }

// PinCurrent still locks the OS thread so consumer loops keep their thread
// identity; the affinity request itself is unsupported.
func PinCurrent(core, rtPriority int) (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}
