// utils.go — low-level helpers shared by the containers, shm layer & logging.
package utils

import (
	"unsafe"

	"shmchan/constants"
)

///////////////////////////////////////////////////////////////////////////////
// Tiny zero-alloc conversions
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string without an allocation.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b)) // caller must keep b immutable
}

// Itoa formats an int without touching strconv's fast-path allocations.
// Handles the full signed 64-bit range including the minimum value.
//
//go:nosplit
//go:inline
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := v < 0
	u := uint64(v)
	if neg {
		u = -u
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Utoa formats a uint64 the same way.
//
//go:nosplit
//go:inline
func Utoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

///////////////////////////////////////////////////////////////////////////////
// Raw stderr writer
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to file descriptor 2. No buffering, no
// locking, no interface boxing; a single write syscall per call.
//
//go:nosplit
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	b := unsafe.Slice(unsafe.StringData(msg), len(msg))
	_, _ = syscallWrite(2, b)
}

///////////////////////////////////////////////////////////////////////////////
// Alignment arithmetic
///////////////////////////////////////////////////////////////////////////////

// AlignUp rounds n up to the next multiple of align. align must be a power
// of two.
//
//go:nosplit
//go:inline
func AlignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// AlignedBlock allocates a byte block of the given size whose first byte is
// aligned to constants.CacheLine. The returned slice keeps the backing array
// reachable, so holding it is enough to keep the block alive.
func AlignedBlock(size uintptr) []byte {
	raw := make([]byte, size+constants.CacheLine)
	off := uintptr(unsafe.Pointer(&raw[0])) & (constants.CacheLine - 1)
	pad := uintptr(0)
	if off != 0 {
		pad = constants.CacheLine - off
	}
	return raw[pad : pad+size : pad+size]
}

///////////////////////////////////////////////////////////////////////////////
// Hash mixing
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Used as the payload checksum in the seqlock tearing probes.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
