// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Global tunables for the lock-free transport core
//
// Purpose:
//   - Defines the cache and page geometry every container is padded against.
//   - Defines shared-memory directory roots and attach/spin budgets.
//   - Defines default channel capacities used by the itc/ipc layers.
//
// Notes:
//   - Cache line is taken as 64 bytes; huge pages as 2 MiB. Both are fixed
//     at compile time so struct padding stays a constant expression.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ──────────────────────────── Memory Geometry ──────────────────────────────

const (
	// CacheLine is the coherence transfer unit. Every independently written
	// atomic in the containers is isolated on its own line of this size.
	CacheLine = 64

	// PageSize is the ordinary mapping granule. Segment lengths are rounded
	// up to this when huge pages are not requested.
	PageSize = 4096

	// HugePageSize is the large mapping granule used when a segment requests
	// MAP_HUGETLB backing. Lengths round up to this instead of PageSize.
	HugePageSize = 2 << 20
)

// ────────────────────────── Shared-Memory Roots ────────────────────────────

const (
	// ShmDir hosts ordinary page-backed segments.
	ShmDir = "/dev/shm"

	// HugePageDir hosts huge-page-backed segments (hugetlbfs mount).
	HugePageDir = "/dev/hugepages"

	// MaxSegmentName is the filesystem NAME_MAX bound. Longer identifiers
	// are replaced by a fixed-width digest before path resolution.
	MaxSegmentName = 255
)

// ─────────────────────────── Channel Defaults ──────────────────────────────

const (
	// DefaultQueueCapacity is the slot count a queue channel gets when the
	// caller does not size it. Must stay a power of two.
	DefaultQueueCapacity = 1024

	// DefaultSnapshotDepth is the slot count of a buffered snapshot ring.
	// Must stay a power of two.
	DefaultSnapshotDepth = 8
)

// ───────────────────────── Spin / Attach Budgets ───────────────────────────

const (
	// InitAttachTimeout bounds how long an attaching process waits for the
	// owner to publish the initialized flag before the attach fails.
	InitAttachTimeout = 2 * time.Second

	// InitAttachPoll is the sleep between initialized-flag probes. Attach is
	// a cold path, so the probe cadence trades idle cycles for latency.
	InitAttachPoll = 50 * time.Microsecond

	// TimeoutCheckMask gates clock reads inside timed spin loops: the
	// monotonic clock is consulted once every TimeoutCheckMask+1 failed
	// attempts. Must be a power of two minus one.
	TimeoutCheckMask = 255
)
