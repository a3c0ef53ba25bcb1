// options.go — construction options shared by every platform backend

package shm

import "time"

// Recorder observes segment lifecycle. A registry implementation uses it to
// track live segments for crash sweeps; recording failures are logged, never
// propagated into construction.
type Recorder interface {
	Record(name, path string) error
	Remove(path string) error
}

// Options selects the backing page unit and the attach budget.
type Options struct {
	// HugePages requests MAP_HUGETLB backing under /dev/hugepages. When the
	// platform cannot satisfy the request, construction fails; there is no
	// silent fallback to ordinary pages.
	HugePages bool

	// InitTimeout bounds the attach-side wait for the owner's initialized
	// flag. Zero selects constants.InitAttachTimeout.
	InitTimeout time.Duration

	// Recorder, when non-nil, is notified of owner-side create and close.
	Recorder Recorder
}
