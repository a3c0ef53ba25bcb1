// error.go — typed construction errors for shared segments
//
// Every fallible path in this package is construction-time. Failures carry
// the syscall step that failed and the resolved path, and unwrap to either
// a package sentinel or the underlying OS error so callers can branch with
// errors.Is.

package shm

import "errors"

var (
	// ErrNotExist: attach named a segment no owner has created (or the
	// owner already dropped it).
	ErrNotExist = errors.New("shm: segment does not exist")

	// ErrSizeMismatch: the backing file is smaller than the expected
	// layout. Mapping it anyway would fault on first touch past EOF.
	ErrSizeMismatch = errors.New("shm: segment smaller than expected layout")

	// ErrInitTimeout: the attach-side wait for the owner's initialized
	// flag exhausted its budget.
	ErrInitTimeout = errors.New("shm: owner never published initialization")

	// ErrHugePagesUnavailable: MAP_HUGETLB was requested but the platform
	// has no reserved huge pages (or no hugetlbfs mount).
	ErrHugePagesUnavailable = errors.New("shm: huge pages unavailable")
)

// Error wraps a failed construction step.
type Error struct {
	Op   string // failed step: open, ftruncate, fstat, mmap, wait
	Path string // resolved filesystem path
	Err  error  // sentinel or OS error
}

func (e *Error) Error() string {
	return "shm: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
