// ════════════════════════════════════════════════════════════════════════════════════════════════
// SHARED-MEMORY SEGMENT
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Shared-Memory Channel Transport
// Component: Owner/User Mapped Region with Initialization Handshake
//
// Description:
//   A Segment owns or attaches a file-backed mapping holding one container
//   region. The owner creates the file, sizes it, maps it, constructs the
//   payload in place and publishes an initialized flag; attaching processes
//   map the same file and wait for the flag before touching the payload.
//
// Mapped layout:
//   offset 0:          initialized flag (one 64-bit word, padded to a line)
//   offset CacheLine:  payload region (cache-line aligned by construction)
//   total:             rounded up to the page or huge-page unit
//
// Ownership:
//   Exactly one process creates with Create; it alone unlinks the name on
//   Close. Attachers never unlink and never reinitialize the payload.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build linux

package shm

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"shmchan/constants"
	"shmchan/debug"
	"shmchan/utils"
)

// Segment is the ownership handle over one mapping. Handles are single-owner:
// after Close the handle is dead and every accessor misbehaves.
type Segment struct {
	name  string
	path  string
	fd    int
	mem   []byte
	owner bool
	rec   Recorder
}

// mappedSize is the file and mapping length for a payload.
func mappedSize(payloadSize uintptr, hugePages bool) uintptr {
	unit := uintptr(constants.PageSize)
	if hugePages {
		unit = constants.HugePageSize
	}
	return utils.AlignUp(constants.CacheLine+payloadSize, unit)
}

// Create builds the owner-side segment: unlink any stale entry, create the
// backing file exclusively, size it, and map it. The payload is zero on
// return; the owner constructs its container in place and then calls
// Publish. On any failure no filesystem artifact survives.
func Create(name string, payloadSize uintptr, opts Options) (*Segment, error) {
	path := ResolvePath(name, opts.HugePages)
	size := mappedSize(payloadSize, opts.HugePages)

	// Stale entry from a crashed prior owner: remove before the exclusive
	// create so EEXIST cannot fire.
	_ = unix.Unlink(path)

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		if opts.HugePages && err == unix.ENOENT {
			// No hugetlbfs mount at the expected root.
			return nil, &Error{Op: "open", Path: path, Err: ErrHugePagesUnavailable}
		}
		return nil, &Error{Op: "open", Path: path, Err: err}
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, &Error{Op: "ftruncate", Path: path, Err: err}
	}

	mem, err := mapSegment(fd, size, opts.HugePages)
	if err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, &Error{Op: "mmap", Path: path, Err: err}
	}

	s := &Segment{name: name, path: path, fd: fd, mem: mem, owner: true, rec: opts.Recorder}
	if s.rec != nil {
		if err := s.rec.Record(name, path); err != nil {
			debug.DropError("SHM_REGISTRY", err)
		}
	}
	return s, nil
}

// Attach builds a user-side segment over an existing file: open, verify the
// size covers the expected layout, map, and wait for the owner's
// initialized flag.
func Attach(name string, payloadSize uintptr, opts Options) (*Segment, error) {
	path := ResolvePath(name, opts.HugePages)
	size := mappedSize(payloadSize, opts.HugePages)

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, &Error{Op: "open", Path: path, Err: ErrNotExist}
		}
		return nil, &Error{Op: "open", Path: path, Err: err}
	}

	// A file smaller than the layout would map fine and then SIGBUS on
	// first touch past EOF, e.g. when the owner died between open and
	// ftruncate. Reject it here instead.
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, &Error{Op: "fstat", Path: path, Err: err}
	}
	if uintptr(st.Size) < size {
		_ = unix.Close(fd)
		return nil, &Error{Op: "fstat", Path: path, Err: ErrSizeMismatch}
	}

	mem, err := mapSegment(fd, size, opts.HugePages)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &Error{Op: "mmap", Path: path, Err: err}
	}

	s := &Segment{name: name, path: path, fd: fd, mem: mem, owner: false}
	if err := s.waitInitialized(opts.InitTimeout); err != nil {
		_ = unix.Munmap(mem)
		_ = unix.Close(fd)
		return nil, &Error{Op: "wait", Path: path, Err: err}
	}
	return s, nil
}

func mapSegment(fd int, size uintptr, hugePages bool) ([]byte, error) {
	flags := unix.MAP_SHARED
	if hugePages {
		flags |= unix.MAP_HUGETLB
	}
	mem, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		if hugePages && (err == unix.EINVAL || err == unix.ENOMEM) {
			// Typical when /proc/sys/vm/nr_hugepages is zero.
			return nil, ErrHugePagesUnavailable
		}
		return nil, err
	}
	return mem, nil
}

//go:nosplit
func (s *Segment) initFlag() *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&s.mem[0]))
}

// waitInitialized polls the owner's flag until it flips or the budget runs
// out. Attach is a cold path; the poll sleeps rather than burning a core.
func (s *Segment) waitInitialized(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = constants.InitAttachTimeout
	}
	deadline := time.Now().Add(timeout)
	for s.initFlag().Load() == 0 {
		if !time.Now().Before(deadline) {
			return ErrInitTimeout
		}
		time.Sleep(constants.InitAttachPoll)
	}
	return nil
}

// Publish marks the payload constructed. The owner calls this exactly once,
// after placing its container into Payload(); attachers are released by the
// store.
func (s *Segment) Publish() {
	s.initFlag().Store(1)
}

// Payload returns the cache-line-aligned container region.
//
//go:nosplit
func (s *Segment) Payload() unsafe.Pointer {
	return unsafe.Pointer(&s.mem[constants.CacheLine])
}

// Name returns the cleartext identifier the segment was constructed with.
func (s *Segment) Name() string { return s.name }

// Path returns the resolved backing file path.
func (s *Segment) Path() string { return s.path }

// Owner reports whether this handle created the segment.
func (s *Segment) Owner() bool { return s.owner }

// Close releases the mapping. The owner additionally unlinks the name so no
// future attach can find it; users leave the file for the owner to reap.
func (s *Segment) Close() error {
	if s.mem == nil {
		return nil
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	if cerr := unix.Close(s.fd); err == nil {
		err = cerr
	}
	s.fd = -1
	if s.owner {
		if uerr := unix.Unlink(s.path); err == nil {
			err = uerr
		}
		if s.rec != nil {
			if rerr := s.rec.Remove(s.path); rerr != nil {
				debug.DropError("SHM_REGISTRY", rerr)
			}
		}
	}
	return err
}
