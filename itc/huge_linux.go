// huge_linux.go — itc queue backed by an anonymous huge-page mapping
//
// Identical channel semantics to NewQueue; only the allocation differs. The
// region comes from an anonymous MAP_HUGETLB mapping, so the kernel must
// have huge pages reserved (/proc/sys/vm/nr_hugepages). Per the no-fallback
// rule, an unsatisfiable request is an error, not a downgrade to 4 KiB
// pages.

//go:build linux

package itc

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"shmchan/constants"
	"shmchan/queue"
	"shmchan/shm"
	"shmchan/utils"
)

// NewQueueHuge creates a queue channel whose region lives in anonymous
// huge pages. The mapping is released when both endpoints close.
func NewQueueHuge[T any](capacity uint64) (*Sender[T], *Receiver[T], error) {
	if capacity == 0 {
		capacity = constants.DefaultQueueCapacity
	}
	size := utils.AlignUp(queue.Footprint[T](capacity), constants.HugePageSize)
	mem, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		if err == unix.EINVAL || err == unix.ENOMEM {
			return nil, nil, shm.ErrHugePagesUnavailable
		}
		return nil, nil, err
	}

	q := queue.Place[T](unsafe.Pointer(&mem[0]), capacity)
	sh := newShared(func() { _ = unix.Munmap(mem) })
	return &Sender[T]{q: q, shared: sh}, &Receiver[T]{q: q, shared: sh}, nil
}
