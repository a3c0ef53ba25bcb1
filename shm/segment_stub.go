//go:build !linux

package shm

import (
	"errors"
	"unsafe"
)

// ErrUnsupported is returned on platforms without the /dev/shm mapping
// model this package targets.
var ErrUnsupported = errors.New("shm: shared segments require linux")

// Segment is a placeholder on unsupported platforms.
type Segment struct{}

func Create(name string, payloadSize uintptr, opts Options) (*Segment, error) {
	return nil, ErrUnsupported
}

func Attach(name string, payloadSize uintptr, opts Options) (*Segment, error) {
	return nil, ErrUnsupported
}

func (s *Segment) Publish()                {}
func (s *Segment) Payload() unsafe.Pointer { return nil }
func (s *Segment) Name() string            { return "" }
func (s *Segment) Path() string            { return "" }
func (s *Segment) Owner() bool             { return false }
func (s *Segment) Close() error            { return nil }
