//go:build !linux

package itc

// NewQueueHuge is unavailable off linux; the request fails rather than
// silently degrading to an ordinary heap region.
func NewQueueHuge[T any](capacity uint64) (*Sender[T], *Receiver[T], error) {
	return nil, nil, errHugeUnsupported
}
