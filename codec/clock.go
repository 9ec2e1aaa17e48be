package codec

import (
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// Writer Clock
// --------------------------------------------------------------------------

// Clock produces writer timestamps for LWW values. Timestamps are derived
// from the wall clock but strictly monotonic per clock instance, so two
// puts issued back to back by the same client never collide.
type Clock struct {
	last atomic.Uint64
}

// NewClock creates a new writer clock
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next timestamp: the current wall-clock time in
// nanoseconds, bumped past the previously issued timestamp if the wall
// clock has not advanced.
func (c *Clock) Next() uint64 {
	now := uint64(time.Now().UnixNano())
	for {
		last := c.last.Load()
		ts := now
		if ts <= last {
			ts = last + 1
		}
		if c.last.CompareAndSwap(last, ts) {
			return ts
		}
	}
}
