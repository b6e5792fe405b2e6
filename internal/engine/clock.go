package engine

import "sync/atomic"

// Clock hands out the seq that orders the audit log.
//
// Every dispatch against an existing case takes the next seq, denied
// ones included, so the log has a total order independent of wall time.
// Only the Run goroutine calls Next; the atomic lets callers read
// Current from elsewhere.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out, 0 if none.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// AdvanceTo moves the clock forward so the next seq follows seq.
// A clock already past seq is left alone.
func (c *Clock) AdvanceTo(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
