package controller

import "sync/atomic"

// Clock hands out the sequence numbers stamped on ApplyReport.Seq. Reports
// from one controller are totally ordered by Seq even when run ids are random.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first stamp is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first stamp is last+1, for resuming a
// sequence across controller restarts.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// Next advances the clock and returns the new stamp.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last stamp handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
