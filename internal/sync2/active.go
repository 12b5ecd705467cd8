package sync2

import "sync/atomic"

// ActiveCounter bounds the number of "active" tasks -- queued or running,
// not yet decremented. TryIncrement is non-blocking so callers can combine
// it with an Awaiter to implement pace_reading: try, and if over cap,
// DoWait until a compute task decrements.
type ActiveCounter struct {
	count   atomic.Int64
	cap     int64
	awaiter *Awaiter
}

func NewActiveCounter(cap int64, awaiter *Awaiter) *ActiveCounter {
	return &ActiveCounter{cap: cap, awaiter: awaiter}
}

// TryIncrement increments and returns true if the result stays within cap;
// otherwise it rolls back and returns false.
func (c *ActiveCounter) TryIncrement() bool {
	if c.count.Add(1) <= c.cap {
		return true
	}
	c.count.Add(-1)
	return false
}

// PaceReading blocks until the counter can be incremented under cap, then
// increments it. onPaced, if non-nil, is invoked with the resulting count
// once admitted.
func (c *ActiveCounter) PaceReading(onPaced func(int64)) {
	c.awaiter.DoWait(c.TryIncrement)
	if onPaced != nil {
		onPaced(c.count.Load())
	}
}

// Decrement decrements the counter and wakes waiters pacing on it.
func (c *ActiveCounter) Decrement() {
	c.count.Add(-1)
	c.awaiter.DoNotify()
}

func (c *ActiveCounter) Load() int64 { return c.count.Load() }
