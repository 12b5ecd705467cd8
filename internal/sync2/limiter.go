package sync2

import "sync"

// Limiter is a single shared ledger bounding aggregate in-flight bytes
// across concurrent tile requests. It is deliberately not built on
// golang.org/x/sync/semaphore.Weighted: that type panics/blocks forever
// when asked to acquire more than its configured size, whereas this limiter
// must admit a single oversized request once the ledger is empty to avoid
// deadlocking on a tile bigger than the whole budget. See DESIGN.md.
type Limiter struct {
	mu      sync.Mutex
	cond    *sync.Cond
	current int64
}

func NewLimiter() *Limiter {
	l := &Limiter{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Add blocks while current+x > max && current > 0, then admits x.
func (l *Limiter) Add(x, max int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.current+x > max && l.current > 0 {
		l.cond.Wait()
	}
	l.current += x
}

// Subtract decrements the ledger and wakes waiters.
func (l *Limiter) Subtract(x int64) {
	l.mu.Lock()
	l.current -= x
	l.mu.Unlock()
	l.cond.Broadcast()
}

// Current returns the ledger's present value (for tests/metrics).
func (l *Limiter) Current() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
