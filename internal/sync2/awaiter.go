// Package sync2 holds the two cooperative concurrency primitives the raster
// pipeline and orchestrator need beyond what the standard library or
// golang.org/x/sync/semaphore expose directly: a predicate-based Awaiter for
// active-task pacing, and a blocking sum limiter for byte admission.
package sync2

import (
	"sync"
	"time"
)

// waitTimeout bounds every Awaiter.DoWait call so a lost notify can never
// wedge a reader task forever; waits must be bounded (timed) to tolerate
// lost notifications.
const waitTimeout = 2 * time.Second

// Awaiter is a predicate-guarded wait/notify primitive: DoWait blocks until
// pred() reports true, re-checking on every DoNotify and periodically on a
// timeout. It is the cooperative counterpart to the active-task counter the
// raster pipeline paces reading against.
type Awaiter struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func NewAwaiter() *Awaiter {
	a := &Awaiter{}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// DoWait blocks until pred() returns true, waking on every DoNotify and
// re-checking at least every waitTimeout in case a notify was lost.
func (a *Awaiter) DoWait(pred func() bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for !pred() {
		timer := time.AfterFunc(waitTimeout, a.DoNotify)
		a.cond.Wait()
		timer.Stop()
	}
}

// DoNotify wakes every goroutine blocked in DoWait so they can re-check
// their predicate.
func (a *Awaiter) DoNotify() {
	a.mu.Lock()
	a.cond.Broadcast()
	a.mu.Unlock()
}
