// Package timer implements a one-shot cancellable deferred callback bound to
// a cooperative scheduler, standing in for pyxyzzy's asyncio-task-backed
// CallbackTimer.
package timer

import (
	"sync/atomic"
	"time"
)

// Poster runs fn on the owning scheduler's single loop goroutine. Callback
// timers fire on their own goroutine (time.AfterFunc) and must hand off
// through Post before touching any engine state.
type Poster interface {
	Post(fn func())
}

// CallbackTimer arms at most one pending callback at a time. Starting a new
// one cancels whatever was previously armed. The callback always runs on
// the scheduler's loop goroutine via Poster, never on the timer's own
// goroutine, so it is never concurrent with other engine mutation.
type CallbackTimer struct {
	poster     Poster
	timer      *time.Timer
	generation uint64
	armed      atomic.Bool
}

// New creates a CallbackTimer that posts fired callbacks through poster.
func New(poster Poster) *CallbackTimer {
	return &CallbackTimer{poster: poster}
}

// Start arms callback to run after d, cancelling any previously armed
// callback on this timer.
func (c *CallbackTimer) Start(d time.Duration, callback func()) {
	c.Cancel()
	gen := atomic.AddUint64(&c.generation, 1)
	c.armed.Store(true)
	c.timer = time.AfterFunc(d, func() {
		// A Cancel (or a later Start) may have run between this firing and
		// now; the generation check makes that race harmless instead of
		// invoking a stale callback.
		if atomic.LoadUint64(&c.generation) != gen {
			return
		}
		c.armed.Store(false)
		c.poster.Post(callback)
	})
}

// Cancel stops any pending callback. Idempotent; calling it from inside the
// very callback it would have cancelled is a no-op, since by then a new
// generation has not been armed.
func (c *CallbackTimer) Cancel() {
	atomic.AddUint64(&c.generation, 1)
	c.armed.Store(false)
	if c.timer != nil {
		c.timer.Stop()
	}
}

// IsRunning reports whether a callback is currently armed.
func (c *CallbackTimer) IsRunning() bool {
	return c.armed.Load()
}
