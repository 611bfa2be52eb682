package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncPoster runs posted callbacks inline but records the call for
// thread-safety assertions, since real posts arrive from the timer's own
// goroutine.
type syncPoster struct {
	mu    sync.Mutex
	calls int
}

func (p *syncPoster) Post(fn func()) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	fn()
}

func TestStartFiresOnce(t *testing.T) {
	p := &syncPoster{}
	ct := New(p)
	done := make(chan struct{})
	ct.Start(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	assert.False(t, ct.IsRunning())
}

func TestCancelPreventsFiring(t *testing.T) {
	p := &syncPoster{}
	ct := New(p)
	fired := false
	ct.Start(20*time.Millisecond, func() { fired = true })
	ct.Cancel()
	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired)
}

func TestCancelIsIdempotent(t *testing.T) {
	p := &syncPoster{}
	ct := New(p)
	ct.Cancel()
	ct.Cancel()
	ct.Start(5*time.Millisecond, func() {})
	time.Sleep(20 * time.Millisecond)
}

func TestRestartCancelsPrevious(t *testing.T) {
	p := &syncPoster{}
	ct := New(p)
	firstFired := false
	ct.Start(10*time.Millisecond, func() { firstFired = true })
	ct.Start(10*time.Millisecond, func() {})
	time.Sleep(50 * time.Millisecond)
	assert.False(t, firstFired, "restarting must cancel the previous callback")
}

func TestCancelFromInsideCallbackIsNoop(t *testing.T) {
	p := &syncPoster{}
	ct := New(p)
	done := make(chan struct{})
	ct.Start(5*time.Millisecond, func() {
		ct.Cancel() // must not panic or deadlock
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	require.False(t, ct.IsRunning())
}
