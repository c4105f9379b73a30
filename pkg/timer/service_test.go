package timer

import (
	"testing"
	"time"

	"gotest.tools/assert"
)

type loop struct {
	calls chan func()
	stop  chan struct{}
}

func newLoop() *loop {
	l := &loop{calls: make(chan func(), 16), stop: make(chan struct{})}
	go func() {
		for {
			select {
			case fn := <-l.calls:
				fn()
			case <-l.stop:
				return
			}
		}
	}()
	return l
}

func (l *loop) dispatch(fn func()) bool {
	select {
	case l.calls <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// do runs fn on the loop and waits for it
func (l *loop) do(fn func()) {
	done := make(chan struct{})
	l.dispatch(func() { fn(); close(done) })
	<-done
}

func TestTimerFires(t *testing.T) {
	l := newLoop()
	defer close(l.stop)
	svc := New(l.dispatch)
	fired := make(chan string, 1)
	var h *Handle
	l.do(func() {
		h = svc.Start("AA", ConnectTimeout, 10*time.Millisecond, func(key string) { fired <- key })
	})
	select {
	case key := <-fired:
		assert.Equal(t, key, "AA")
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	l.do(func() { assert.Assert(t, !h.Active()) })
	assert.Equal(t, svc.Live(), 0)
}

func TestCancelBeforeFire(t *testing.T) {
	l := newLoop()
	defer close(l.stop)
	svc := New(l.dispatch)
	fired := make(chan string, 1)
	l.do(func() {
		h := svc.Start("AA", LegacyFallback, 20*time.Millisecond, func(key string) { fired <- key })
		h.Cancel()
		h.Cancel()
	})
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(80 * time.Millisecond):
	}
	assert.Equal(t, svc.Live(), 0)
}

func TestCancelAfterExpiryWins(t *testing.T) {
	l := newLoop()
	defer close(l.stop)
	svc := New(l.dispatch)
	fired := make(chan string, 1)
	l.do(func() {
		h := svc.Start("AA", ConnectTimeout, time.Millisecond, func(key string) { fired <- key })
		// let the timer expire while the loop is busy, then cancel on the loop
		time.Sleep(20 * time.Millisecond)
		h.Cancel()
	})
	select {
	case <-fired:
		t.Fatal("late fire observed after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelRacingGoneDispatcher(t *testing.T) {
	svc := New(func(func()) bool { return false })
	handles := make([]*Handle, 50)
	for i := range handles {
		handles[i] = svc.Start("AA", ConnectTimeout, time.Millisecond, func(string) {
			t.Error("callback ran without a dispatcher")
		})
	}
	time.Sleep(time.Millisecond)
	for _, h := range handles {
		h.Cancel()
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, svc.Live(), 0)
	for _, h := range handles {
		assert.Assert(t, !h.Active())
	}
}

func TestNilHandle(t *testing.T) {
	var h *Handle
	h.Cancel()
	assert.Assert(t, !h.Active())
}

func TestPurposeString(t *testing.T) {
	assert.Equal(t, ConnectTimeout.String(), "ConnectTimeout")
	assert.Equal(t, LegacyFallback.String(), "LegacyFallback")
}
