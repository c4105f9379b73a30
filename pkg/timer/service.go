// Package timer provides one-shot, cancellable delayed callbacks whose firing
// is handed to a dispatcher instead of running on the timer goroutine. With a
// dispatcher that feeds a single control loop, a Cancel issued on that loop
// always wins against a timer that has already expired but not yet run.
package timer

import (
	"sync/atomic"
	"time"
)

// Purpose tells apart the timers that may be live for one key
type Purpose int

const (
	// ConnectTimeout bounds how long an accessory may stay connecting
	ConnectTimeout Purpose = iota
	// LegacyFallback fires when an accessory does not answer INITIALIZE in time
	LegacyFallback
	// NumPurposes is the number of Purpose values
	NumPurposes
)

func (p Purpose) String() string {
	return []string{"ConnectTimeout", "LegacyFallback"}[p]
}

// Dispatcher hands fn to the goroutine that owns timer state. It reports
// false when that goroutine is gone and fn will never run.
type Dispatcher func(fn func()) bool

// Service arms timers for a single owner
type Service struct {
	dispatch Dispatcher
	live     int64
}

// Handle is a live timer. It must only be cancelled from the dispatcher's goroutine.
type Handle struct {
	Key       string
	Purpose   Purpose
	t         *time.Timer
	cancelled bool
	done      int32
	svc       *Service
}

// New returns a Service delivering fires through dispatch
func New(dispatch Dispatcher) *Service {
	return &Service{dispatch: dispatch}
}

// Start arms a one-shot timer calling cb(key) after d, on the dispatcher's goroutine
func (s *Service) Start(key string, p Purpose, d time.Duration, cb func(key string)) *Handle {
	h := &Handle{Key: key, Purpose: p, svc: s}
	atomic.AddInt64(&s.live, 1)
	h.t = time.AfterFunc(d, func() {
		ok := s.dispatch(func() {
			if h.cancelled || !h.finish() {
				return
			}
			cb(key)
		})
		if !ok {
			h.finish()
		}
	})
	return h
}

// Live returns the number of armed timers that have neither fired nor been cancelled
func (s *Service) Live() int { return int(atomic.LoadInt64(&s.live)) }

// finish retires the handle once, whichever of fire, cancel or a gone
// dispatcher gets there first, and reports whether this call did it
func (h *Handle) finish() bool {
	if !atomic.CompareAndSwapInt32(&h.done, 0, 1) {
		return false
	}
	atomic.AddInt64(&h.svc.live, -1)
	return true
}

// Cancel stops the timer. Cancelling twice, or after the callback ran, is a no-op.
func (h *Handle) Cancel() {
	if h == nil || h.cancelled {
		return
	}
	h.cancelled = true
	h.t.Stop()
	h.finish()
}

// Active reports whether the timer can still fire
func (h *Handle) Active() bool {
	return h != nil && !h.cancelled && atomic.LoadInt32(&h.done) == 0
}
