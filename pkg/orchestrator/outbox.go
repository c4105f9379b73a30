package orchestrator

import (
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/rs/zerolog"
)

// outbox delivers callbacks off the control loop, in the order they were
// queued. The queue is unbounded so a slow callback never stalls the loop.
type outbox struct {
	mutex sync.Mutex
	queue []func()
	wake  chan struct{}
	log   zerolog.Logger
}

func newOutbox(log zerolog.Logger) *outbox {
	return &outbox{wake: make(chan struct{}, 1), log: log}
}

func (b *outbox) push(fn func()) {
	b.mutex.Lock()
	b.queue = append(b.queue, fn)
	b.mutex.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *outbox) take() []func() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	fns := b.queue
	b.queue = nil
	return fns
}

func (b *outbox) deliver(fns []func()) {
	for _, fn := range fns {
		fn := fn
		err := util.CatchErrs(func() error {
			fn()
			return nil
		})
		if err != nil {
			b.log.Error().Err(err).Msg("callback panicked")
		}
	}
}

// run delivers until done is closed, then flushes what is left
func (b *outbox) run(done <-chan struct{}) {
	for {
		if fns := b.take(); len(fns) > 0 {
			b.deliver(fns)
			continue
		}
		select {
		case <-b.wake:
		case <-done:
			b.deliver(b.take())
			return
		}
	}
}
