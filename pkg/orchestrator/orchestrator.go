// Package orchestrator drives UWB accessories from discovery to ranging.
//
// All state lives on one control loop goroutine. Transport events, ranging
// engine events, timer fires and public calls are all serialized through it,
// and callbacks to the application are handed to a separate notifier so they
// may call back into the orchestrator.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/journal"
	"github.com/Krajiyah/uwb-sdk/pkg/metrics"
	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/registry"
	"github.com/Krajiyah/uwb-sdk/pkg/timer"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	callBuffer   = 64
	cooldownSize = 64
)

var (
	// ErrNotCreated is returned by calls made before OnCreate or after OnDestroy
	ErrNotCreated = errors.New("orchestrator is not running")
	// ErrAlreadyStarted is returned by Start when a run is in progress
	ErrAlreadyStarted = errors.New("orchestrator already started")
	// ErrScanFailed is returned by Start when the transport refused to scan
	ErrScanFailed = errors.New("could not start scanning")
)

// Orchestrator is the pairing state machine
type Orchestrator struct {
	transport models.Transport
	engine    models.RangingEngine
	log       zerolog.Logger
	journal   *journal.Journal
	aliases   models.AliasResolver
	metrics   *metrics.Metrics

	calls  chan func()
	done   chan struct{}
	out    *outbox
	alive  int32
	once   sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// owned by the loop
	settings     Settings
	registry     *registry.Registry
	timers       *timer.Service
	cooldown     *expirable.LRU[string, struct{}]
	cooldownTTL  time.Duration
	running      bool
	replacement  float64
	onUpdate     models.UpdateHandler
	onDisconnect models.DisconnectHandler
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSettings replaces the default settings
func WithSettings(s Settings) Option {
	return func(o *Orchestrator) { o.settings = s }
}

// WithLogger sets the logger, zerolog.Nop() by default
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithJournal records the run in j
func WithJournal(j *journal.Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithAliases resolves display names through r
func WithAliases(r models.AliasResolver) Option {
	return func(o *Orchestrator) { o.aliases = r }
}

// WithMetrics records counters in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithCooldown sets how long an accessory evicted for distance is kept from re-admission
func WithCooldown(d time.Duration) Option {
	return func(o *Orchestrator) { o.cooldownTTL = d }
}

// New returns an orchestrator over transport and engine. It does nothing until OnCreate.
func New(transport models.Transport, engine models.RangingEngine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport:   transport,
		engine:      engine,
		log:         zerolog.Nop(),
		settings:    DefaultSettings(),
		registry:    registry.New(util.MaxAccessories),
		cooldownTTL: util.DefaultEvictionCooldown,
		calls:       make(chan func(), callBuffer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.out = newOutbox(o.log)
	o.timers = timer.New(o.dispatch)
	o.cooldown = expirable.NewLRU[string, struct{}](cooldownSize, nil, o.cooldownTTL)
	return o
}

// OnCreate starts the control loop. It stops when ctx is cancelled or OnDestroy is called.
func (o *Orchestrator) OnCreate(ctx context.Context) {
	o.once.Do(func() {
		ctx, o.cancel = context.WithCancel(ctx)
		atomic.StoreInt32(&o.alive, 1)
		o.wg.Add(2)
		go func() {
			defer o.wg.Done()
			o.loop(ctx)
		}()
		go func() {
			defer o.wg.Done()
			o.out.run(o.done)
		}()
	})
}

// OnDestroy closes every accessory, stops the loop and waits for pending
// callbacks. It must not be called from a callback.
func (o *Orchestrator) OnDestroy() {
	if o.cancel == nil {
		return
	}
	o.cancel()
	o.wg.Wait()
}

// Start begins discovery. Up to maxAccessories (at most 5) accessories are
// admitted; with replacementDistance > 0 a full registry evicts accessories
// ranging beyond it. preferStrongestFirst is passed to transports implementing
// models.ScanOrderer.
func (o *Orchestrator) Start(maxAccessories int, replacementDistance float64, preferStrongestFirst bool,
	onUpdate models.UpdateHandler, onDisconnect models.DisconnectHandler) error {
	err := ErrNotCreated
	o.do(func() {
		if o.running {
			err = ErrAlreadyStarted
			return
		}
		o.registry.SetCapacity(maxAccessories)
		o.replacement = replacementDistance
		o.onUpdate, o.onDisconnect = onUpdate, onDisconnect
		o.running = true
		o.journal.Log(journal.DemoStart)
		if so, ok := o.transport.(models.ScanOrderer); ok {
			so.SetStrongestFirst(preferStrongestFirst)
		}
		if !o.startScan() {
			o.running = false
			o.onUpdate, o.onDisconnect = nil, nil
			err = ErrScanFailed
			return
		}
		err = nil
		o.log.Info().
			Int("capacity", o.registry.Capacity()).
			Float64("replacement_distance", replacementDistance).
			Bool("strongest_first", preferStrongestFirst).
			Msg("started")
	})
	return err
}

// Stop closes every accessory, stops scanning and drops the callbacks. It
// reports whether every close and the scan stop succeeded.
func (o *Orchestrator) Stop() bool {
	ok := false
	o.do(func() { ok = o.stop() })
	return ok
}

// UpdateSettings swaps the settings used from now on. Timers already armed keep their duration.
func (o *Orchestrator) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !o.do(func() { o.settings = s }) {
		return ErrNotCreated
	}
	return nil
}

// Settings returns the settings in use
func (o *Orchestrator) Settings() Settings {
	var s Settings
	if o.do(func() { s = o.settings }) {
		return s
	}
	return o.settings
}

// NotifyLocationState reports the host's location service state. Turning it
// off tears every accessory down; turning it on resumes scanning.
func (o *Orchestrator) NotifyLocationState(enabled bool) {
	o.dispatch(func() {
		if enabled {
			if o.running {
				o.startScan()
			}
			return
		}
		o.log.Warn().Msg("location disabled")
		o.teardownAll(models.ReasonSystem)
	})
}

// dispatch queues fn on the loop. It is the timer.Dispatcher of the orchestrator.
func (o *Orchestrator) dispatch(fn func()) bool {
	if atomic.LoadInt32(&o.alive) == 0 {
		return false
	}
	select {
	case o.calls <- fn:
		return true
	case <-o.done:
		return false
	}
}

// do runs fn on the loop and waits for it
func (o *Orchestrator) do(fn func()) bool {
	ret := make(chan struct{})
	if !o.dispatch(func() { fn(); close(ret) }) {
		return false
	}
	select {
	case <-ret:
		return true
	case <-o.done:
		select {
		case <-ret:
			return true
		default:
			return false
		}
	}
}

func (o *Orchestrator) loop(ctx context.Context) {
	defer close(o.done)
	tev := o.transport.Events()
	eev := o.engine.Events()
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return
		case fn := <-o.calls:
			fn()
		case ev, ok := <-tev:
			if !ok {
				tev = nil
				continue
			}
			o.handleTransport(ev)
		case ev, ok := <-eev:
			if !ok {
				eev = nil
				continue
			}
			o.handleRanging(ev)
		}
		o.metrics.SetAccessories(o.registry.Counts())
	}
}

func (o *Orchestrator) shutdown() {
	atomic.StoreInt32(&o.alive, 0)
	o.stop()
	o.journal.Log(journal.DemoFinished)
	o.log.Info().Msg("destroyed")
}

func (o *Orchestrator) stop() bool {
	o.journal.Log(journal.DemoStop)
	sessions := o.registry.Sessions()
	for _, s := range sessions {
		o.journal.Log(journal.BLEDevDisconnected, s.Accessory.DisplayName(), s.Accessory.MAC)
	}
	ok := true
	for _, s := range sessions {
		mac := s.Accessory.MAC
		if s.State == registry.Ranging {
			ok = o.send(mac, encodeStop()) && ok
		}
		if s.State.RangingRequested() {
			ok = o.engine.StopRanging(mac) && ok
		}
		ok = o.engine.Close(mac) && ok
		ok = o.transport.Close(mac) && ok
	}
	o.registry.Clear()
	o.cooldown.Purge()
	ok = o.transport.ScanStop() && ok
	o.journal.Log(journal.BLEScanStop)
	o.onUpdate, o.onDisconnect = nil, nil
	o.running = false
	o.log.Info().Int("accessories", len(sessions)).Bool("ok", ok).Msg("stopped")
	return ok
}

func (o *Orchestrator) startScan() bool {
	if !o.transport.ScanStart() {
		o.log.Warn().Msg("scan start refused")
		return false
	}
	o.journal.Log(journal.BLEScanStart)
	return true
}

func (o *Orchestrator) accessory(name, mac string) models.Accessory {
	acc := models.NewAccessory(name, mac)
	if o.aliases != nil {
		if a, ok := o.aliases.Lookup(acc.MAC); ok {
			acc.Alias = a
		}
	}
	return acc
}

func (o *Orchestrator) publishUpdate(u models.RangingUpdate) {
	if h := o.onUpdate; h != nil {
		o.out.push(func() { h(u) })
	}
}

func (o *Orchestrator) publishDisconnect(info models.DisconnectInfo) {
	if h := o.onDisconnect; h != nil {
		o.out.push(func() { h(info) })
	}
}
