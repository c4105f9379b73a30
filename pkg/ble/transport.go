// Package ble is the short-range transport to UWB accessories: a GATT central
// talking to the Nordic UART service every accessory exposes. OOB frames are
// written to the RX characteristic and arrive as TX notifications.
//
// Accessories are found by scanning only; the transport never reports
// DeviceBonded. Adapter state changes come from the embedder through
// NotifyAdapterState.
package ble

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	maxRetryAttempts  = 3
	eventBuffer       = 256
	writeBuffer       = 16
	defaultScanWindow = 500 * time.Millisecond
	defaultDialWait   = util.DefaultConnectTimeout
	closeTimeout      = 2 * time.Second
)

var (
	_ models.Transport   = (*Transport)(nil)
	_ models.ScanOrderer = (*Transport)(nil)
)

// Transport implements models.Transport and models.ScanOrderer over currantlabs/ble
type Transport struct {
	methods     coreMethods
	log         zerolog.Logger
	events      chan models.TransportEvent
	done        chan struct{}
	closeOnce   sync.Once
	rssiMap     *models.RssiMap
	limiter     *rate.Limiter
	window      time.Duration
	dialWait    time.Duration
	strongest   int32
	serviceUUID ble.UUID

	mutex      sync.Mutex
	scanCancel context.CancelFunc
	names      map[string]string
	links      map[string]*link
}

// Option configures a Transport
type Option func(*Transport)

// WithLogger sets the logger, zerolog.Nop() by default
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transport) { t.log = l }
}

// WithScanWindow sets how long advertisements are batched when ordering strongest first
func WithScanWindow(d time.Duration) Option {
	return func(t *Transport) { t.window = d }
}

// WithScanLimit bounds how often scanning may be (re)started
func WithScanLimit(every time.Duration, burst int) Option {
	return func(t *Transport) { t.limiter = rate.NewLimiter(rate.Every(every), burst) }
}

// WithDialTimeout bounds one connection attempt
func WithDialTimeout(d time.Duration) Option {
	return func(t *Transport) { t.dialWait = d }
}

// New returns a transport driving device, usually the one from util.NewDevice
func New(device ble.Device, opts ...Option) *Transport {
	return newTransport(&deviceCoreMethods{device: device}, opts...)
}

func newTransport(methods coreMethods, opts ...Option) *Transport {
	t := &Transport{
		methods:     methods,
		log:         zerolog.Nop(),
		events:      make(chan models.TransportEvent, eventBuffer),
		done:        make(chan struct{}),
		rssiMap:     models.NewRssiMap(),
		limiter:     rate.NewLimiter(rate.Every(time.Second), 5),
		window:      defaultScanWindow,
		dialWait:    defaultDialWait,
		serviceUUID: ble.MustParse(util.NordicUARTServiceUUID),
		names:       map[string]string{},
		links:       map[string]*link{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Events returns the channel every transport event is delivered on
func (t *Transport) Events() <-chan models.TransportEvent { return t.events }

// SetStrongestFirst switches between immediate scan reports and batches ordered by RSSI
func (t *Transport) SetStrongestFirst(v bool) {
	var i int32
	if v {
		i = 1
	}
	atomic.StoreInt32(&t.strongest, i)
}

func (t *Transport) strongestFirst() bool { return atomic.LoadInt32(&t.strongest) == 1 }

// NotifyAdapterState reports an adapter state change (models.AdapterOn, models.AdapterOff)
func (t *Transport) NotifyAdapterState(code int) {
	t.emit(models.LinkState(code))
}

// Shutdown stops scanning, drops every link and stops emitting events
func (t *Transport) Shutdown() {
	t.ScanStop()
	t.mutex.Lock()
	macs := make([]string, 0, len(t.links))
	for mac := range t.links {
		macs = append(macs, mac)
	}
	t.mutex.Unlock()
	for _, mac := range macs {
		t.Close(mac)
	}
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *Transport) emit(ev models.TransportEvent) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}
