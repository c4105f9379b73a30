package ble

import (
	"context"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
	"github.com/pkg/errors"
)

// ScanStart starts scanning for accessories advertising the Nordic UART
// service. It is a no-op while a scan runs, and refused when restarted too often.
func (t *Transport) ScanStart() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.scanCancel != nil {
		return true
	}
	if !t.limiter.Allow() {
		t.log.Warn().Msg("scan restart rate limited")
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.scanCancel = cancel
	go t.scan(ctx)
	go t.flushLoop(ctx)
	return true
}

// ScanStop stops scanning and drops advertisements not yet reported
func (t *Transport) ScanStop() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.scanCancel != nil {
		t.scanCancel()
		t.scanCancel = nil
	}
	t.rssiMap.Drain()
	return true
}

func (t *Transport) scan(ctx context.Context) {
	err := t.methods.Scan(ctx, true, t.onAdvertisement, t.advertisesService)
	if err != nil && errors.Cause(err) != context.Canceled {
		t.log.Error().Err(err).Msg("scan stopped")
	}
}

func (t *Transport) advertisesService(a ble.Advertisement) bool {
	for _, u := range append(a.Services(), a.OverflowService()...) {
		if u.Equal(t.serviceUUID) {
			return true
		}
	}
	return false
}

func (t *Transport) onAdvertisement(a ble.Advertisement) {
	mac := util.NormalizeMAC(a.Address().String())
	name := a.LocalName()
	t.mutex.Lock()
	if name != "" {
		t.names[mac] = name
	} else {
		name = t.names[mac]
	}
	t.mutex.Unlock()
	if t.strongestFirst() {
		t.rssiMap.Set(name, mac, a.RSSI())
		return
	}
	t.emit(models.Scanned(name, mac, a.RSSI()))
}

// flushLoop reports the batched advertisements every scan window, strongest first
func (t *Transport) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(t.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.flush()
		}
	}
}

func (t *Transport) flush() {
	for _, e := range t.rssiMap.Drain() {
		t.emit(models.Scanned(e.Name, e.MAC, e.Rssi))
	}
}
