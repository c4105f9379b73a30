package internal

import (
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
)

const eventBuffer = 256

// FakeTransport records every call and lets tests inject transport events
type FakeTransport struct {
	mutex  sync.Mutex
	events chan models.TransportEvent

	ConnectResult  bool
	TransmitResult bool
	CloseResult    bool
	ScanResult     bool

	scanning       bool
	scanStarts     int
	scanStops      int
	strongestFirst bool
	connects       []string
	closes         []string
	sent           map[string][][]byte
}

// NewFakeTransport returns a transport whose calls all succeed
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		events:         make(chan models.TransportEvent, eventBuffer),
		ConnectResult:  true,
		TransmitResult: true,
		CloseResult:    true,
		ScanResult:     true,
		sent:           map[string][][]byte{},
	}
}

// Emit queues ev as if the BLE stack had reported it
func (f *FakeTransport) Emit(ev models.TransportEvent) { f.events <- ev }

func (f *FakeTransport) Events() <-chan models.TransportEvent { return f.events }

func (f *FakeTransport) ScanStart() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.scanStarts++
	f.scanning = f.ScanResult
	return f.ScanResult
}

func (f *FakeTransport) ScanStop() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.scanStops++
	f.scanning = false
	return f.ScanResult
}

func (f *FakeTransport) SetStrongestFirst(v bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.strongestFirst = v
}

func (f *FakeTransport) Connect(mac string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.connects = append(f.connects, util.NormalizeMAC(mac))
	return f.ConnectResult
}

func (f *FakeTransport) Transmit(mac string, data []byte) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	mac = util.NormalizeMAC(mac)
	f.sent[mac] = append(f.sent[mac], append([]byte{}, data...))
	return f.TransmitResult
}

func (f *FakeTransport) Close(mac string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closes = append(f.closes, util.NormalizeMAC(mac))
	return f.CloseResult
}

// Sent returns the frames transmitted to mac
func (f *FakeTransport) Sent(mac string) [][]byte {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([][]byte{}, f.sent[util.NormalizeMAC(mac)]...)
}

// Connects returns the MACs Connect was called with
func (f *FakeTransport) Connects() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string{}, f.connects...)
}

// Closes returns the MACs Close was called with
func (f *FakeTransport) Closes() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string{}, f.closes...)
}

// Scanning reports whether a scan was started and not stopped since
func (f *FakeTransport) Scanning() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.scanning
}

// ScanStarts returns the number of ScanStart calls
func (f *FakeTransport) ScanStarts() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.scanStarts
}

// StrongestFirst returns the last ordering set by SetStrongestFirst
func (f *FakeTransport) StrongestFirst() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.strongestFirst
}

// Pending returns the number of events not yet consumed
func (f *FakeTransport) Pending() int { return len(f.events) }
