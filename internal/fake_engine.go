package internal

import (
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
)

// StartCall is one recorded RangingEngine.StartRanging call
type StartCall struct {
	MAC      string
	Device   oob.DeviceConfigData
	Proposal oob.PhoneConfigData
}

// FakeEngine records every call and lets tests inject ranging events.
// With AutoStart set, a successful StartRanging answers SessionStarted with
// the proposal and LocalAddress filled in.
type FakeEngine struct {
	mutex  sync.Mutex
	events chan models.RangingEvent

	StartResult  bool
	AutoStart    bool
	LocalAddress [2]byte

	starts []StartCall
	stops  []string
	closes []string
}

// NewFakeEngine returns an engine whose calls all succeed
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		events:      make(chan models.RangingEvent, eventBuffer),
		StartResult: true,
	}
}

// Emit queues ev as if the UWB stack had reported it
func (f *FakeEngine) Emit(ev models.RangingEvent) { f.events <- ev }

func (f *FakeEngine) Events() <-chan models.RangingEvent { return f.events }

func (f *FakeEngine) StartRanging(mac string, device oob.DeviceConfigData, proposal oob.PhoneConfigData) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	mac = util.NormalizeMAC(mac)
	f.starts = append(f.starts, StartCall{MAC: mac, Device: device, Proposal: proposal})
	if f.StartResult && f.AutoStart {
		proposal.PhoneMacAddress = f.LocalAddress
		f.events <- models.SessionStarted(mac, proposal)
	}
	return f.StartResult
}

func (f *FakeEngine) StopRanging(mac string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.stops = append(f.stops, util.NormalizeMAC(mac))
	return true
}

func (f *FakeEngine) Close(mac string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closes = append(f.closes, util.NormalizeMAC(mac))
	return true
}

// Starts returns the recorded StartRanging calls
func (f *FakeEngine) Starts() []StartCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]StartCall{}, f.starts...)
}

// Stops returns the MACs StopRanging was called with
func (f *FakeEngine) Stops() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string{}, f.stops...)
}

// Closes returns the MACs Close was called with
func (f *FakeEngine) Closes() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string{}, f.closes...)
}

// Pending returns the number of events not yet consumed
func (f *FakeEngine) Pending() int { return len(f.events) }
