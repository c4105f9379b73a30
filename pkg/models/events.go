package models

import (
	"fmt"

	"github.com/Krajiyah/uwb-sdk/pkg/oob"
)

// TransportEventKind tags a TransportEvent
type TransportEventKind int

const (
	DeviceScanned TransportEventKind = iota
	DeviceBonded
	DeviceConnected
	DeviceDisconnected
	DataReceived
	LinkStateChanged
)

func (k TransportEventKind) String() string {
	return []string{"Scanned", "Bonded", "Connected", "Disconnected", "Data", "LinkState"}[k]
}

// Adapter state codes carried by LinkStateChanged
const (
	AdapterOff = 10
	AdapterOn  = 12
)

// TransportEvent is one callback from the Transport
type TransportEvent struct {
	Kind      TransportEventKind
	Name      string
	MAC       string
	RSSI      int
	Data      []byte
	LinkState int
}

func (e TransportEvent) String() string {
	return fmt.Sprintf("%s(%s %s)", e.Kind, e.Name, e.MAC)
}

// Scanned builds a DeviceScanned event
func Scanned(name, mac string, rssi int) TransportEvent {
	return TransportEvent{Kind: DeviceScanned, Name: name, MAC: mac, RSSI: rssi}
}

// Bonded builds a DeviceBonded event
func Bonded(name, mac string) TransportEvent {
	return TransportEvent{Kind: DeviceBonded, Name: name, MAC: mac}
}

// Connected builds a DeviceConnected event
func Connected(name, mac string) TransportEvent {
	return TransportEvent{Kind: DeviceConnected, Name: name, MAC: mac}
}

// Disconnected builds a DeviceDisconnected event
func Disconnected(mac string) TransportEvent {
	return TransportEvent{Kind: DeviceDisconnected, MAC: mac}
}

// Data builds a DataReceived event
func Data(mac string, data []byte) TransportEvent {
	return TransportEvent{Kind: DataReceived, MAC: mac, Data: data}
}

// LinkState builds a LinkStateChanged event
func LinkState(code int) TransportEvent {
	return TransportEvent{Kind: LinkStateChanged, LinkState: code}
}

// RangingEventKind tags a RangingEvent
type RangingEventKind int

const (
	EngineSessionStarted RangingEventKind = iota
	EngineSample
	EnginePeerDisconnected
	EngineError
)

func (k RangingEventKind) String() string {
	return []string{"SessionStarted", "Sample", "PeerDisconnected", "Error"}[k]
}

// RangingEvent is one callback from the RangingEngine. Err is only set for
// EngineError, which is not tied to a single accessory.
type RangingEvent struct {
	Kind        RangingEventKind
	MAC         string
	PhoneConfig oob.PhoneConfigData
	Sample      Sample
	Err         error
}

// SessionStarted builds an EngineSessionStarted event
func SessionStarted(mac string, cfg oob.PhoneConfigData) RangingEvent {
	return RangingEvent{Kind: EngineSessionStarted, MAC: mac, PhoneConfig: cfg}
}

// SampleReceived builds an EngineSample event
func SampleReceived(mac string, s Sample) RangingEvent {
	return RangingEvent{Kind: EngineSample, MAC: mac, Sample: s}
}

// PeerDisconnected builds an EnginePeerDisconnected event
func PeerDisconnected(mac string) RangingEvent {
	return RangingEvent{Kind: EnginePeerDisconnected, MAC: mac}
}

// RangingError builds an EngineError event
func RangingError(err error) RangingEvent {
	return RangingEvent{Kind: EngineError, Err: err}
}
