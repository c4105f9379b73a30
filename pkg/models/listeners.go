package models

import "github.com/Krajiyah/uwb-sdk/pkg/oob"

// UpdateHandler receives ranging updates
type UpdateHandler func(RangingUpdate)

// DisconnectHandler receives disconnect notifications
type DisconnectHandler func(DisconnectInfo)

// Transport is the short-range (BLE) link to accessories. Every method only
// starts the operation; outcomes arrive later on Events.
type Transport interface {
	ScanStart() bool
	ScanStop() bool
	Connect(mac string) bool
	Transmit(mac string, data []byte) bool
	Close(mac string) bool
	Events() <-chan TransportEvent
}

// ScanOrderer is implemented by transports able to report scan results strongest first
type ScanOrderer interface {
	SetStrongestFirst(bool)
}

// RangingEngine is the UWB radio. StartRanging opens a session using the
// accessory's capabilities and the host's proposal; the engine answers with
// EngineSessionStarted carrying the final PhoneConfigData to send back.
type RangingEngine interface {
	StartRanging(mac string, device oob.DeviceConfigData, proposal oob.PhoneConfigData) bool
	StopRanging(mac string) bool
	Close(mac string) bool
	Events() <-chan RangingEvent
}

// AliasResolver maps accessory MACs to user given names
type AliasResolver interface {
	Lookup(mac string) (string, bool)
}
