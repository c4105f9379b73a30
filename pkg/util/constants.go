package util

import "time"

const (
	// MTU is the ATT MTU requested from accessories after connecting
	MTU = 247
	// NordicUARTServiceUUID represents UUID for the ble service every accessory advertises
	NordicUARTServiceUUID = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"
	// NordicUARTRxCharUUID represents UUID for ble characteristic the host writes OOB frames to
	NordicUARTRxCharUUID = "6E400002-B5A3-F393-E0A9-E50E24DCCA9E"
	// NordicUARTTxCharUUID represents UUID for ble characteristic accessories notify OOB frames on
	NordicUARTTxCharUUID = "6E400003-B5A3-F393-E0A9-E50E24DCCA9E"
	// ClientCharConfigUUID represents UUID for the descriptor enabling notifications on TX
	ClientCharConfigUUID = "00002902-0000-1000-8000-00805F9B34FB"
)

const (
	// MaxAccessories is the hard cap on accessories connecting plus connected
	MaxAccessories = 5
	// DefaultUwbChannel is the UWB channel proposed to accessories
	DefaultUwbChannel = 9
	// DefaultUwbPreambleIndex is the UWB preamble index proposed to accessories
	DefaultUwbPreambleIndex = 10
	// DefaultUwbRole is the ranging role the host prefers to take
	DefaultUwbRole = "Controlee"
	// DefaultUwbProfileID is the profile id the host prefers
	DefaultUwbProfileID = 1
	// DefaultCloseRangeCM is the NEAR band upper bound
	DefaultCloseRangeCM = 100
	// DefaultFarRangeCM is the FAR band lower bound
	DefaultFarRangeCM = 200
	// DefaultConnectTimeout bounds the time an accessory may spend connecting
	DefaultConnectTimeout = 5000 * time.Millisecond
	// DefaultLegacyTimeout is how long to wait for DEVICE_CONFIG before sending the legacy initialize
	DefaultLegacyTimeout = 2000 * time.Millisecond
	// DefaultReplacementDistance is the distance (m) past which a full registry evicts an accessory
	DefaultReplacementDistance = 8.0
	// DefaultEvictionCooldown keeps an evicted accessory from being re-admitted straight away
	DefaultEvictionCooldown = 10 * time.Second
)
