// Package oob frames the out-of-band control messages exchanged with an
// accessory over the short-range link before UWB ranging is running.
//
// A frame is one message id byte followed by the payload. There is no
// length prefix and no checksum: one transmit carries exactly one frame.
package oob

// MessageID identifies an OOB frame
type MessageID byte

const (
	// DeviceConfig carries the accessory's DeviceConfigData
	DeviceConfig MessageID = 0x01
	// RangingStarted is sent by the accessory once its UWB session runs
	RangingStarted MessageID = 0x02
	// RangingStopped is sent by the accessory when its UWB session ends
	RangingStopped MessageID = 0x03
	// Initialize asks the accessory for its DeviceConfigData
	Initialize MessageID = 0xA5
	// PhoneConfig carries the host's PhoneConfigData
	PhoneConfig MessageID = 0x0B
	// Stop asks the accessory to end ranging
	Stop MessageID = 0x0C
)

func (id MessageID) String() string {
	switch id {
	case DeviceConfig:
		return "DeviceConfig"
	case RangingStarted:
		return "RangingStarted"
	case RangingStopped:
		return "RangingStopped"
	case Initialize:
		return "Initialize"
	case PhoneConfig:
		return "PhoneConfig"
	case Stop:
		return "Stop"
	}
	return "Unknown"
}

// LegacyMessageID identifies frames of the legacy handshake
type LegacyMessageID byte

// LegacyInitialize is the pre-DeviceConfig initialize, followed by a DeviceType byte
const LegacyInitialize LegacyMessageID = 10

// DeviceType tells a legacy accessory which kind of host it talks to
type DeviceType byte

const (
	Android DeviceType = 1
	IPhone  DeviceType = 2
)

// Encode builds a frame from a message id and an optional payload
func Encode(id MessageID, payload []byte) []byte {
	frame := make([]byte, 1, 1+len(payload))
	frame[0] = byte(id)
	return append(frame, payload...)
}

// Decode returns the payload of frame when its first byte is id.
// A frame that is empty or carries another id yields ok == false.
func Decode(frame []byte, id MessageID) (payload []byte, ok bool) {
	if len(frame) == 0 || frame[0] != byte(id) {
		return nil, false
	}
	return frame[1:], true
}

// EncodeLegacyInitialize builds the legacy initialize frame for the host type
func EncodeLegacyInitialize(deviceType DeviceType) []byte {
	return []byte{byte(LegacyInitialize), byte(deviceType)}
}
