package oob

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// DeviceConfigLen is the wire size of DeviceConfigData
	DeviceConfigLen = 18
	// PhoneConfigLen is the wire size of PhoneConfigData
	PhoneConfigLen = 14

	// PhoneSpecVerMajor and PhoneSpecVerMinor are the protocol version the host announces
	PhoneSpecVerMajor = 0x0100
	PhoneSpecVerMinor = 0x0000
)

// DeviceConfigData is what an accessory reports about its UWB capabilities.
//
// Layout (offset:width): specVerMajor 0:2 BE, specVerMinor 2:2 BE, chipId 4:2,
// chipFwVersion 6:2, mwVersion 8:3, supportedUwbProfileIds 11:4 BE,
// supportedDeviceRangingRoles 15:1, deviceMacAddress 16:2.
type DeviceConfigData struct {
	SpecVerMajor                uint16
	SpecVerMinor                uint16
	ChipID                      [2]byte
	ChipFwVersion               [2]byte
	MwVersion                   [3]byte
	SupportedUwbProfileIDs      uint32
	SupportedDeviceRangingRoles uint8
	DeviceMacAddress            [2]byte
}

// DecodeDeviceConfig parses a DEVICE_CONFIG payload
func DecodeDeviceConfig(payload []byte) (DeviceConfigData, error) {
	var d DeviceConfigData
	r := &reader{buf: payload}
	d.SpecVerMajor = r.u16()
	d.SpecVerMinor = r.u16()
	r.raw(d.ChipID[:])
	r.raw(d.ChipFwVersion[:])
	r.raw(d.MwVersion[:])
	d.SupportedUwbProfileIDs = r.u32()
	d.SupportedDeviceRangingRoles = r.u8()
	r.raw(d.DeviceMacAddress[:])
	if r.err != nil {
		return DeviceConfigData{}, errors.Wrap(r.err, "device config")
	}
	return d, nil
}

// Encode serializes d in the fixed DeviceConfigData layout
func (d DeviceConfigData) Encode() []byte {
	w := newWriter(DeviceConfigLen)
	w.u16(d.SpecVerMajor)
	w.u16(d.SpecVerMinor)
	w.raw(d.ChipID[:])
	w.raw(d.ChipFwVersion[:])
	w.raw(d.MwVersion[:])
	w.u32(d.SupportedUwbProfileIDs)
	w.u8(d.SupportedDeviceRangingRoles)
	w.raw(d.DeviceMacAddress[:])
	return w.bytes()
}

func (d DeviceConfigData) String() string {
	return fmt.Sprintf("spec=%d.%d chip=%x fw=%x mw=%x profiles=%#x roles=%#x addr=%x",
		d.SpecVerMajor, d.SpecVerMinor, d.ChipID, d.ChipFwVersion, d.MwVersion,
		d.SupportedUwbProfileIDs, d.SupportedDeviceRangingRoles, d.DeviceMacAddress)
}

// PhoneConfigData is the session proposal the host sends back to an accessory.
// A fresh value, with a new SessionID, is built for every ranging session.
type PhoneConfigData struct {
	SpecVerMajor      uint16
	SpecVerMinor      uint16
	SessionID         uint32
	PreambleIndex     uint8
	Channel           uint8
	ProfileID         uint8
	DeviceRangingRole uint8
	PhoneMacAddress   [2]byte
}

// Encode serializes p in the fixed PhoneConfigData layout
func (p PhoneConfigData) Encode() []byte {
	w := newWriter(PhoneConfigLen)
	w.u16(p.SpecVerMajor)
	w.u16(p.SpecVerMinor)
	w.u32(p.SessionID)
	w.u8(p.PreambleIndex)
	w.u8(p.Channel)
	w.u8(p.ProfileID)
	w.u8(p.DeviceRangingRole)
	w.raw(p.PhoneMacAddress[:])
	return w.bytes()
}

// DecodePhoneConfig parses a PHONE_CONFIG payload
func DecodePhoneConfig(payload []byte) (PhoneConfigData, error) {
	var p PhoneConfigData
	r := &reader{buf: payload}
	p.SpecVerMajor = r.u16()
	p.SpecVerMinor = r.u16()
	p.SessionID = r.u32()
	p.PreambleIndex = r.u8()
	p.Channel = r.u8()
	p.ProfileID = r.u8()
	p.DeviceRangingRole = r.u8()
	r.raw(p.PhoneMacAddress[:])
	if r.err != nil {
		return PhoneConfigData{}, errors.Wrap(r.err, "phone config")
	}
	return p, nil
}
