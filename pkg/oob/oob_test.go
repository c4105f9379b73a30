package oob

import (
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

var testDeviceConfig = DeviceConfigData{
	SpecVerMajor:                0x0100,
	SpecVerMinor:                0x0002,
	ChipID:                      [2]byte{0x12, 0x34},
	ChipFwVersion:               [2]byte{0x01, 0x07},
	MwVersion:                   [3]byte{0x02, 0x00, 0x09},
	SupportedUwbProfileIDs:      0x00000002,
	SupportedDeviceRangingRoles: 0x01,
	DeviceMacAddress:            [2]byte{0xEE, 0xFF},
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ids := []MessageID{DeviceConfig, RangingStarted, RangingStopped, Initialize, PhoneConfig, Stop}
	payloads := [][]byte{nil, {}, {0x00}, {0x01, 0x02, 0x03}, testDeviceConfig.Encode()}
	for _, id := range ids {
		for _, payload := range payloads {
			frame := Encode(id, payload)
			assert.Equal(t, len(frame), 1+len(payload))
			assert.Equal(t, frame[0], byte(id))
			got, ok := Decode(frame, id)
			assert.Assert(t, ok, id.String())
			assert.Equal(t, len(got), len(payload))
			for i := range payload {
				assert.Equal(t, got[i], payload[i])
			}
		}
	}
}

func TestDecodeMismatch(t *testing.T) {
	_, ok := Decode(nil, DeviceConfig)
	assert.Assert(t, !ok)
	_, ok = Decode([]byte{}, Initialize)
	assert.Assert(t, !ok)
	_, ok = Decode(Encode(RangingStarted, []byte{1}), DeviceConfig)
	assert.Assert(t, !ok)
	_, ok = Decode([]byte{byte(LegacyInitialize), byte(Android)}, DeviceConfig)
	assert.Assert(t, !ok)
}

func TestEncodeInitialize(t *testing.T) {
	assert.DeepEqual(t, Encode(Initialize, nil), []byte{0xA5})
	assert.DeepEqual(t, Encode(Stop, nil), []byte{0x0C})
}

func TestEncodeLegacyInitialize(t *testing.T) {
	assert.DeepEqual(t, EncodeLegacyInitialize(Android), []byte{10, 1})
	assert.DeepEqual(t, EncodeLegacyInitialize(IPhone), []byte{10, 2})
}

func TestDeviceConfigLayout(t *testing.T) {
	b := testDeviceConfig.Encode()
	assert.Equal(t, len(b), DeviceConfigLen)
	assert.DeepEqual(t, b, []byte{
		0x01, 0x00, // spec major
		0x00, 0x02, // spec minor
		0x12, 0x34, // chip id
		0x01, 0x07, // chip fw
		0x02, 0x00, 0x09, // mw version
		0x00, 0x00, 0x00, 0x02, // profiles
		0x01,       // roles
		0xEE, 0xFF, // mac
	})
}

func TestDeviceConfigRoundTrip(t *testing.T) {
	got, err := DecodeDeviceConfig(testDeviceConfig.Encode())
	assert.NilError(t, err)
	assert.DeepEqual(t, got, testDeviceConfig)
}

func TestDeviceConfigIgnoresTrailingBytes(t *testing.T) {
	got, err := DecodeDeviceConfig(append(testDeviceConfig.Encode(), 0xAB, 0xCD))
	assert.NilError(t, err)
	assert.DeepEqual(t, got, testDeviceConfig)
}

func TestDeviceConfigShort(t *testing.T) {
	full := testDeviceConfig.Encode()
	for n := 0; n < DeviceConfigLen; n++ {
		_, err := DecodeDeviceConfig(full[:n])
		assert.Assert(t, err != nil, "length %d", n)
		assert.Equal(t, errors.Cause(err), ErrInvalidData)
	}
}

func TestPhoneConfigLayout(t *testing.T) {
	p := PhoneConfigData{
		SpecVerMajor:      PhoneSpecVerMajor,
		SpecVerMinor:      PhoneSpecVerMinor,
		SessionID:         0xDEADBEEF,
		PreambleIndex:     10,
		Channel:           9,
		ProfileID:         1,
		DeviceRangingRole: 1 << 0,
		PhoneMacAddress:   [2]byte{0x0A, 0x0B},
	}
	b := p.Encode()
	assert.Equal(t, len(b), PhoneConfigLen)
	assert.DeepEqual(t, b, []byte{
		0x01, 0x00,
		0x00, 0x00,
		0xDE, 0xAD, 0xBE, 0xEF,
		10, 9, 1, 0x01,
		0x0A, 0x0B,
	})
	got, err := DecodePhoneConfig(b)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, p)

	_, err = DecodePhoneConfig(b[:PhoneConfigLen-1])
	assert.Equal(t, errors.Cause(err), ErrInvalidData)
}
