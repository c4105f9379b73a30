package util

import (
	"github.com/currantlabs/ble"
	"github.com/currantlabs/ble/linux"
	"github.com/pkg/errors"
)

// NewDevice opens the local HCI adapter and makes it the default ble device
func NewDevice() (ble.Device, error) {
	device, err := linux.NewDevice()
	if err != nil {
		return nil, errors.Wrap(err, "linux.NewDevice issue")
	}
	ble.SetDefaultDevice(device)
	return device, nil
}
