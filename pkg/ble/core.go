package ble

import (
	"context"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
)

type coreMethods interface {
	Dial(context.Context, ble.Addr) (ble.Client, error)
	Scan(context.Context, bool, ble.AdvHandler, ble.AdvFilter) error
}

// deviceCoreMethods runs the ble calls on one device, turning panics from the stack into errors
type deviceCoreMethods struct {
	device ble.Device
}

func (m *deviceCoreMethods) Dial(ctx context.Context, addr ble.Addr) (ble.Client, error) {
	var client ble.Client
	err := util.CatchErrs(func() error {
		c, e := m.device.Dial(ctx, addr)
		client = c
		return e
	})
	return client, err
}

func (m *deviceCoreMethods) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler, f ble.AdvFilter) error {
	return util.CatchErrs(func() error {
		return m.device.Scan(ctx, allowDup, func(a ble.Advertisement) {
			if f == nil || f(a) {
				h(a)
			}
		})
	})
}
