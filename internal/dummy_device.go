package internal

import (
	"context"
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
	"github.com/pkg/errors"
)

// DummyDevice is a ble.Device that replays advertisements and dials registered clients
type DummyDevice struct {
	Advs []DummyAdv

	mutex   sync.Mutex
	clients map[string]*DummyCoreClient
	dials   int
}

// NewDummyDevice returns a device advertising advs
func NewDummyDevice(advs ...DummyAdv) *DummyDevice {
	return &DummyDevice{Advs: advs, clients: map[string]*DummyCoreClient{}}
}

// AddClient makes mac dialable
func (d *DummyDevice) AddClient(mac string, c *DummyCoreClient) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.clients[util.NormalizeMAC(mac)] = c
}

// Dials returns how many dial attempts were made
func (d *DummyDevice) Dials() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.dials
}

func (d *DummyDevice) AddService(svc *ble.Service) error     { return nil }
func (d *DummyDevice) RemoveAllServices() error              { return nil }
func (d *DummyDevice) SetServices(svcs []*ble.Service) error { return nil }
func (d *DummyDevice) Stop() error                           { return nil }
func (d *DummyDevice) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	return nil
}
func (d *DummyDevice) AdvertiseMfgData(ctx context.Context, id uint16, b []byte) error { return nil }
func (d *DummyDevice) AdvertiseServiceData16(ctx context.Context, id uint16, b []byte) error {
	return nil
}
func (d *DummyDevice) AdvertiseIBeaconData(ctx context.Context, b []byte) error { return nil }
func (d *DummyDevice) AdvertiseIBeacon(ctx context.Context, u ble.UUID, major, minor uint16, pwr int8) error {
	return nil
}

func (d *DummyDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.dials++
	c, ok := d.clients[util.NormalizeMAC(a.String())]
	if !ok {
		return nil, errors.New("no route to " + a.String())
	}
	return c, nil
}

// Scan reports every advertisement once, then blocks until ctx is done
func (d *DummyDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	for _, a := range d.Advs {
		h(a)
	}
	<-ctx.Done()
	return ctx.Err()
}
