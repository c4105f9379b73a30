package internal

import (
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
)

// DummyCoreClient is a connected fake accessory. Writes are recorded and
// Notify feeds the subscribed TX handler.
type DummyCoreClient struct {
	testAddr     string
	services     []*ble.Service
	disconnected chan struct{}
	dropOnce     sync.Once

	mutex     sync.Mutex
	writes    [][]byte
	handler   ble.NotificationHandler
	cancelled int
	hang      chan struct{}
}

// NewDummyCoreClient returns a client whose profile holds services
func NewDummyCoreClient(addr string, services []*ble.Service) *DummyCoreClient {
	return &DummyCoreClient{testAddr: addr, services: services, disconnected: make(chan struct{})}
}

// Writes returns every value written so far
func (c *DummyCoreClient) Writes() [][]byte {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([][]byte{}, c.writes...)
}

// Subscribed reports whether a notification handler is installed
func (c *DummyCoreClient) Subscribed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.handler != nil
}

// Notify delivers b as a TX notification
func (c *DummyCoreClient) Notify(b []byte) {
	c.mutex.Lock()
	h := c.handler
	c.mutex.Unlock()
	if h != nil {
		h(b)
	}
}

// Drop simulates the accessory going away
func (c *DummyCoreClient) Drop() {
	c.dropOnce.Do(func() { close(c.disconnected) })
}

// HangCancel makes CancelConnection block until the returned release is called
func (c *DummyCoreClient) HangCancel() (release func()) {
	ch := make(chan struct{})
	c.mutex.Lock()
	c.hang = ch
	c.mutex.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Cancelled returns how often CancelConnection was called
func (c *DummyCoreClient) Cancelled() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.cancelled
}

func (c *DummyCoreClient) ReadCharacteristic(char *ble.Characteristic) ([]byte, error) {
	return nil, nil
}
func (c *DummyCoreClient) WriteCharacteristic(char *ble.Characteristic, value []byte, noRsp bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.writes = append(c.writes, append([]byte{}, value...))
	return nil
}
func (c *DummyCoreClient) Address() ble.Addr     { return ble.NewAddr(c.testAddr) }
func (c *DummyCoreClient) Name() string          { return "some name" }
func (c *DummyCoreClient) Profile() *ble.Profile { return &ble.Profile{Services: c.services} }
func (c *DummyCoreClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	return c.Profile(), nil
}
func (c *DummyCoreClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	return c.services, nil
}
func (c *DummyCoreClient) DiscoverIncludedServices(filter []ble.UUID, s *ble.Service) ([]*ble.Service, error) {
	return nil, nil
}
func (c *DummyCoreClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	return s.Characteristics, nil
}
func (c *DummyCoreClient) DiscoverDescriptors(filter []ble.UUID, char *ble.Characteristic) ([]*ble.Descriptor, error) {
	return nil, nil
}
func (c *DummyCoreClient) ReadLongCharacteristic(char *ble.Characteristic) ([]byte, error) {
	return nil, nil
}
func (c *DummyCoreClient) ReadDescriptor(d *ble.Descriptor) ([]byte, error)  { return nil, nil }
func (c *DummyCoreClient) WriteDescriptor(d *ble.Descriptor, v []byte) error { return nil }
func (c *DummyCoreClient) ReadRSSI() int                                     { return 0 }
func (c *DummyCoreClient) ExchangeMTU(rxMTU int) (txMTU int, err error)      { return util.MTU, nil }
func (c *DummyCoreClient) Subscribe(char *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.handler = h
	return nil
}
func (c *DummyCoreClient) Unsubscribe(char *ble.Characteristic, ind bool) error { return nil }
func (c *DummyCoreClient) ClearSubscriptions() error                            { return nil }
func (c *DummyCoreClient) CancelConnection() error {
	c.mutex.Lock()
	c.cancelled++
	hang := c.hang
	c.mutex.Unlock()
	if hang != nil {
		<-hang
	}
	c.Drop()
	return nil
}
func (c *DummyCoreClient) Disconnected() <-chan struct{} { return c.disconnected }
