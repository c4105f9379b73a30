package internal

import (
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
)

// DummyAdv is an advertisement from a fake accessory
type DummyAdv struct {
	Name       string
	MAC        string
	Rssi       int
	NonService bool
}

type DummyAddr struct {
	Address string
}

func (addr DummyAddr) String() string { return addr.Address }

func (a DummyAdv) LocalName() string              { return a.Name }
func (a DummyAdv) ManufacturerData() []byte       { return nil }
func (a DummyAdv) ServiceData() []ble.ServiceData { return nil }
func (a DummyAdv) Services() []ble.UUID {
	if a.NonService {
		return nil
	}
	return GetTestServiceUUIDs()
}
func (a DummyAdv) OverflowService() []ble.UUID  { return nil }
func (a DummyAdv) TxPowerLevel() int            { return 0 }
func (a DummyAdv) Connectable() bool            { return true }
func (a DummyAdv) SolicitedService() []ble.UUID { return nil }
func (a DummyAdv) RSSI() int                    { return a.Rssi }
func (a DummyAdv) Address() ble.Addr            { return DummyAddr{a.MAC} }

func GetTestServiceUUIDs() []ble.UUID {
	return []ble.UUID{ble.MustParse(util.NordicUARTServiceUUID)}
}

// GetTestServices returns the UART service with the given characteristics
func GetTestServices(charUUIDs []string) []*ble.Service {
	chars := []*ble.Characteristic{}
	for _, uuid := range charUUIDs {
		chars = append(chars, ble.NewCharacteristic(ble.MustParse(uuid)))
	}
	return []*ble.Service{{UUID: ble.MustParse(util.NordicUARTServiceUUID), Characteristics: chars}}
}

// GetUARTServices returns a complete UART service
func GetUARTServices() []*ble.Service {
	return GetTestServices([]string{util.NordicUARTRxCharUUID, util.NordicUARTTxCharUUID})
}
