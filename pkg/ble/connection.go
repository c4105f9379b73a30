package ble

import (
	"context"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/currantlabs/ble"
	"github.com/pkg/errors"
)

// ErrNoUARTService is returned when a connected accessory lacks the Nordic UART service
var ErrNoUARTService = errors.New("Could not find NordicUARTServiceUUID in accessory profile")

// link is one accessory connection, pending until cln is set
type link struct {
	mac    string
	name   string
	cancel context.CancelFunc
	cln    ble.Client
	rx     *ble.Characteristic
	tx     *ble.Characteristic
	writes chan []byte
}

// Connect starts connecting to mac. The outcome arrives as DeviceConnected;
// a failed attempt is only logged and left to the caller's timeout.
func (t *Transport) Connect(mac string) bool {
	mac = util.NormalizeMAC(mac)
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.links[mac]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{mac: mac, name: t.names[mac], cancel: cancel, writes: make(chan []byte, writeBuffer)}
	t.links[mac] = l
	go t.dial(ctx, l)
	return true
}

func (t *Transport) dial(ctx context.Context, l *link) {
	var cln ble.Client
	err := retry(ctx, t.log, "Dial", func() error {
		dctx, cancel := context.WithTimeout(ctx, t.dialWait)
		defer cancel()
		c, e := t.methods.Dial(dctx, ble.NewAddr(l.mac))
		if e != nil {
			return e
		}
		if e = t.setup(c, l); e != nil {
			_ = c.CancelConnection()
			return e
		}
		cln = c
		return nil
	})
	if err != nil {
		t.log.Warn().Err(err).Str("mac", l.mac).Msg("connect failed")
		t.forget(l)
		return
	}
	t.mutex.Lock()
	if t.links[l.mac] != l {
		t.mutex.Unlock()
		_ = cln.CancelConnection()
		return
	}
	l.cln = cln
	t.mutex.Unlock()

	go t.writer(l)
	go func() {
		<-cln.Disconnected()
		if t.forget(l) {
			t.emit(models.Disconnected(l.mac))
		}
	}()
	t.emit(models.Connected(l.name, l.mac))
}

// setup finds the UART characteristics and subscribes to TX notifications
func (t *Transport) setup(cln ble.Client, l *link) error {
	if _, err := cln.ExchangeMTU(util.MTU); err != nil {
		return errors.Wrap(err, "ExchangeMTU issue")
	}
	p, err := cln.DiscoverProfile(true)
	if err != nil {
		return errors.Wrap(err, "DiscoverProfile issue")
	}
	for _, s := range p.Services {
		if !util.UuidEqualStr(s.UUID, util.NordicUARTServiceUUID) {
			continue
		}
		for _, char := range s.Characteristics {
			switch {
			case util.UuidEqualStr(char.UUID, util.NordicUARTRxCharUUID):
				l.rx = char
			case util.UuidEqualStr(char.UUID, util.NordicUARTTxCharUUID):
				l.tx = char
			}
		}
	}
	if l.rx == nil || l.tx == nil {
		return ErrNoUARTService
	}
	mac := l.mac
	err = cln.Subscribe(l.tx, false, func(b []byte) {
		t.emit(models.Data(mac, append([]byte{}, b...)))
	})
	return errors.Wrap(err, "Subscribe issue")
}

// Transmit queues one frame for mac. It fails when mac is not connected or its queue is full.
func (t *Transport) Transmit(mac string, data []byte) bool {
	if len(data) == 0 {
		return false
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	l, ok := t.links[util.NormalizeMAC(mac)]
	if !ok || l.cln == nil {
		return false
	}
	select {
	case l.writes <- append([]byte{}, data...):
		return true
	default:
		t.log.Warn().Str("mac", l.mac).Msg("write queue full")
		return false
	}
}

func (t *Transport) writer(l *link) {
	for data := range l.writes {
		data := data
		err := retry(context.Background(), t.log, "WriteCharacteristic", func() error {
			return l.cln.WriteCharacteristic(l.rx, data, false)
		})
		if err != nil {
			t.log.Warn().Err(err).Str("mac", l.mac).Msg("write failed")
		}
	}
}

// Close drops the link to mac, cancelling a pending connect. It returns at
// once; the radio disconnect runs in the background. Unknown MACs are a no-op.
func (t *Transport) Close(mac string) bool {
	t.mutex.Lock()
	l, ok := t.links[util.NormalizeMAC(mac)]
	var cln ble.Client
	if ok {
		cln = l.cln
	}
	t.mutex.Unlock()
	if !ok {
		return true
	}
	t.forget(l)
	if cln != nil {
		go t.cancelConnection(l.mac, cln)
	}
	return true
}

func (t *Transport) cancelConnection(mac string, cln ble.Client) {
	err := util.Timeout(func() error { return util.CatchErrs(cln.CancelConnection) }, closeTimeout)
	if err != nil {
		t.log.Warn().Err(err).Str("mac", mac).Msg("cancel connection failed")
	}
}

// forget removes l if it is still the live link for its MAC and reports whether it was
func (t *Transport) forget(l *link) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.links[l.mac] != l {
		return false
	}
	delete(t.links, l.mac)
	l.cancel()
	if l.cln != nil {
		close(l.writes)
	}
	return true
}
