package natsbus

import (
	"encoding/json"
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const eventBuffer = 256

var _ models.RangingEngine = (*Engine)(nil)

// Engine implements models.RangingEngine by talking to a UWB service over NATS
type Engine struct {
	conn     Conn
	subjects Subjects
	log      zerolog.Logger
	sub      Subscription
	events   chan models.RangingEvent
	done     chan struct{}
	once     sync.Once
}

// NewEngine subscribes to the engine events under prefix
func NewEngine(conn Conn, prefix string, log zerolog.Logger) (*Engine, error) {
	e := &Engine{
		conn:     conn,
		subjects: Subjects{Prefix: prefix},
		log:      log,
		events:   make(chan models.RangingEvent, eventBuffer),
		done:     make(chan struct{}),
	}
	sub, err := conn.Subscribe(e.subjects.EngineEvents(), e.handle)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe engine events")
	}
	e.sub = sub
	return e, nil
}

func (e *Engine) handle(msg *nats.Msg) {
	ev, err := ParseEvent(msg.Data)
	if err != nil {
		e.log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping engine event")
		return
	}
	ev.MAC = util.NormalizeMAC(ev.MAC)
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

func (e *Engine) publish(subject string, v interface{}) bool {
	b, err := json.Marshal(v)
	if err == nil {
		err = e.conn.Publish(subject, b)
	}
	if err != nil {
		e.log.Error().Err(err).Str("subject", subject).Msg("publish failed")
		return false
	}
	return true
}

func (e *Engine) StartRanging(mac string, device oob.DeviceConfigData, proposal oob.PhoneConfigData) bool {
	return e.publish(e.subjects.EngineStart(), NewStartRequest(mac, device, proposal))
}

func (e *Engine) StopRanging(mac string) bool {
	return e.publish(e.subjects.EngineStop(), MACRequest{MAC: mac})
}

func (e *Engine) Close(mac string) bool {
	return e.publish(e.subjects.EngineClose(), MACRequest{MAC: mac})
}

func (e *Engine) Events() <-chan models.RangingEvent { return e.events }

// Shutdown unsubscribes and stops delivering events
func (e *Engine) Shutdown() error {
	var err error
	e.once.Do(func() {
		close(e.done)
		err = e.sub.Unsubscribe()
	})
	return errors.Wrap(err, "unsubscribe engine events")
}
