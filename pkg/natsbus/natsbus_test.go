package natsbus

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/ranging"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gotest.tools/assert"
)

const testMAC = "AA:BB:CC:DD:EE:01"

type published struct {
	subject string
	data    []byte
}

type fakeSub struct{ unsubscribed bool }

func (s *fakeSub) Unsubscribe() error { s.unsubscribed = true; return nil }

type fakeConn struct {
	mutex    sync.Mutex
	out      []published
	handlers map[string]nats.MsgHandler
	sub      *fakeSub
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: map[string]nats.MsgHandler{}, sub: &fakeSub{}}
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.out = append(c.out, published{subject, data})
	return nil
}

func (c *fakeConn) Subscribe(subject string, h nats.MsgHandler) (Subscription, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.handlers[subject] = h
	return c.sub, nil
}

func (c *fakeConn) deliver(subject string, v interface{}) {
	b, _ := json.Marshal(v)
	c.mutex.Lock()
	h := c.handlers[subject]
	c.mutex.Unlock()
	h(&nats.Msg{Subject: subject, Data: b})
}

func (c *fakeConn) last() published {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.out[len(c.out)-1]
}

func nextEvent(t *testing.T, e *Engine) models.RangingEvent {
	t.Helper()
	select {
	case ev := <-e.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no engine event")
	}
	return models.RangingEvent{}
}

func TestSubjects(t *testing.T) {
	s := Subjects{Prefix: "lab"}
	assert.Equal(t, s.EngineStart(), "lab.engine.start")
	assert.Equal(t, s.EngineEvents(), "lab.engine.events")
	assert.Equal(t, s.Range("aa:bb:cc:dd:ee:01"), "lab.range.AABBCCDDEE01")
	assert.Equal(t, Subjects{}.Disconnect(testMAC), "uwb.disconnect.AABBCCDDEE01")
}

func TestEngineRequests(t *testing.T) {
	conn := newFakeConn()
	e, err := NewEngine(conn, "uwb", zerolog.Nop())
	assert.NilError(t, err)

	device := oob.DeviceConfigData{SpecVerMajor: 1, SupportedUwbProfileIDs: 0x2, SupportedDeviceRangingRoles: 0x3}
	proposal := oob.PhoneConfigData{SessionID: 42, Channel: 9, PreambleIndex: 10, ProfileID: 1, DeviceRangingRole: ranging.Controlee.Bitmask()}
	assert.Assert(t, e.StartRanging(testMAC, device, proposal))
	msg := conn.last()
	assert.Equal(t, msg.subject, "uwb.engine.start")
	var req StartRequest
	assert.NilError(t, json.Unmarshal(msg.data, &req))
	assert.Equal(t, req.MAC, testMAC)
	got, err := oob.DecodeDeviceConfig(req.Device)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, device)
	gotProposal, err := oob.DecodePhoneConfig(req.Proposal)
	assert.NilError(t, err)
	assert.DeepEqual(t, gotProposal, proposal)

	assert.Assert(t, e.StopRanging(testMAC))
	assert.Equal(t, conn.last().subject, "uwb.engine.stop")
	assert.Assert(t, e.Close(testMAC))
	assert.Equal(t, conn.last().subject, "uwb.engine.close")
	assert.Equal(t, string(conn.last().data), `{"mac":"AA:BB:CC:DD:EE:01"}`)
}

func TestEngineEvents(t *testing.T) {
	conn := newFakeConn()
	e, err := NewEngine(conn, "", zerolog.Nop())
	assert.NilError(t, err)
	subject := "uwb.engine.events"

	cfg := oob.PhoneConfigData{SessionID: 7, Channel: 9}
	conn.deliver(subject, EngineEvent{Type: TypeSessionStarted, MAC: "aa:bb:cc:dd:ee:01", PhoneConfig: cfg.Encode()})
	ev := nextEvent(t, e)
	assert.Equal(t, ev.Kind, models.EngineSessionStarted)
	assert.Equal(t, ev.MAC, testMAC)
	assert.DeepEqual(t, ev.PhoneConfig, cfg)

	el := 12.5
	conn.deliver(subject, EngineEvent{Type: TypeSample, MAC: testMAC, Distance: 1.5, Azimuth: -30, Elevation: &el})
	ev = nextEvent(t, e)
	assert.Equal(t, ev.Kind, models.EngineSample)
	assert.Equal(t, ev.Sample.Distance, 1.5)
	assert.Equal(t, *ev.Sample.Elevation, 12.5)

	conn.deliver(subject, EngineEvent{Type: "bogus"})
	conn.deliver(subject, EngineEvent{Type: TypePeerDisconnected, MAC: testMAC})
	assert.Equal(t, nextEvent(t, e).Kind, models.EnginePeerDisconnected)

	conn.deliver(subject, EngineEvent{Type: TypeError, Error: "radio reset"})
	ev = nextEvent(t, e)
	assert.Equal(t, ev.Kind, models.EngineError)
	assert.Error(t, ev.Err, "radio reset")

	assert.NilError(t, e.Shutdown())
	assert.Assert(t, conn.sub.unsubscribed)
}

func TestParseEventErrors(t *testing.T) {
	_, err := ParseEvent([]byte("{"))
	assert.Assert(t, err != nil)
	_, err = ParseEvent([]byte(`{"type":"nope"}`))
	assert.Equal(t, errors.Cause(err), ErrUnknownEvent)
	_, err = ParseEvent([]byte(`{"type":"session_started","phone_config":"AQI="}`))
	assert.Assert(t, err != nil)
}

func TestPublisher(t *testing.T) {
	conn := newFakeConn()
	p := NewPublisher(conn, "uwb", zerolog.Nop())

	p.OnUpdate(models.RangingUpdate{Name: "TagA", MAC: testMAC, Distance: 1.2, DistanceCM: 120, Band: ranging.Mid})
	msg := conn.last()
	assert.Equal(t, msg.subject, "uwb.range.AABBCCDDEE01")
	var u map[string]interface{}
	assert.NilError(t, json.Unmarshal(msg.data, &u))
	assert.Equal(t, u["band"], ranging.Mid.String())
	assert.Equal(t, u["distance_cm"], float64(120))

	p.OnDisconnect(models.DisconnectInfo{Reason: models.ReasonDistance, Name: "TagA", MAC: testMAC})
	msg = conn.last()
	assert.Equal(t, msg.subject, "uwb.disconnect.AABBCCDDEE01")
	assert.Equal(t, string(msg.data), `{"reason":"DueToDistance","name":"TagA","mac":"AA:BB:CC:DD:EE:01"}`)
}
