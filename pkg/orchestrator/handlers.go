package orchestrator

import (
	"encoding/binary"
	"strconv"

	"github.com/Krajiyah/uwb-sdk/pkg/journal"
	"github.com/Krajiyah/uwb-sdk/pkg/metrics"
	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/ranging"
	"github.com/Krajiyah/uwb-sdk/pkg/registry"
	"github.com/Krajiyah/uwb-sdk/pkg/timer"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/google/uuid"
)

func (o *Orchestrator) handleTransport(ev models.TransportEvent) {
	switch ev.Kind {
	case models.DeviceScanned:
		o.discovered(ev.Name, ev.MAC, true)
	case models.DeviceBonded:
		o.discovered(ev.Name, ev.MAC, false)
	case models.DeviceConnected:
		o.connected(ev.Name, ev.MAC)
	case models.DeviceDisconnected:
		o.teardown(ev.MAC, models.ReasonSystem)
	case models.DataReceived:
		o.received(ev.MAC, ev.Data)
	case models.LinkStateChanged:
		o.linkState(ev.LinkState)
	}
}

func (o *Orchestrator) handleRanging(ev models.RangingEvent) {
	switch ev.Kind {
	case models.EngineSessionStarted:
		o.sessionStarted(ev.MAC, ev.PhoneConfig)
	case models.EngineSample:
		o.sample(ev.MAC, ev.Sample)
	case models.EnginePeerDisconnected:
		o.teardown(ev.MAC, models.ReasonSystem)
	case models.EngineError:
		o.log.Error().Err(ev.Err).Msg("ranging error")
		o.teardownAll(models.ReasonSystem)
		o.journal.Log(journal.UWBRangingError)
	}
}

// discovered admits a scanned or bonded accessory. Scan results without a name are skipped.
func (o *Orchestrator) discovered(name, mac string, needName bool) {
	mac = util.NormalizeMAC(mac)
	if !o.running || mac == "" || (needName && name == "") {
		return
	}
	switch {
	case o.registry.Contains(mac):
		o.metrics.Admission(metrics.Known)
		return
	case o.cooling(mac):
		o.metrics.Admission(metrics.Cooling)
		return
	case !o.registry.HasCapacity():
		o.metrics.Admission(metrics.Full)
		return
	}
	acc := o.accessory(name, mac)
	o.journal.Log(journal.BLEDevScanned, acc.DisplayName(), mac)
	o.journal.Log(journal.BLEDevConnecting, acc.DisplayName(), mac)
	s, _ := o.registry.TryAdmitConnecting(acc)
	o.metrics.Admission(metrics.Admitted)
	if !o.transport.Connect(mac) {
		o.log.Warn().Str("mac", mac).Msg("connect refused")
		o.registry.Remove(mac)
		return
	}
	s.Arm(o.timers, timer.ConnectTimeout, o.settings.ConnectTimeout, o.connectTimedOut)
	o.log.Debug().Str("mac", mac).Str("name", acc.DisplayName()).Msg("connecting")
}

// cooling reports whether mac was evicted for distance less than the cooldown ago
func (o *Orchestrator) cooling(mac string) bool {
	_, ok := o.cooldown.Get(mac)
	return ok
}

func (o *Orchestrator) connectTimedOut(mac string) {
	if o.registry.FindConnecting(mac) == nil {
		return
	}
	o.log.Info().Str("mac", mac).Msg("connect timed out")
	o.registry.Remove(mac)
	o.transport.Close(mac)
}

func (o *Orchestrator) connected(name, mac string) {
	mac = util.NormalizeMAC(mac)
	if !o.running && !o.registry.Contains(mac) {
		o.transport.Close(mac)
		return
	}
	s, ok := o.registry.PromoteToConnected(o.accessory(name, mac))
	if !ok {
		if s == nil {
			o.log.Info().Str("mac", mac).Msg("registry full, dropping link")
			o.transport.Close(mac)
		}
		return
	}
	s.Disarm(timer.ConnectTimeout)
	o.journal.Log(journal.BLEDevConnected, s.Accessory.DisplayName(), mac)
	s.Arm(o.timers, timer.LegacyFallback, o.settings.LegacyTimeout, o.legacyFallback)
	o.send(mac, oob.Encode(oob.Initialize, nil))
}

// legacyFallback sends the legacy initialize once to an accessory that never
// answered INITIALIZE with its DEVICE_CONFIG
func (o *Orchestrator) legacyFallback(mac string) {
	s := o.registry.FindConnected(mac)
	if s == nil || s.State != registry.LinkUp {
		return
	}
	o.log.Debug().Str("mac", mac).Msg("no device config, trying legacy initialize")
	o.send(mac, oob.EncodeLegacyInitialize(o.settings.DeviceType))
}

func (o *Orchestrator) received(mac string, frame []byte) {
	s := o.registry.FindConnected(mac)
	if s == nil {
		o.log.Debug().Str("mac", mac).Msg("data from unknown accessory")
		return
	}
	if len(frame) == 0 {
		o.protocolError(s, "empty frame")
		return
	}
	id := oob.MessageID(frame[0])
	o.metrics.Frame("rx", id.String())
	name := s.Accessory.DisplayName()
	switch id {
	case oob.DeviceConfig:
		payload, _ := oob.Decode(frame, oob.DeviceConfig)
		o.deviceConfig(s, payload)
	case oob.RangingStarted:
		o.journal.Log(journal.UWBRangingStart, name, s.Accessory.MAC)
	case oob.RangingStopped:
		o.journal.Log(journal.UWBRangingStop, name, s.Accessory.MAC)
	default:
		o.protocolError(s, "unexpected message 0x"+strconv.FormatUint(uint64(id), 16))
	}
}

func (o *Orchestrator) deviceConfig(s *registry.Session, payload []byte) {
	mac := s.Accessory.MAC
	if s.State != registry.LinkUp {
		o.log.Debug().Str("mac", mac).Stringer("state", s.State).Msg("ignoring late device config")
		return
	}
	s.Disarm(timer.LegacyFallback)
	cfg, err := oob.DecodeDeviceConfig(payload)
	if err != nil {
		o.protocolError(s, err.Error())
		return
	}
	role := ranging.SelectRole(cfg.SupportedDeviceRangingRoles, o.settings.PreferredRole)
	proposal := oob.PhoneConfigData{
		SpecVerMajor:      oob.PhoneSpecVerMajor,
		SpecVerMinor:      oob.PhoneSpecVerMinor,
		SessionID:         newSessionID(),
		PreambleIndex:     o.settings.PreambleIndex,
		Channel:           o.settings.Channel,
		ProfileID:         ranging.SelectProfileID(cfg.SupportedUwbProfileIDs, o.settings.PreferredProfileID),
		DeviceRangingRole: role.Bitmask(),
	}
	s.Device = &cfg
	s.Phone = &proposal
	if !o.engine.StartRanging(mac, cfg, proposal) {
		o.protocolError(s, "ranging engine refused session")
		return
	}
	s.State = registry.RangingStarting
	o.log.Info().
		Str("mac", mac).
		Stringer("device_role", role).
		Uint8("profile", proposal.ProfileID).
		Uint32("session", proposal.SessionID).
		Msg("ranging requested")
}

func (o *Orchestrator) sessionStarted(mac string, cfg oob.PhoneConfigData) {
	s := o.registry.FindConnected(mac)
	if s == nil || s.State != registry.RangingStarting {
		o.log.Debug().Str("mac", mac).Msg("session started for unknown accessory")
		return
	}
	s.Phone = &cfg
	if !o.send(s.Accessory.MAC, oob.Encode(oob.PhoneConfig, cfg.Encode())) {
		o.log.Warn().Str("mac", mac).Msg("phone config not sent")
	}
	s.State = registry.Ranging
}

func (o *Orchestrator) sample(mac string, smp models.Sample) {
	s := o.registry.FindConnected(mac)
	if s == nil || !s.State.RangingRequested() {
		return
	}
	mac = s.Accessory.MAC
	name := s.Accessory.DisplayName()
	cm := ranging.DistanceCM(smp.Distance)
	band := ranging.Classify(cm, o.settings.CloseRangeCM, o.settings.FarRangeCM)
	el := ""
	if smp.Elevation != nil {
		el = strconv.Itoa(int(*smp.Elevation))
	}
	o.journal.Log(journal.UWBRangingResult, name, mac, strconv.Itoa(cm), strconv.Itoa(int(smp.Azimuth)), el)
	o.metrics.Sample(band.String(), smp.Distance)
	o.publishUpdate(models.RangingUpdate{
		Name:       name,
		MAC:        mac,
		Distance:   smp.Distance,
		Azimuth:    smp.Azimuth,
		Elevation:  smp.Elevation,
		DistanceCM: cm,
		Band:       band,
	})
	if o.replacement > 0 && smp.Distance > o.replacement && !o.registry.HasCapacity() {
		o.log.Info().Str("mac", mac).Float64("distance", smp.Distance).Msg("evicting distant accessory")
		o.cooldown.Add(mac, struct{}{})
		o.teardown(mac, models.ReasonDistance)
	}
}

func (o *Orchestrator) linkState(code int) {
	switch code {
	case models.AdapterOn:
		o.log.Info().Msg("adapter on")
		if o.running {
			o.startScan()
		}
	case models.AdapterOff:
		o.log.Warn().Msg("adapter off")
		o.teardownAll(models.ReasonSystem)
		if o.running {
			o.startScan()
		}
	}
}

func (o *Orchestrator) protocolError(s *registry.Session, why string) {
	o.log.Warn().Str("mac", s.Accessory.MAC).Str("error", why).Msg("invalid oob data")
	o.teardown(s.Accessory.MAC, models.ReasonProtocolError)
}

// teardown releases everything held for mac and publishes why. Unknown MACs are a no-op.
func (o *Orchestrator) teardown(mac string, reason models.DisconnectReason) bool {
	s := o.registry.Find(mac)
	if s == nil {
		return true
	}
	mac = s.Accessory.MAC
	name := s.Accessory.DisplayName()
	ok := true
	if s.State.RangingRequested() {
		ok = o.engine.StopRanging(mac) && ok
	}
	ok = o.engine.Close(mac) && ok
	ok = o.transport.Close(mac) && ok
	o.journal.Log(journal.BLEDevDisconnected, name, mac)
	o.journal.Log(journal.UWBRangingPeerDisconnected, name, mac)
	o.registry.Remove(mac)
	o.metrics.Disconnect(reason.String())
	o.publishDisconnect(models.DisconnectInfo{Reason: reason, Name: name, MAC: mac})
	o.log.Info().Str("mac", mac).Stringer("reason", reason).Msg("accessory removed")
	return ok
}

func (o *Orchestrator) teardownAll(reason models.DisconnectReason) {
	for _, s := range o.registry.Sessions() {
		o.teardown(s.Accessory.MAC, reason)
	}
	o.registry.CancelAll(timer.ConnectTimeout)
	o.registry.CancelAll(timer.LegacyFallback)
	o.registry.Clear()
}

func (o *Orchestrator) send(mac string, frame []byte) bool {
	o.metrics.Frame("tx", frameName(frame))
	return o.transport.Transmit(mac, frame)
}

func frameName(frame []byte) string {
	if len(frame) == 2 && frame[0] == byte(oob.LegacyInitialize) {
		return "LegacyInitialize"
	}
	return oob.MessageID(frame[0]).String()
}

func encodeStop() []byte { return oob.Encode(oob.Stop, nil) }

// newSessionID draws a random UWB session id
func newSessionID() uint32 {
	u := uuid.New()
	return binary.BigEndian.Uint32(u[:4])
}
