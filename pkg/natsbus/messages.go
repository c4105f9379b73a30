package natsbus

import (
	"encoding/json"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/pkg/errors"
)

// Event types on the engine events subject
const (
	TypeSessionStarted   = "session_started"
	TypeSample           = "sample"
	TypePeerDisconnected = "peer_disconnected"
	TypeError            = "error"
)

// ErrUnknownEvent is returned for an engine event with an unrecognized type
var ErrUnknownEvent = errors.New("unknown engine event")

// StartRequest asks the engine to open a session. The configs travel in their OOB wire layout.
type StartRequest struct {
	MAC      string `json:"mac"`
	Device   []byte `json:"device_config"`
	Proposal []byte `json:"phone_config"`
}

// MACRequest is the body of stop and close requests
type MACRequest struct {
	MAC string `json:"mac"`
}

// EngineEvent is one message from the engine
type EngineEvent struct {
	Type        string   `json:"type"`
	MAC         string   `json:"mac,omitempty"`
	PhoneConfig []byte   `json:"phone_config,omitempty"`
	Distance    float64  `json:"distance,omitempty"`
	Azimuth     float64  `json:"azimuth,omitempty"`
	Elevation   *float64 `json:"elevation,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewStartRequest builds the start request for mac
func NewStartRequest(mac string, device oob.DeviceConfigData, proposal oob.PhoneConfigData) StartRequest {
	return StartRequest{MAC: mac, Device: device.Encode(), Proposal: proposal.Encode()}
}

// ParseEvent decodes an engine message into a RangingEvent
func ParseEvent(data []byte) (models.RangingEvent, error) {
	var ev EngineEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return models.RangingEvent{}, errors.Wrap(err, "engine event")
	}
	switch ev.Type {
	case TypeSessionStarted:
		cfg, err := oob.DecodePhoneConfig(ev.PhoneConfig)
		if err != nil {
			return models.RangingEvent{}, err
		}
		return models.SessionStarted(ev.MAC, cfg), nil
	case TypeSample:
		return models.SampleReceived(ev.MAC, models.Sample{
			Distance:  ev.Distance,
			Azimuth:   ev.Azimuth,
			Elevation: ev.Elevation,
		}), nil
	case TypePeerDisconnected:
		return models.PeerDisconnected(ev.MAC), nil
	case TypeError:
		return models.RangingError(errors.New(ev.Error)), nil
	}
	return models.RangingEvent{}, errors.Wrap(ErrUnknownEvent, ev.Type)
}
