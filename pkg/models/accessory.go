package models

import (
	"github.com/Krajiyah/uwb-sdk/pkg/ranging"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
)

// Accessory is a UWB accessory reachable over BLE, keyed by its MAC address
type Accessory struct {
	Name  string
	MAC   string
	Alias string
}

// NewAccessory returns an Accessory with a normalized MAC
func NewAccessory(name, mac string) Accessory {
	return Accessory{Name: name, MAC: util.NormalizeMAC(mac)}
}

// DisplayName is the alias when one is set, else the advertised name
func (a Accessory) DisplayName() string {
	if a.Alias != "" {
		return a.Alias
	}
	return a.Name
}

// Sample is one ranging measurement. Distance is in meters, angles in degrees.
type Sample struct {
	Distance  float64
	Azimuth   float64
	Elevation *float64
}

// RangingUpdate is published for every sample of a ranging accessory
type RangingUpdate struct {
	Name       string       `json:"name"`
	MAC        string       `json:"mac"`
	Distance   float64      `json:"distance"`
	Azimuth    float64      `json:"azimuth"`
	Elevation  *float64     `json:"elevation,omitempty"`
	DistanceCM int          `json:"distance_cm"`
	Band       ranging.Band `json:"band"`
}

// DisconnectReason says why an accessory was dropped
type DisconnectReason int

const (
	// ReasonDistance means the accessory was evicted for being beyond the replacement distance
	ReasonDistance DisconnectReason = iota
	// ReasonSystem means the link, the ranging peer or the radio went away
	ReasonSystem
	// ReasonProtocolError means the accessory sent an OOB frame that could not be handled
	ReasonProtocolError
)

func (r DisconnectReason) String() string {
	return []string{"DueToDistance", "DueToSystem", "ProtocolError"}[r]
}

// MarshalText lets reasons travel as names in JSON
func (r DisconnectReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// DisconnectInfo is published whenever an accessory is torn down
type DisconnectInfo struct {
	Reason DisconnectReason `json:"reason"`
	Name   string           `json:"name"`
	MAC    string           `json:"mac"`
}
