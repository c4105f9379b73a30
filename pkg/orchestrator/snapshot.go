package orchestrator

import (
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/registry"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/bradfitz/slice"
)

// State is where an accessory stands in the pairing lifecycle
type State = registry.State

// AccessoryState describes one accessory in a Snapshot
type AccessoryState struct {
	Name      string    `json:"name"`
	Alias     string    `json:"alias,omitempty"`
	MAC       string    `json:"mac"`
	State     State     `json:"state"`
	Since     time.Time `json:"since"`
	ProfileID *uint8    `json:"profile_id,omitempty"`
	SessionID *uint32   `json:"session_id,omitempty"`
}

// Snapshot is a consistent copy of the orchestrator state
type Snapshot struct {
	Running             bool             `json:"running"`
	Capacity            int              `json:"capacity"`
	ReplacementDistance float64          `json:"replacement_distance"`
	Cooling             []string         `json:"cooling"`
	Accessories         []AccessoryState `json:"accessories"`
	Settings            Settings         `json:"settings"`
}

// Snapshot returns the current state, sorted by MAC. It is answered by the
// control loop, so it is safe to call from callbacks.
func (o *Orchestrator) Snapshot() Snapshot {
	var snap Snapshot
	o.do(func() { snap = o.snapshot() })
	return snap
}

func (o *Orchestrator) snapshot() Snapshot {
	snap := Snapshot{
		Running:             o.running,
		Capacity:            o.registry.Capacity(),
		ReplacementDistance: o.replacement,
		Cooling:             o.cooldown.Keys(),
		Accessories:         []AccessoryState{},
		Settings:            o.settings,
	}
	for _, s := range o.registry.Sessions() {
		a := AccessoryState{
			Name:  s.Accessory.Name,
			Alias: s.Accessory.Alias,
			MAC:   s.Accessory.MAC,
			State: s.State,
			Since: s.Since,
		}
		if s.Phone != nil {
			profile, session := s.Phone.ProfileID, s.Phone.SessionID
			a.ProfileID, a.SessionID = &profile, &session
		}
		snap.Accessories = append(snap.Accessories, a)
	}
	slice.Sort(snap.Accessories, func(i, j int) bool {
		return snap.Accessories[i].MAC < snap.Accessories[j].MAC
	})
	return snap
}

// Find returns the state of one accessory
func (s Snapshot) Find(mac string) (AccessoryState, bool) {
	mac = util.NormalizeMAC(mac)
	for _, a := range s.Accessories {
		if a.MAC == mac {
			return a, true
		}
	}
	return AccessoryState{}, false
}
