package ranging

import (
	"strings"

	"github.com/pkg/errors"
)

// Role is a UWB ranging role. The numeric value is the bit used for it in
// the supportedDeviceRangingRoles and deviceRangingRole bitmasks.
type Role uint8

const (
	Controller Role = 0
	Controlee  Role = 1
)

func (r Role) String() string {
	if r == Controller {
		return "Controller"
	}
	return "Controlee"
}

// Opposite returns the role the other side of the session takes
func (r Role) Opposite() Role {
	if r == Controller {
		return Controlee
	}
	return Controller
}

// Bitmask returns the single bit announcing r
func (r Role) Bitmask() uint8 { return 1 << r }

// ParseRole accepts "Controller" or "Controlee" in any case
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "controller":
		return Controller, nil
	case "controlee":
		return Controlee, nil
	}
	return Controlee, errors.Errorf("unknown uwb role %q", s)
}

// SelectRole picks the role the accessory will play, given the roles it
// supports and the role the host prefers for itself. The host keeps its
// preferred role when the accessory can take the opposite one; otherwise the
// accessory is made controlee when it supports that, and controller if not.
func SelectRole(supported uint8, preferred Role) Role {
	canController := supported&Controller.Bitmask() != 0
	canControlee := supported&Controlee.Bitmask() != 0
	if preferred == Controller && canControlee {
		return Controlee
	}
	if !canController && canControlee {
		return Controlee
	}
	return Controller
}

// SelectProfileID picks the preferred profile when the accessory supports it,
// else profile 1 when supported, else profile 0.
func SelectProfileID(supported uint32, preferred uint8) uint8 {
	if preferred < 32 && supported&(1<<preferred) != 0 {
		return preferred
	}
	if supported&(1<<1) != 0 {
		return 1
	}
	return 0
}

// MarshalText lets roles travel as names in JSON
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText is the inverse of MarshalText
func (r *Role) UnmarshalText(b []byte) error {
	role, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
