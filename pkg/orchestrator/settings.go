package orchestrator

import (
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/ranging"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/pkg/errors"
)

var (
	// ErrBadRange is returned when the NEAR bound is not below the FAR bound
	ErrBadRange = errors.New("close range must be below far range")
	// ErrBadTimeout is returned for non-positive timeouts
	ErrBadTimeout = errors.New("timeouts must be positive")
	// ErrBadDeviceType is returned for a legacy device type other than Android or IPhone
	ErrBadDeviceType = errors.New("unknown device type")
)

// Settings are the tunables of the pairing state machine. They can change at runtime.
type Settings struct {
	Channel            uint8          `json:"channel"`
	PreambleIndex      uint8          `json:"preamble_index"`
	PreferredRole      ranging.Role   `json:"preferred_role"`
	PreferredProfileID uint8          `json:"preferred_profile_id"`
	CloseRangeCM       int            `json:"close_range_cm"`
	FarRangeCM         int            `json:"far_range_cm"`
	ConnectTimeout     time.Duration  `json:"connect_timeout"`
	LegacyTimeout      time.Duration  `json:"legacy_timeout"`
	DeviceType         oob.DeviceType `json:"device_type"`
}

// DefaultSettings returns the settings used when none are given
func DefaultSettings() Settings {
	role, _ := ranging.ParseRole(util.DefaultUwbRole)
	return Settings{
		Channel:            util.DefaultUwbChannel,
		PreambleIndex:      util.DefaultUwbPreambleIndex,
		PreferredRole:      role,
		PreferredProfileID: util.DefaultUwbProfileID,
		CloseRangeCM:       util.DefaultCloseRangeCM,
		FarRangeCM:         util.DefaultFarRangeCM,
		ConnectTimeout:     util.DefaultConnectTimeout,
		LegacyTimeout:      util.DefaultLegacyTimeout,
		DeviceType:         oob.Android,
	}
}

// Validate checks that s can drive the state machine
func (s Settings) Validate() error {
	if s.CloseRangeCM >= s.FarRangeCM {
		return errors.Wrapf(ErrBadRange, "close %d far %d", s.CloseRangeCM, s.FarRangeCM)
	}
	if s.ConnectTimeout <= 0 || s.LegacyTimeout <= 0 {
		return ErrBadTimeout
	}
	if s.DeviceType != oob.Android && s.DeviceType != oob.IPhone {
		return errors.Wrapf(ErrBadDeviceType, "%d", s.DeviceType)
	}
	return nil
}
