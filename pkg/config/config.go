// Package config loads the uwbd YAML configuration.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/alias"
	"github.com/Krajiyah/uwb-sdk/pkg/journal"
	"github.com/Krajiyah/uwb-sdk/pkg/natsbus"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/orchestrator"
	"github.com/Krajiyah/uwb-sdk/pkg/ranging"
	"github.com/Krajiyah/uwb-sdk/pkg/rtls"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	yaml "github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

var (
	ErrConfigPathEmpty  = errors.New("config path is empty")
	ErrBadMaxAccessory  = errors.New("max_accessories must be between 1 and 5")
	ErrBadReplacement   = errors.New("replacement_distance must not be negative")
	ErrBadDeviceType    = errors.New("device_type must be android or iphone")
	ErrBadLogFormat     = errors.New("log format must be json or console")
	ErrNATSURLEmpty     = errors.New("nats url cannot be empty")
	ErrTooFewAnchors    = errors.New("rtls needs at least 3 anchors")
	ErrBadJournalSize   = errors.New("journal max_entries must not be negative")
)

// LogConfig defines logging output
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// UWBConfig defines the parameters proposed to accessories
type UWBConfig struct {
	Channel       uint8  `yaml:"channel"`
	PreambleIndex uint8  `yaml:"preamble_index"`
	Role          string `yaml:"role"`
	ProfileID     uint8  `yaml:"profile_id"`
	DeviceType    string `yaml:"device_type"`
}

// RangingConfig defines admission and distance handling
type RangingConfig struct {
	MaxAccessories      int           `yaml:"max_accessories"`
	ReplacementDistance float64       `yaml:"replacement_distance"`
	StrongestFirst      bool          `yaml:"strongest_first"`
	CloseRangeCM        int           `yaml:"close_range_cm"`
	FarRangeCM          int           `yaml:"far_range_cm"`
	ConnectTimeout      time.Duration `yaml:"connect_timeout"`
	LegacyTimeout       time.Duration `yaml:"legacy_timeout"`
	EvictionCooldown    time.Duration `yaml:"eviction_cooldown"`
}

// JournalConfig defines the event journal
type JournalConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DemoName   string `yaml:"demo_name,omitempty"`
	Path       string `yaml:"path,omitempty"`
	MaxEntries int    `yaml:"max_entries,omitempty"`
}

// NATSConfig defines the bus to the ranging engine
type NATSConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix,omitempty"`
}

// AdminConfig defines the admin HTTP listener
type AdminConfig struct {
	Listen string `yaml:"listen"`
}

// RTLSConfig defines the anchors of a positioning setup
type RTLSConfig struct {
	ZCorrection float64                  `yaml:"z_correction"`
	Filter      string                   `yaml:"filter,omitempty"`
	Anchors     map[string]rtls.Position `yaml:"anchors,omitempty"`
}

// Config is the whole uwbd configuration
type Config struct {
	Log     LogConfig         `yaml:"log"`
	UWB     UWBConfig         `yaml:"uwb"`
	Ranging RangingConfig     `yaml:"ranging"`
	Journal JournalConfig     `yaml:"journal"`
	NATS    NATSConfig        `yaml:"nats"`
	Admin   AdminConfig       `yaml:"admin"`
	Aliases map[string]string `yaml:"aliases,omitempty"`
	RTLS    RTLSConfig        `yaml:"rtls"`
}

// Default returns the configuration used for anything a file leaves out
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "json"},
		UWB: UWBConfig{
			Channel:       util.DefaultUwbChannel,
			PreambleIndex: util.DefaultUwbPreambleIndex,
			Role:          util.DefaultUwbRole,
			ProfileID:     util.DefaultUwbProfileID,
			DeviceType:    "android",
		},
		Ranging: RangingConfig{
			MaxAccessories:      util.MaxAccessories,
			ReplacementDistance: util.DefaultReplacementDistance,
			StrongestFirst:      true,
			CloseRangeCM:        util.DefaultCloseRangeCM,
			FarRangeCM:          util.DefaultFarRangeCM,
			ConnectTimeout:      util.DefaultConnectTimeout,
			LegacyTimeout:       util.DefaultLegacyTimeout,
			EvictionCooldown:    util.DefaultEvictionCooldown,
		},
		Journal: JournalConfig{Enabled: true, DemoName: journal.DefaultDemoName, MaxEntries: journal.DefaultMaxEntries},
		NATS:    NATSConfig{URL: "nats://127.0.0.1:4222", Prefix: natsbus.DefaultPrefix},
		Admin:   AdminConfig{Listen: ":8080"},
		RTLS:    RTLSConfig{ZCorrection: 1.0, Filter: string(rtls.None)},
	}
}

// Load reads path over the defaults
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, ErrConfigPathEmpty
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg, including the settings it produces
func (c Config) Validate() error {
	if c.Ranging.MaxAccessories < 1 || c.Ranging.MaxAccessories > util.MaxAccessories {
		return errors.Wrapf(ErrBadMaxAccessory, "%d", c.Ranging.MaxAccessories)
	}
	if c.Ranging.ReplacementDistance < 0 {
		return ErrBadReplacement
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return errors.Wrap(ErrBadLogFormat, c.Log.Format)
	}
	if strings.TrimSpace(c.NATS.URL) == "" {
		return ErrNATSURLEmpty
	}
	if c.Journal.MaxEntries < 0 {
		return ErrBadJournalSize
	}
	if _, err := rtls.ParseFilter(c.RTLS.Filter); err != nil {
		return err
	}
	if len(c.RTLS.Anchors) > 0 && len(c.RTLS.Anchors) < 3 {
		return errors.Wrapf(ErrTooFewAnchors, "%d", len(c.RTLS.Anchors))
	}
	s, err := c.Settings()
	if err != nil {
		return err
	}
	return s.Validate()
}

// Settings converts cfg to orchestrator settings
func (c Config) Settings() (orchestrator.Settings, error) {
	role, err := ranging.ParseRole(c.UWB.Role)
	if err != nil {
		return orchestrator.Settings{}, err
	}
	dt, err := parseDeviceType(c.UWB.DeviceType)
	if err != nil {
		return orchestrator.Settings{}, err
	}
	return orchestrator.Settings{
		Channel:            c.UWB.Channel,
		PreambleIndex:      c.UWB.PreambleIndex,
		PreferredRole:      role,
		PreferredProfileID: c.UWB.ProfileID,
		CloseRangeCM:       c.Ranging.CloseRangeCM,
		FarRangeCM:         c.Ranging.FarRangeCM,
		ConnectTimeout:     c.Ranging.ConnectTimeout,
		LegacyTimeout:      c.Ranging.LegacyTimeout,
		DeviceType:         dt,
	}, nil
}

// JournalOptions converts cfg to journal options
func (c Config) JournalOptions() journal.Options {
	return journal.Options{
		DemoName:   c.Journal.DemoName,
		MaxEntries: c.Journal.MaxEntries,
		Path:       c.Journal.Path,
		Enabled:    c.Journal.Enabled,
	}
}

// AliasStore returns a store seeded with the configured aliases
func (c Config) AliasStore() (*alias.Store, error) {
	s, err := alias.New(alias.DefaultSize)
	if err != nil {
		return nil, err
	}
	s.Seed(c.Aliases)
	return s, nil
}

func parseDeviceType(s string) (oob.DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "android":
		return oob.Android, nil
	case "iphone", "ios":
		return oob.IPhone, nil
	}
	return 0, errors.Wrap(ErrBadDeviceType, s)
}
