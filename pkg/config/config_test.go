package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/orchestrator"
	"github.com/Krajiyah/uwb-sdk/pkg/ranging"
	"github.com/Krajiyah/uwb-sdk/pkg/rtls"
	"github.com/pkg/errors"
	"gotest.tools/assert"
	"gotest.tools/poll"
)

const testConfig = `
log:
  level: debug
  format: console
uwb:
  channel: 5
  role: Controller
  device_type: iphone
ranging:
  max_accessories: 3
  connect_timeout: 3s
  eviction_cooldown: 30s
aliases:
  "aa:bb:cc:dd:ee:01": Desk
rtls:
  filter: lowpass
  anchors:
    A1: {x: 0, y: 0, z: 2}
    A2: {x: 5, y: 0, z: 2}
    A3: {x: 0, y: 5, z: 2}
`

func TestDefaultSettingsMatchOrchestrator(t *testing.T) {
	cfg := Default()
	assert.NilError(t, cfg.Validate())
	s, err := cfg.Settings()
	assert.NilError(t, err)
	assert.DeepEqual(t, s, orchestrator.DefaultSettings())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(testConfig))
	assert.NilError(t, err)
	assert.Equal(t, cfg.Log.Format, "console")
	assert.Equal(t, cfg.Ranging.MaxAccessories, 3)
	assert.Equal(t, cfg.Ranging.ConnectTimeout, 3*time.Second)
	assert.Equal(t, cfg.Ranging.EvictionCooldown, 30*time.Second)
	assert.Equal(t, cfg.Ranging.FarRangeCM, 200)
	assert.Equal(t, len(cfg.RTLS.Anchors), 3)
	assert.Equal(t, cfg.RTLS.Anchors["A2"].X, 5.0)

	s, err := cfg.Settings()
	assert.NilError(t, err)
	assert.Equal(t, s.Channel, uint8(5))
	assert.Equal(t, s.PreambleIndex, uint8(10))
	assert.Equal(t, s.PreferredRole, ranging.Controller)
	assert.Equal(t, s.DeviceType, oob.IPhone)

	store, err := cfg.AliasStore()
	assert.NilError(t, err)
	a, ok := store.Lookup("AA:BB:CC:DD:EE:01")
	assert.Assert(t, ok)
	assert.Equal(t, a, "Desk")
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		edit func(*Config)
		want error
	}{
		{"too many accessories", func(c *Config) { c.Ranging.MaxAccessories = 6 }, ErrBadMaxAccessory},
		{"no accessories", func(c *Config) { c.Ranging.MaxAccessories = 0 }, ErrBadMaxAccessory},
		{"negative replacement", func(c *Config) { c.Ranging.ReplacementDistance = -1 }, ErrBadReplacement},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, ErrBadLogFormat},
		{"nats url", func(c *Config) { c.NATS.URL = " " }, ErrNATSURLEmpty},
		{"device type", func(c *Config) { c.UWB.DeviceType = "watch" }, ErrBadDeviceType},
		{"ranges", func(c *Config) { c.Ranging.CloseRangeCM = 300 }, orchestrator.ErrBadRange},
		{"timeouts", func(c *Config) { c.Ranging.LegacyTimeout = 0 }, orchestrator.ErrBadTimeout},
		{"anchors", func(c *Config) { c.RTLS.Anchors = map[string]rtls.Position{"A1": {}} }, ErrTooFewAnchors},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.edit(&cfg)
			assert.Equal(t, errors.Cause(cfg.Validate()), tc.want)
		})
	}
	cfg := Default()
	cfg.UWB.Role = "Observer"
	assert.Assert(t, cfg.Validate() != nil)
}

func TestLoad(t *testing.T) {
	_, err := Load("")
	assert.Equal(t, err, ErrConfigPathEmpty)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Assert(t, err != nil)
	_, err = Parse([]byte("ranging: [1, 2"))
	assert.Assert(t, err != nil)
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uwbd.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var mutex sync.Mutex
	var got []Config
	w, err := NewWatcher(path, func(c Config) {
		mutex.Lock()
		defer mutex.Unlock()
		got = append(got, c)
	})
	assert.NilError(t, err)
	w.delay = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.NilError(t, os.WriteFile(path, []byte("ranging:\n  max_accessories: 9\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.NilError(t, os.WriteFile(path, []byte("ranging:\n  max_accessories: 2\n"), 0o600))
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		mutex.Lock()
		defer mutex.Unlock()
		if len(got) > 0 && got[len(got)-1].Ranging.MaxAccessories == 2 {
			return poll.Success()
		}
		return poll.Continue("reloads: %d", len(got))
	}, poll.WithDelay(10*time.Millisecond), poll.WithTimeout(3*time.Second))
	mutex.Lock()
	defer mutex.Unlock()
	for _, c := range got {
		assert.Assert(t, c.Ranging.MaxAccessories != 9)
	}
}
