package models

import (
	"testing"

	"gotest.tools/assert"
)

func TestSetter(t *testing.T) {
	x := NewRssiMap()
	x.Set("Tag-A", "aa:bb:cc:dd:ee:ff", -60)
	x.Set("Tag-A", "AA:BB:CC:DD:EE:FF", -55)
	rssi, ok := x.Get("AA:BB:CC:DD:EE:FF")
	assert.Assert(t, ok)
	assert.Equal(t, rssi, -55)
	assert.Equal(t, x.Len(), 1)
}

func TestDrainStrongestFirst(t *testing.T) {
	x := NewRssiMap()
	x.Set("far", "00:00:00:00:00:03", -90)
	x.Set("near", "00:00:00:00:00:01", -40)
	x.Set("mid", "00:00:00:00:00:02", -70)
	x.Set("mid-2", "00:00:00:00:00:00", -70)
	entries := x.Drain()
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.DeepEqual(t, names, []string{"near", "mid-2", "mid", "far"})
	assert.Equal(t, x.Len(), 0)
}

func TestDisplayName(t *testing.T) {
	a := NewAccessory("Tag-A", "aa:bb:cc:dd:ee:ff")
	assert.Equal(t, a.MAC, "AA:BB:CC:DD:EE:FF")
	assert.Equal(t, a.DisplayName(), "Tag-A")
	a.Alias = "Keys"
	assert.Equal(t, a.DisplayName(), "Keys")
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, ReasonProtocolError.String(), "ProtocolError")
	b, err := ReasonSystem.MarshalText()
	assert.NilError(t, err)
	assert.Equal(t, string(b), "DueToSystem")
}
