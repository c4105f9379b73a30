package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/timer"
	"gotest.tools/assert"
)

const testMAC = "AA:BB:CC:DD:EE:FF"

func testAccessory(i int) models.Accessory {
	return models.NewAccessory(fmt.Sprintf("Tag-%d", i), fmt.Sprintf("00:00:00:00:00:%02X", i))
}

// inline dispatcher: tests drive the registry from a single goroutine
func inline(fn func()) bool { fn(); return true }

func TestAdmitIsIdempotent(t *testing.T) {
	r := New(5)
	_, ok := r.TryAdmitConnecting(models.NewAccessory("Tag-A", testMAC))
	assert.Assert(t, ok)
	_, ok = r.TryAdmitConnecting(models.NewAccessory("Tag-A", "aa:bb:cc:dd:ee:ff"))
	assert.Assert(t, !ok)
	assert.Equal(t, r.Len(), 1)
	assert.Assert(t, r.FindConnecting(testMAC) != nil)
	assert.Assert(t, r.FindConnected(testMAC) == nil)
}

func TestCapacity(t *testing.T) {
	r := New(5)
	for i := 0; i < 3; i++ {
		_, ok := r.TryAdmitConnecting(testAccessory(i))
		assert.Assert(t, ok)
	}
	for i := 0; i < 2; i++ {
		_, ok := r.PromoteToConnected(testAccessory(i))
		assert.Assert(t, ok)
	}
	for i := 3; i < 5; i++ {
		_, ok := r.TryAdmitConnecting(testAccessory(i))
		assert.Assert(t, ok)
	}
	assert.Equal(t, r.Len(), 5)
	_, ok := r.TryAdmitConnecting(testAccessory(6))
	assert.Assert(t, !ok)
	assert.Equal(t, r.Len(), 5)
	_, ok = r.PromoteToConnected(testAccessory(7))
	assert.Assert(t, !ok)
	assert.Equal(t, r.Len(), 5)
	assert.Equal(t, r.Connecting().Cardinality(), 3)
	assert.Equal(t, r.Connected().Cardinality(), 2)
}

func TestCapacityClamp(t *testing.T) {
	assert.Equal(t, New(0).Capacity(), 5)
	assert.Equal(t, New(9).Capacity(), 5)
	assert.Equal(t, New(2).Capacity(), 2)
}

func TestPromoteWithoutDiscovery(t *testing.T) {
	r := New(5)
	s, ok := r.PromoteToConnected(models.NewAccessory("Tag-A", testMAC))
	assert.Assert(t, ok)
	assert.Equal(t, s.State, LinkUp)
	assert.Equal(t, s.Accessory.Name, "Tag-A")
	assert.Assert(t, r.FindConnected(testMAC) != nil)

	_, ok = r.PromoteToConnected(models.NewAccessory("Tag-A", testMAC))
	assert.Assert(t, !ok)
	assert.Equal(t, r.Len(), 1)
}

func TestNeverInBothSets(t *testing.T) {
	r := New(5)
	r.TryAdmitConnecting(models.NewAccessory("Tag-A", testMAC))
	r.PromoteToConnected(models.NewAccessory("Tag-A", testMAC))
	assert.Assert(t, !r.Connecting().Contains(testMAC))
	assert.Assert(t, r.Connected().Contains(testMAC))
	assert.Equal(t, r.Len(), 1)
}

func TestRemoveDisarmsTimers(t *testing.T) {
	r := New(5)
	svc := timer.New(inline)
	s, _ := r.TryAdmitConnecting(models.NewAccessory("Tag-A", testMAC))
	s.Arm(svc, timer.ConnectTimeout, time.Hour, func(string) {})
	s.Arm(svc, timer.LegacyFallback, time.Hour, func(string) {})
	assert.Equal(t, svc.Live(), 2)

	removed := r.Remove(testMAC)
	assert.Equal(t, removed, s)
	assert.Equal(t, s.State, Terminated)
	assert.Assert(t, !s.Armed(timer.ConnectTimeout))
	assert.Assert(t, !s.Armed(timer.LegacyFallback))
	assert.Equal(t, svc.Live(), 0)
	assert.Assert(t, r.Find(testMAC) == nil)
	assert.Assert(t, r.Remove(testMAC) == nil)
}

func TestArmReplaces(t *testing.T) {
	svc := timer.New(inline)
	s := &Session{Accessory: models.NewAccessory("Tag-A", testMAC)}
	s.Arm(svc, timer.ConnectTimeout, time.Hour, func(string) {})
	first := s.timers[timer.ConnectTimeout]
	s.Arm(svc, timer.ConnectTimeout, time.Hour, func(string) {})
	assert.Assert(t, !first.Active())
	assert.Assert(t, s.Armed(timer.ConnectTimeout))
	assert.Equal(t, svc.Live(), 1)
	s.DisarmAll()
}

func TestCancelAllAndClear(t *testing.T) {
	r := New(5)
	svc := timer.New(inline)
	for i := 0; i < 3; i++ {
		s, _ := r.TryAdmitConnecting(testAccessory(i))
		s.Arm(svc, timer.ConnectTimeout, time.Hour, func(string) {})
		s.Arm(svc, timer.LegacyFallback, time.Hour, func(string) {})
	}
	r.CancelAll(timer.LegacyFallback)
	assert.Equal(t, svc.Live(), 3)
	for _, s := range r.Sessions() {
		assert.Assert(t, s.Armed(timer.ConnectTimeout))
		assert.Assert(t, !s.Armed(timer.LegacyFallback))
	}
	removed := r.Clear()
	assert.Equal(t, len(removed), 3)
	assert.Equal(t, r.Len(), 0)
	assert.Equal(t, svc.Live(), 0)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, RangingStarting.String(), "RangingStarting")
}
