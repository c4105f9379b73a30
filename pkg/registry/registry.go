// Package registry holds the accessories an orchestrator is connecting to or
// connected with. It is not safe for concurrent use; the owning control loop
// is the only caller.
package registry

import (
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/oob"
	"github.com/Krajiyah/uwb-sdk/pkg/timer"
	"github.com/Krajiyah/uwb-sdk/pkg/util"
	mapset "github.com/deckarep/golang-set"
)

// Session is one accessory's lifetime in the registry. It owns its timers,
// so removing the session is enough to silence them.
type Session struct {
	Accessory models.Accessory
	State     State
	Device    *oob.DeviceConfigData
	Phone     *oob.PhoneConfigData
	Since     time.Time
	timers    [timer.NumPurposes]*timer.Handle
}

// Arm starts a timer for purpose p, cancelling the previous one first
func (s *Session) Arm(svc *timer.Service, p timer.Purpose, d time.Duration, cb func(key string)) {
	s.Disarm(p)
	s.timers[p] = svc.Start(s.Accessory.MAC, p, d, cb)
}

// Disarm cancels the timer for purpose p, if any
func (s *Session) Disarm(p timer.Purpose) {
	s.timers[p].Cancel()
	s.timers[p] = nil
}

// Armed reports whether a timer for purpose p can still fire
func (s *Session) Armed(p timer.Purpose) bool {
	return s.timers[p].Active()
}

// DisarmAll cancels every timer of the session
func (s *Session) DisarmAll() {
	for p := timer.Purpose(0); p < timer.NumPurposes; p++ {
		s.Disarm(p)
	}
}

// Registry is the bounded set of accessories in flight
type Registry struct {
	capacity   int
	sessions   map[string]*Session
	connecting mapset.Set
	connected  mapset.Set
}

// New returns a registry admitting at most capacity accessories (capped at util.MaxAccessories)
func New(capacity int) *Registry {
	r := &Registry{
		sessions:   map[string]*Session{},
		connecting: mapset.NewThreadUnsafeSet(),
		connected:  mapset.NewThreadUnsafeSet(),
	}
	r.SetCapacity(capacity)
	return r
}

// SetCapacity changes the admission limit. Accessories already admitted stay.
func (r *Registry) SetCapacity(capacity int) {
	if capacity <= 0 || capacity > util.MaxAccessories {
		capacity = util.MaxAccessories
	}
	r.capacity = capacity
}

// Capacity returns the admission limit
func (r *Registry) Capacity() int { return r.capacity }

// Len returns |connecting| + |connected|
func (r *Registry) Len() int { return r.connecting.Cardinality() + r.connected.Cardinality() }

// Counts returns |connecting| and |connected|
func (r *Registry) Counts() (connecting, connected int) {
	return r.connecting.Cardinality(), r.connected.Cardinality()
}

// HasCapacity reports whether one more accessory may be admitted
func (r *Registry) HasCapacity() bool { return r.Len() < r.capacity }

// Contains reports whether mac is connecting or connected
func (r *Registry) Contains(mac string) bool {
	_, ok := r.sessions[util.NormalizeMAC(mac)]
	return ok
}

// TryAdmitConnecting adds acc to the connecting set. It refuses known MACs
// and admissions past capacity.
func (r *Registry) TryAdmitConnecting(acc models.Accessory) (*Session, bool) {
	acc.MAC = util.NormalizeMAC(acc.MAC)
	if r.Contains(acc.MAC) || !r.HasCapacity() {
		return nil, false
	}
	s := &Session{Accessory: acc, State: Connecting, Since: time.Now()}
	r.sessions[acc.MAC] = s
	r.connecting.Add(acc.MAC)
	return s, true
}

// PromoteToConnected moves mac from connecting to connected. An accessory that
// connected without being admitted first gets a fresh session built from acc,
// as long as capacity allows. The returned bool is false when nothing was promoted.
func (r *Registry) PromoteToConnected(acc models.Accessory) (*Session, bool) {
	mac := util.NormalizeMAC(acc.MAC)
	if r.connected.Contains(mac) {
		return r.sessions[mac], false
	}
	s, ok := r.sessions[mac]
	if !ok {
		if !r.HasCapacity() {
			return nil, false
		}
		acc.MAC = mac
		s = &Session{Accessory: acc}
		r.sessions[mac] = s
	}
	if s.Accessory.Name == "" {
		s.Accessory.Name = acc.Name
	}
	r.connecting.Remove(mac)
	r.connected.Add(mac)
	s.State = LinkUp
	s.Since = time.Now()
	return s, true
}

// Remove drops mac from whichever set holds it and cancels its timers.
// It returns the removed session, or nil when mac was unknown.
func (r *Registry) Remove(mac string) *Session {
	mac = util.NormalizeMAC(mac)
	s, ok := r.sessions[mac]
	if !ok {
		return nil
	}
	s.DisarmAll()
	s.State = Terminated
	delete(r.sessions, mac)
	r.connecting.Remove(mac)
	r.connected.Remove(mac)
	return s
}

// Find returns the session for mac in either set
func (r *Registry) Find(mac string) *Session {
	return r.sessions[util.NormalizeMAC(mac)]
}

// FindConnected returns the session for mac if it is connected
func (r *Registry) FindConnected(mac string) *Session {
	mac = util.NormalizeMAC(mac)
	if !r.connected.Contains(mac) {
		return nil
	}
	return r.sessions[mac]
}

// FindConnecting returns the session for mac if it is still connecting
func (r *Registry) FindConnecting(mac string) *Session {
	mac = util.NormalizeMAC(mac)
	if !r.connecting.Contains(mac) {
		return nil
	}
	return r.sessions[mac]
}

// Connecting returns the MACs in the connecting set
func (r *Registry) Connecting() mapset.Set { return r.connecting.Clone() }

// Connected returns the MACs in the connected set
func (r *Registry) Connected() mapset.Set { return r.connected.Clone() }

// Sessions returns every session, connecting first
func (r *Registry) Sessions() []*Session {
	ret := make([]*Session, 0, len(r.sessions))
	for _, set := range []mapset.Set{r.connecting, r.connected} {
		for _, mac := range set.ToSlice() {
			ret = append(ret, r.sessions[mac.(string)])
		}
	}
	return ret
}

// CancelAll cancels the purpose p timer of every session
func (r *Registry) CancelAll(p timer.Purpose) {
	for _, s := range r.sessions {
		s.Disarm(p)
	}
}

// Clear removes every session and cancels all of their timers
func (r *Registry) Clear() []*Session {
	removed := r.Sessions()
	for _, s := range removed {
		r.Remove(s.Accessory.MAC)
	}
	return removed
}
