package rtls

import (
	"sync"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/rs/zerolog"
)

// FreshFor is how long a distance counts towards a position
const FreshFor = 1000 * time.Millisecond

// Position is where an anchor is mounted, in meters
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Handlers receive the tracker results. Any may be nil.
type Handlers struct {
	OnLocation func(Location)
	OnFail     func(reason string)
	OnRanging  func(distances map[string]float64)
}

type reading struct {
	distance float64
	at       time.Time
}

// Tracker feeds ranging updates from anchors into Process. Anchors are known by name.
type Tracker struct {
	positions map[string]Position
	zRef      float64
	handlers  Handlers
	log       zerolog.Logger
	now       func() time.Time

	mutex    sync.Mutex
	filter   Filter
	readings map[string]reading
}

// NewTracker tracks a tag against anchors at positions, projecting to height zRef
func NewTracker(positions map[string]Position, zRef float64, filter FilterType, h Handlers, log zerolog.Logger) *Tracker {
	return &Tracker{
		positions: positions,
		zRef:      zRef,
		handlers:  h,
		log:       log,
		now:       time.Now,
		filter:    NewFilter(filter),
		readings:  map[string]reading{},
	}
}

// OnUpdate is a models.UpdateHandler
func (t *Tracker) OnUpdate(u models.RangingUpdate) {
	t.mutex.Lock()
	now := t.now()
	t.readings[u.Name] = reading{distance: u.Distance, at: now}
	anchors := make([]Anchor, 0, len(t.readings))
	distances := make(map[string]float64, len(t.readings))
	for name, r := range t.readings {
		distances[name] = r.distance
		p, ok := t.positions[name]
		if !ok || now.Sub(r.at) > FreshFor {
			continue
		}
		anchors = append(anchors, Anchor{X: p.X, Y: p.Y, Z: p.Z, Distance: r.distance})
	}
	loc := Process(anchors, t.zRef)
	if loc != nil {
		filtered := t.filter.Filter(*loc)
		loc = &filtered
	}
	t.mutex.Unlock()

	if t.handlers.OnRanging != nil {
		t.handlers.OnRanging(distances)
	}
	if loc == nil {
		t.log.Debug().Int("anchors", len(anchors)).Msg("no position")
		if t.handlers.OnFail != nil {
			t.handlers.OnFail("not enough anchors or degenerate geometry")
		}
		return
	}
	if t.handlers.OnLocation != nil {
		t.handlers.OnLocation(*loc)
	}
}

// OnDisconnect is a models.DisconnectHandler
func (t *Tracker) OnDisconnect(d models.DisconnectInfo) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.readings, d.Name)
}
