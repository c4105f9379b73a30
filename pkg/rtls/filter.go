package rtls

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultLowPassAlpha  = 0.2
	DefaultAverageWindow = 10
)

// ErrUnknownFilter is returned by ParseFilter
var ErrUnknownFilter = errors.New("unknown filter")

// Filter smooths a stream of locations
type Filter interface {
	Filter(Location) Location
}

// FilterType names a Filter
type FilterType string

const (
	None          FilterType = "none"
	LowPass       FilterType = "lowpass"
	MovingAverage FilterType = "average"
)

// ParseFilter reads a filter name, case insensitively
func ParseFilter(s string) (FilterType, error) {
	switch t := FilterType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", None:
		return None, nil
	case LowPass, MovingAverage:
		return t, nil
	}
	return None, errors.Wrap(ErrUnknownFilter, s)
}

// NewFilter returns a fresh filter of type t
func NewFilter(t FilterType) Filter {
	switch t {
	case LowPass:
		return &lowPass{alpha: DefaultLowPassAlpha}
	case MovingAverage:
		return &movingAverage{window: DefaultAverageWindow}
	}
	return passThrough{}
}

type passThrough struct{}

func (passThrough) Filter(l Location) Location { return l }

type lowPass struct {
	alpha  float64
	primed bool
	x, y   float64
}

func (f *lowPass) Filter(l Location) Location {
	if !f.primed {
		f.x, f.y, f.primed = l.X, l.Y, true
	} else {
		f.x += f.alpha * (l.X - f.x)
		f.y += f.alpha * (l.Y - f.y)
	}
	return Location{X: f.x, Y: f.y, Z: l.Z}
}

type movingAverage struct {
	window int
	xs, ys []float64
}

func (f *movingAverage) Filter(l Location) Location {
	f.xs = append(f.xs, l.X)
	f.ys = append(f.ys, l.Y)
	if len(f.xs) > f.window {
		f.xs = f.xs[1:]
		f.ys = f.ys[1:]
	}
	return Location{X: mean(f.xs), Y: mean(f.ys), Z: l.Z}
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
