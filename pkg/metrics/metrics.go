// Package metrics exposes prometheus collectors for the orchestrator.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uwb"

// Admission outcomes
const (
	Admitted = "admitted"
	Known    = "known"
	Cooling  = "cooling"
	Full     = "full"
)

// Metrics holds the orchestrator collectors
type Metrics struct {
	gatherer prom.Gatherer

	Accessories *prom.GaugeVec
	Admissions  *prom.CounterVec
	Samples     *prom.CounterVec
	Disconnects *prom.CounterVec
	Frames      *prom.CounterVec
	Distance    prom.Histogram
}

// New registers the collectors with reg. A nil reg gets a fresh registry
// carrying the Go and process collectors.
func New(reg prom.Registerer) *Metrics {
	if reg == nil {
		r := prom.NewRegistry()
		r.MustRegister(collectors.NewGoCollector())
		r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg = r
	}
	f := promauto.With(reg)
	m := &Metrics{
		Accessories: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "accessories",
			Help:      "Accessories currently in the registry (Gauge). state=connecting|connected.",
		}, []string{"state"}),
		Admissions: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Discovered accessories by admission outcome (Counter). outcome=admitted|known|cooling|full.",
		}, []string{"outcome"}),
		Samples: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ranging_samples_total",
			Help:      "Ranging samples by proximity band (Counter).",
		}, []string{"band"}),
		Disconnects: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Accessories torn down by reason (Counter).",
		}, []string{"reason"}),
		Frames: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "oob_frames_total",
			Help:      "OOB frames by direction and message (Counter). direction=rx|tx.",
		}, []string{"direction", "message"}),
		Distance: f.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "ranging_distance_meters",
			Help:      "Measured accessory distance in meters (Histogram).",
			Buckets:   []float64{0.25, 0.5, 1, 1.5, 2, 3, 5, 8, 12, 20},
		}),
	}
	if g, ok := reg.(prom.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// SetAccessories records the registry sizes
func (m *Metrics) SetAccessories(connecting, connected int) {
	if m == nil {
		return
	}
	m.Accessories.WithLabelValues("connecting").Set(float64(connecting))
	m.Accessories.WithLabelValues("connected").Set(float64(connected))
}

// Admission counts one admission decision
func (m *Metrics) Admission(outcome string) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(outcome).Inc()
}

// Sample counts one ranging sample
func (m *Metrics) Sample(band string, distance float64) {
	if m == nil {
		return
	}
	m.Samples.WithLabelValues(band).Inc()
	m.Distance.Observe(distance)
}

// Disconnect counts one teardown
func (m *Metrics) Disconnect(reason string) {
	if m == nil {
		return
	}
	m.Disconnects.WithLabelValues(reason).Inc()
}

// Frame counts one OOB frame, direction is "rx" or "tx"
func (m *Metrics) Frame(direction, message string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(direction, message).Inc()
}

// Handler serves the registry the collectors were registered with,
// or the default gatherer when that registry cannot be gathered
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
