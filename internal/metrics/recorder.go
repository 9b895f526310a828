// Package metrics counts idle transitions with Prometheus instruments and
// publishes them as a node_exporter textfile, so no listener is needed.
package metrics

import (
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"idlemark/pkg/idle"
)

const namespace = "idlemark"

// Recorder wraps an idle.Handler and records every successful transition
type Recorder struct {
	next     idle.Handler
	registry *prometheus.Registry
	textfile string

	transitions    *prometheus.CounterVec
	idleState      prometheus.Gauge
	lastTransition prometheus.Gauge
}

// NewRecorder creates a recorder around next. An empty textfile path keeps the
// metrics in memory only.
func NewRecorder(next idle.Handler, textfile string) *Recorder {
	r := &Recorder{
		next:     next,
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Idle transitions mirrored to the marker file, by kind.",
		}, []string{"kind"}),
		idleState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "idle",
			Help:      "1 while the marker file reports the user as idle.",
		}),
		lastTransition: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_transition_timestamp_seconds",
			Help:      "Unix time of the last mirrored transition.",
		}),
	}

	r.registry.MustRegister(r.transitions, r.idleState, r.lastTransition)
	// both series exist from the start, so rate() works on the first event
	r.transitions.WithLabelValues(string(idle.KindIdled))
	r.transitions.WithLabelValues(string(idle.KindResumed))

	return r
}

func (r *Recorder) Idled() error {
	if err := r.next.Idled(); err != nil {
		return err
	}
	return r.record(idle.KindIdled, 1)
}

func (r *Recorder) Resumed() error {
	if err := r.next.Resumed(); err != nil {
		return err
	}
	return r.record(idle.KindResumed, 0)
}

func (r *Recorder) record(kind idle.Kind, state float64) error {
	r.transitions.WithLabelValues(string(kind)).Inc()
	r.idleState.Set(state)
	r.lastTransition.Set(float64(time.Now().Unix()))

	// the marker is already written; a textfile failure must not stop the daemon
	if err := r.Flush(); err != nil {
		log.Printf("Failed to write metrics textfile: %v", err)
	}
	return nil
}

// Flush rewrites the textfile, if one is configured
func (r *Recorder) Flush() error {
	if r.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
		return fmt.Errorf("write %s: %w", r.textfile, err)
	}
	return nil
}
