package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/units"
)

// Recorder exports step and collision timings. A nil Recorder records nothing.
type Recorder struct {
	steps             prometheus.Counter
	stepDuration      prometheus.Histogram
	collisionDuration *prometheus.HistogramVec
	temperature       prometheus.Gauge
	scaleTemperature  prometheus.Gauge
}

// NewRecorder registers the simulation metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "bbnsim_steps_total",
			Help: "Completed integration steps.",
		}),
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bbnsim_step_duration_seconds",
			Help:    "Wall time of one integration step.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		collisionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bbnsim_collision_duration_seconds",
			Help:    "Wall time of one species' collision integral.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"particle"}),
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "bbnsim_temperature_mev",
			Help: "Plasma temperature.",
		}),
		scaleTemperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "bbnsim_scale_temperature_mev",
			Help: "Comoving temperature aT.",
		}),
	}
}

// ObserveStep records one completed step.
func (r *Recorder) ObserveStep(d time.Duration, p *cosmo.Params) {
	if r == nil {
		return
	}
	r.steps.Inc()
	r.stepDuration.Observe(d.Seconds())
	r.temperature.Set(p.T / units.MeV)
	r.scaleTemperature.Set(p.AT / units.MeV)
}

// ObserveCollision records the time spent on one species' collision integral.
func (r *Recorder) ObserveCollision(particle string, d time.Duration) {
	if r == nil {
		return
	}
	r.collisionDuration.WithLabelValues(particle).Observe(d.Seconds())
}
