// Package debug is the localhost observability server for the particle
// demo: Prometheus metrics, pprof, a JSON stats API, live playback and
// tuning controls, and a websocket feed of per-frame stats.
package debug

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fxcore/internal/particles"
)

// Metrics with bounded cardinality (the only label is the particle group)
var (
	particlesLive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fx_particles_live",
		Help: "Live particles per group",
	}, []string{"group"})

	particlesFree = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fx_particles_free",
		Help: "Free particle slots",
	})

	particlesCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fx_particles_capacity",
		Help: "Particle arena size",
	})

	insertsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_inserts_dropped_total",
		Help: "Inserts dropped because every slot was in use",
	})

	explosionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_explosions_dropped_total",
		Help: "Explosions dropped because the per-frame buffer was full",
	})

	passesAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_update_aborted_total",
		Help: "Update passes cut short by an unlaunched projectile",
	})

	updateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fx_update_duration_seconds",
		Help:    "Time spent in one particle update pass",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
	})

	frameTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fx_frame_time_seconds",
		Help:    "Simulated seconds advanced per frame",
		Buckets: []float64{0, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.5, 2},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fx_render_duration_seconds",
		Help:    "Time spent rendering a frame",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_debug_rejected_total",
		Help: "Debug server requests rejected",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fx_debug_request_duration_seconds",
		Help:    "Debug server request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fx_debug_ws_connections_active",
		Help: "Connected stats dashboards",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_debug_ws_messages_total",
		Help: "Stats messages broadcast",
	})
)

// Recorder turns the cumulative counters in particles.Stats into Prometheus
// counter increments. One Recorder per System.
type Recorder struct {
	mu   sync.Mutex
	last particles.Stats
}

// NewRecorder creates a recorder with no history.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordFrame publishes one frame's stats. Frames that did not run an
// update (paused demo) only refresh the gauges.
func (r *Recorder) RecordFrame(s particles.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for g := particles.Group(0); g < particles.NumGroups; g++ {
		particlesLive.WithLabelValues(g.String()).Set(float64(s.Live[g]))
	}
	particlesFree.Set(float64(s.Free))
	particlesCapacity.Set(float64(s.Capacity))

	insertsDropped.Add(float64(delta(s.DroppedInserts, r.last.DroppedInserts)))
	explosionsDropped.Add(float64(delta(s.DroppedExplosions, r.last.DroppedExplosions)))
	passesAborted.Add(float64(delta(s.AbortedPasses, r.last.AbortedPasses)))

	if s.Frame != r.last.Frame {
		updateDuration.Observe(s.LastUpdate.Seconds())
		frameTime.Observe(s.LastTimePassed)
	}
	r.last = s
}

// delta is cur-prev, or cur when the source counter went backwards
// (a new System).
func delta(cur, prev uint64) uint64 {
	if cur < prev {
		return cur
	}
	return cur - prev
}

// RecordRender records render timing.
func RecordRender(d time.Duration) {
	renderDuration.Observe(d.Seconds())
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// metricsMiddleware records request latency by chi route pattern.
func metricsMiddleware(pattern func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			requestLatency.WithLabelValues(r.Method, pattern(r)).Observe(time.Since(start).Seconds())
		})
	}
}
