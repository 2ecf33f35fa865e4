package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feudlive"

// Recorder collects game server metrics on its own Prometheus registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	commands   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	effects    *prometheus.CounterVec
	sessions   prometheus.Gauge
	swept      prometheus.Counter
	conns      *prometheus.GaugeVec
}

// NewRecorder registers every collector on a fresh registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by type.",
		}, []string{"type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Commands rejected, by reason.",
		}, []string{"reason"}),
		effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delayed_effects_total",
			Help:      "Delayed effects fired, by name and whether they applied or were stale.",
		}, []string{"effect", "outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_sessions_total",
			Help:      "Sessions removed by the age sweep.",
		}),
		conns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open websocket connections, by role.",
		}, []string{"role"}),
	}
	r.registry.MustRegister(r.commands, r.rejections, r.effects, r.sessions, r.swept, r.conns)
	return r
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordCommand counts one handled command
func (r *Recorder) RecordCommand(cmdType string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(cmdType).Inc()
}

// RecordRejection counts one rejected command
func (r *Recorder) RecordRejection(reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(reason).Inc()
}

// RecordEffect counts a delayed effect firing
func (r *Recorder) RecordEffect(effect string, applied bool) {
	if r == nil {
		return
	}
	outcome := "stale"
	if applied {
		outcome = "applied"
	}
	r.effects.WithLabelValues(effect, outcome).Inc()
}

// SetSessions reports the live session count
func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

// RecordSwept counts sessions removed by the sweeper
func (r *Recorder) RecordSwept(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.swept.Add(float64(n))
}

// ConnectionOpened tracks a new websocket connection
func (r *Recorder) ConnectionOpened(role string) {
	if r == nil {
		return
	}
	r.conns.WithLabelValues(role).Inc()
}

// ConnectionClosed tracks a closed websocket connection
func (r *Recorder) ConnectionClosed(role string) {
	if r == nil {
		return
	}
	r.conns.WithLabelValues(role).Dec()
}
