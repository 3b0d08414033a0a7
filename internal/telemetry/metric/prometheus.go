package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/zkmesh-go/internal/infra/buildinfo"
)

const namespace = "zkmesh"

// clientStates lists the values of the state label.
var clientStates = []string{"running", "paused", "close_requested", "closed"}

// Registry holds the zkmesh metrics.
type Registry struct {
	reg *prometheus.Registry

	ClientState    *prometheus.GaugeVec
	Reconnects     prometheus.Counter
	SessionEvents  *prometheus.CounterVec
	CallbackPanics prometheus.Counter
	BufferedTasks  prometheus.Gauge
}

// NewRegistry creates a registry with the zkmesh metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ClientState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "client_state",
			Help:      "Current client lifecycle state; 1 for the active state, 0 otherwise.",
		}, []string{"state"}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Automatic reopens triggered by session invalidation.",
		}),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events received from the ensemble, by state.",
		}, []string{"state"}),
		CallbackPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_panics_total",
			Help:      "Panics recovered from callbacks on the pool.",
		}),
		BufferedTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_buffered_tasks",
			Help:      "Callbacks queued and not yet handed to a worker.",
		}),
	}

	r.reg.MustRegister(
		r.ClientState,
		r.Reconnects,
		r.SessionEvents,
		r.CallbackPanics,
		r.BufferedTasks,
		buildInfoGauge(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the HTTP handler serving the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// SetClientState marks state as the active client state.
func (r *Registry) SetClientState(state string) {
	for _, s := range clientStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.ClientState.WithLabelValues(s).Set(v)
	}
}

// IncReconnects counts an automatic reopen.
func (r *Registry) IncReconnects() {
	r.Reconnects.Inc()
}

// IncSessionEvent counts a session event.
func (r *Registry) IncSessionEvent(state string) {
	r.SessionEvents.WithLabelValues(state).Inc()
}

// IncCallbackPanics counts a recovered callback panic.
func (r *Registry) IncCallbackPanics() {
	r.CallbackPanics.Inc()
}

// SetBufferedTasks records the pool queue length.
func (r *Registry) SetBufferedTasks(n int) {
	r.BufferedTasks.Set(float64(n))
}

func buildInfoGauge() prometheus.Collector {
	info := buildinfo.Get()
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information; always 1.",
		ConstLabels: prometheus.Labels{
			"version":    info.Version,
			"commit":     info.Commit,
			"go_version": info.GoVersion,
			"zk_version": info.ZKVersion,
		},
	})
	g.Set(1)
	return g
}
