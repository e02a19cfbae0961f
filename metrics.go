package taskmux

import "github.com/prometheus/client_golang/prometheus"

// PrometheusObserver is an Observer that exports task lifecycle counts.
// Register it with WithObserver:
//
//	obs := taskmux.NewPrometheusObserver(prometheus.DefaultRegisterer)
//	mux := taskmux.NewRegistry[string, []byte](taskmux.WithObserver(obs))
//
// Keys are deliberately not used as label values; task keys are often
// unbounded (URLs, object ids) and would blow up cardinality.
type PrometheusObserver struct {
	started   prometheus.Counter
	coalesced prometheus.Counter
	finished  prometheus.Counter
	cancelled prometheus.Counter
	inflight  prometheus.Gauge
}

// NewPrometheusObserver creates the collectors and registers them with
// reg. It panics if a collector with the same name is already registered,
// so create at most one per registerer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmux",
			Name:      "tasks_started_total",
			Help:      "Tasks whose work function was handed to the runner.",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmux",
			Name:      "requests_coalesced_total",
			Help:      "Requests that attached to an already in-flight task.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmux",
			Name:      "tasks_finished_total",
			Help:      "Tasks that completed and fanned out a result.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmux",
			Name:      "tasks_cancelled_total",
			Help:      "Tasks torn down before delivering a result.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskmux",
			Name:      "tasks_inflight",
			Help:      "Tasks currently live.",
		}),
	}
	reg.MustRegister(o.started, o.coalesced, o.finished, o.cancelled, o.inflight)
	return o
}

func (o *PrometheusObserver) On(d EventData) {
	switch d.Event {
	case EventTaskStarted:
		o.started.Inc()
		o.inflight.Inc()
	case EventCoalesced:
		o.coalesced.Inc()
	case EventTaskFinished:
		o.finished.Inc()
		o.inflight.Dec()
	case EventTaskCancelled:
		o.cancelled.Inc()
		// Tasks cancelled before their work ever ran were never counted
		// as in flight.
		if d.Started {
			o.inflight.Dec()
		}
	}
}
