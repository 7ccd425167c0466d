// Package metrics exposes Prometheus metrics for the provisioning daemon.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can be built without metrics in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wifiprov"

// Metrics holds every collector the daemon records to.
type Metrics struct {
	registry *prometheus.Registry

	scansTotal          *prometheus.CounterVec
	scanNetworks        prometheus.Histogram
	scanTruncatedTotal  prometheus.Counter
	joinAttemptsTotal   prometheus.Counter
	disconnectsTotal    *prometheus.CounterVec
	transitionsTotal    *prometheus.CounterVec
	connectionState     *prometheus.GaugeVec
	credentialsRejected *prometheus.CounterVec
	handoffTotal        *prometheus.CounterVec
	busConnected        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "total",
			Help:      "Scans performed, by result",
		}, []string{"result"}),
		scanNetworks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "networks_found",
			Help:      "Networks reported by the driver per scan, before truncation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40},
		}),
		scanTruncatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "truncated_total",
			Help:      "Scans whose result list was cut to capacity",
		}),
		joinAttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "station",
			Name:      "join_attempts_total",
			Help:      "Join requests issued to the radio",
		}),
		disconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "station",
			Name:      "disconnects_total",
			Help:      "Station disconnect events, by driver reason code",
		}, []string{"reason"}),
		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "station",
			Name:      "state_transitions_total",
			Help:      "Connection state transitions",
		}, []string{"from", "to"}),
		connectionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "station",
			Name:      "state",
			Help:      "1 for the current connection state, 0 otherwise",
		}, []string{"state"}),
		credentialsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "credentials_rejected_total",
			Help:      "Credential submissions rejected before reaching the radio",
		}, []string{"reason"}),
		handoffTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "handoff_total",
			Help:      "Message bus start attempts after connectivity, by result",
		}, []string{"result"}),
		busConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "up",
			Help:      "Connection with the MQTT broker",
		}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "http_requests_total",
			Help:      "Portal HTTP requests, by path and status code",
		}, []string{"path", "code"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
