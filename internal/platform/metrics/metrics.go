package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pet_clinic"

// Metrics agrupa los collectors de la API. Cada instancia tiene su propio
// registry para que varios routers (tests) no choquen al registrar.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	transitions     *prometheus.CounterVec
	conflicts       prometheus.Counter
	integrityBlocks *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),

		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment state machine events by result.",
		}, []string{"event", "result"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "conflicts_total",
			Help:      "Scheduling attempts rejected by the conflict window.",
		}),
		integrityBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "integrity",
			Name:      "blocked_deletes_total",
			Help:      "Deletes rejected because of dependent records.",
		}, []string{"entity"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.transitions,
		m.conflicts,
		m.integrityBlocks,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest registra un request terminado. route es el patrón de chi
// (p.ej. /appointments/{id}) para no explotar cardinalidad con ids.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) InFlightInc() { m.httpInFlight.Inc() }
func (m *Metrics) InFlightDec() { m.httpInFlight.Dec() }

func (m *Metrics) Transition(event string, ok bool) {
	result := "rejected"
	if ok {
		result = "applied"
	}
	m.transitions.WithLabelValues(event, result).Inc()
}

func (m *Metrics) Conflict() { m.conflicts.Inc() }

func (m *Metrics) IntegrityBlocked(entity string) {
	m.integrityBlocks.WithLabelValues(entity).Inc()
}
