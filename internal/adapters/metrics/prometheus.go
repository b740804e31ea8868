// Package metrics implements ports.DispatchMetrics.
package metrics

import (
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics records engine observations as Prometheus series.
// Collectors are registered lazily on first use.
type PrometheusMetrics struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	assignments       *prometheus.CounterVec
	assignmentLatency prometheus.Histogram
	transitions       *prometheus.CounterVec
	batchRoutes       *prometheus.GaugeVec
}

var _ ports.DispatchMetrics = (*PrometheusMetrics)(nil)

// NewPrometheus uses prometheus.DefaultRegisterer when reg is nil and
// "dispatch" when namespace is empty.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "dispatch"
	}
	return &PrometheusMetrics{reg: reg, namespace: namespace}
}

func (p *PrometheusMetrics) ensureRegistered() {
	p.once.Do(func() {
		p.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "attempts_total",
			Help:      "Route assignment attempts by outcome.",
		}, []string{"outcome"})

		p.assignmentLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "duration_seconds",
			Help:      "Time spent assigning one route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		})

		p.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "route",
			Name:      "transitions_total",
			Help:      "Committed route status transitions.",
		}, []string{"from", "to"})

		p.batchRoutes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "batch",
			Name:      "last_run_routes",
			Help:      "Routes placed and not placed by the most recent batch run.",
		}, []string{"result"})

		p.reg.MustRegister(p.assignments, p.assignmentLatency, p.transitions, p.batchRoutes)
	})
}

func (p *PrometheusMetrics) ObserveAssignment(outcome string, dur time.Duration) {
	p.ensureRegistered()
	p.assignments.WithLabelValues(outcome).Inc()
	p.assignmentLatency.Observe(dur.Seconds())
}

func (p *PrometheusMetrics) ObserveTransition(from, to domain.RouteStatus) {
	p.ensureRegistered()
	p.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (p *PrometheusMetrics) ObserveBatch(succeeded, failed int) {
	p.ensureRegistered()
	p.batchRoutes.WithLabelValues("succeeded").Set(float64(succeeded))
	p.batchRoutes.WithLabelValues("failed").Set(float64(failed))
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveAssignment(string, time.Duration)                  {}
func (Nop) ObserveTransition(domain.RouteStatus, domain.RouteStatus) {}
func (Nop) ObserveBatch(int, int)                                    {}
