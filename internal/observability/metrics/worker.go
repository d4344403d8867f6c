package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/studymate/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	messagesTotal    *prometheus.CounterVec
	messagesInFlight prometheus.Gauge
	actions          *actionCollectors
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	messagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_total",
			Help:      "Action request messages handled by outcome.",
		},
		[]string{"service", "outcome"},
	)
	messagesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_in_flight",
			Help:      "Number of action request messages being handled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	actions := newActionCollectors(service)

	registry.MustRegister(messagesTotal, messagesInFlight)
	actions.register(registry)

	return &WorkerMetrics{
		registry:         registry,
		service:          service,
		messagesTotal:    messagesTotal,
		messagesInFlight: messagesInFlight,
		actions:          actions,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartMessage() {
	m.messagesInFlight.Inc()
}

// FinishMessage records one handled message; outcome is "replied", "decode_error" or "reply_error".
func (m *WorkerMetrics) FinishMessage(outcome string) {
	m.messagesInFlight.Dec()
	m.messagesTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *WorkerMetrics) ObserveAction(kind domain.OperationKind, stage domain.Stage, duration time.Duration) {
	m.actions.observe(kind, stage, duration)
}
