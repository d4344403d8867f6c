package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/studymate/internal/core/domain"
)

type actionCollectors struct {
	service  string
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newActionCollectors(service string) *actionCollectors {
	return &actionCollectors{
		service: service,
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "action",
				Name:      "total",
				Help:      "Dispatched operations by terminal stage.",
			},
			[]string{"service", "operation", "stage"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "action",
				Name:      "duration_seconds",
				Help:      "Operation duration from validation to terminal stage.",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"service", "operation"},
		),
	}
}

func (c *actionCollectors) register(registry *prometheus.Registry) {
	registry.MustRegister(c.total, c.duration)
}

func (c *actionCollectors) observe(kind domain.OperationKind, stage domain.Stage, duration time.Duration) {
	operation := string(kind)
	if _, known := domain.ParseOperationKind(operation); !known {
		operation = "unknown"
	}
	c.total.WithLabelValues(c.service, operation, string(stage)).Inc()
	c.duration.WithLabelValues(c.service, operation).Observe(duration.Seconds())
}
