// Package metrics содержит счётчики prometheus для отправок форм и переходов заказа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics собирает счётчики; nil-значение безопасно, вызовы становятся no-op.
type Metrics struct {
	Submissions *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Warehouse   prometheus.Counter
	HTTP        *prometheus.CounterVec
	HTTPLatency *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfg_form_submissions_total",
				Help: "Form submissions by page, form and outcome",
			},
			[]string{"page", "form", "outcome"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfg_order_transitions_total",
				Help: "Order status transitions",
			},
			[]string{"to"},
		),
		Warehouse: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mfg_warehouse_batches_total",
			Help: "Warehouse batches created after inspection",
		}),
		HTTP: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Submissions, m.Transitions, m.Warehouse, m.HTTP, m.HTTPLatency} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Submitted(page, form, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(page, form, outcome).Inc()
}

func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) WarehouseBatch() {
	if m == nil {
		return
	}
	m.Warehouse.Inc()
}

func (m *Metrics) Request(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTP.WithLabelValues(method, path, status).Inc()
	m.HTTPLatency.WithLabelValues(path).Observe(seconds)
}
