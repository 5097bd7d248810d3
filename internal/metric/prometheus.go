package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type prometheusMetrics struct {
	RequestsTotal       prometheus.Counter
	RequestsDuration    *prometheus.HistogramVec
	ResponsesTotal      *prometheus.CounterVec
	RequestsInFlight    prometheus.Gauge
	FailedRequestsTotal *prometheus.CounterVec
	ActionsTotal        *prometheus.CounterVec
}

// NewPrometheus registers the vesta collectors with reg.
func NewPrometheus(reg prometheus.Registerer) Metrics {
	m := &prometheusMetrics{
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vesta_requests_total",
			Help: "HTTP requests received by the router, including unmatched ones",
		}),
		FailedRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vesta_failed_requests_total",
				Help: "Requests answered with an error, by failure reason",
			},
			[]string{"reason"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vesta_requests_duration_seconds",
				Help:    "Time spent performing an action, by route pattern and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		ResponsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vesta_responses_total",
				Help: "Responses written by actions, by route pattern and status code",
			},
			[]string{"route", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vesta_requests_in_flight",
			Help: "Requests currently being served by the router",
		}),
		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vesta_actions_total",
				Help: "Actions invoked by the dispatcher, by controller and action name",
			},
			[]string{"controller", "action"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestsDuration,
		m.ResponsesTotal,
		m.RequestsInFlight,
		m.FailedRequestsTotal,
		m.ActionsTotal,
	)

	return m
}

func (m *prometheusMetrics) IncRequestsTotal() {
	m.RequestsTotal.Inc()
}

func (m *prometheusMetrics) UpdateRequestsDuration(route, method string, start time.Time) {
	m.RequestsDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}

func (m *prometheusMetrics) IncResponsesTotal(route string, status int) {
	m.ResponsesTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *prometheusMetrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *prometheusMetrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}

func (m *prometheusMetrics) IncFailedRequestsTotal(reason FailReason) {
	m.FailedRequestsTotal.WithLabelValues(string(reason)).Inc()
}

func (m *prometheusMetrics) IncActionsTotal(controller, action string) {
	m.ActionsTotal.WithLabelValues(controller, action).Inc()
}
