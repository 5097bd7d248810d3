package metric

import (
	"fmt"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// victoriaMetrics writes to a VictoriaMetrics set. Labelled series are created lazily,
// GetOrCreate is safe for concurrent use.
type victoriaMetrics struct {
	set              *metrics.Set
	requestsTotal    *metrics.Counter
	requestsInFlight *metrics.Counter
}

func NewVictoria(set *metrics.Set) Metrics {
	return &victoriaMetrics{
		set:              set,
		requestsTotal:    set.GetOrCreateCounter("vesta_requests_total"),
		requestsInFlight: set.GetOrCreateCounter("vesta_requests_in_flight"),
	}
}

func (m *victoriaMetrics) IncRequestsTotal() {
	m.requestsTotal.Inc()
}

func (m *victoriaMetrics) IncRequestsInFlight() {
	m.requestsInFlight.Inc()
}

func (m *victoriaMetrics) DecRequestsInFlight() {
	m.requestsInFlight.Dec()
}

func (m *victoriaMetrics) UpdateRequestsDuration(route, method string, start time.Time) {
	name := fmt.Sprintf(`vesta_requests_duration_seconds{route=%q,method=%q}`, route, method)
	m.set.GetOrCreateSummary(name).UpdateDuration(start)
}

func (m *victoriaMetrics) IncResponsesTotal(route string, status int) {
	name := fmt.Sprintf(`vesta_responses_total{route=%q,status=%q}`, route, strconv.Itoa(status))
	m.set.GetOrCreateCounter(name).Inc()
}

func (m *victoriaMetrics) IncFailedRequestsTotal(reason FailReason) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`vesta_failed_requests_total{reason=%q}`, reason)).Inc()
}

func (m *victoriaMetrics) IncActionsTotal(controller, action string) {
	name := fmt.Sprintf(`vesta_actions_total{controller=%q,action=%q}`, controller, action)
	m.set.GetOrCreateCounter(name).Inc()
}
