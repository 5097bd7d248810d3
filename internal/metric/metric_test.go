package metric

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func exercise(m Metrics) {
	m.IncRequestsTotal()
	m.IncRequestsTotal()
	m.IncRequestsInFlight()
	m.IncRequestsInFlight()
	m.DecRequestsInFlight()
	m.UpdateRequestsDuration("/pages", "GET", time.Now())
	m.IncResponsesTotal("/pages", 200)
	m.IncFailedRequestsTotal(FailReasonActionNotFound)
	m.IncActionsTotal("pages", "index")
	m.IncActionsTotal("pages", "index")
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	exercise(m)

	pm := m.(*prometheusMetrics)

	if v := testutil.ToFloat64(pm.RequestsTotal); v != 2 {
		t.Errorf("requests_total: expected 2, got %v", v)
	}
	if v := testutil.ToFloat64(pm.RequestsInFlight); v != 1 {
		t.Errorf("requests_in_flight: expected 1, got %v", v)
	}
	if v := testutil.ToFloat64(pm.ResponsesTotal.WithLabelValues("/pages", "200")); v != 1 {
		t.Errorf("responses_total: expected 1, got %v", v)
	}
	if v := testutil.ToFloat64(pm.FailedRequestsTotal.WithLabelValues(string(FailReasonActionNotFound))); v != 1 {
		t.Errorf("failed_requests_total: expected 1, got %v", v)
	}
	if v := testutil.ToFloat64(pm.ActionsTotal.WithLabelValues("pages", "index")); v != 2 {
		t.Errorf("actions_total: expected 2, got %v", v)
	}
	if n := testutil.CollectAndCount(pm.RequestsDuration); n != 1 {
		t.Errorf("requests_duration: expected 1 series, got %d", n)
	}
}

func TestPrometheus_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second registration")
		}
	}()

	NewPrometheus(reg)
}

func TestVictoria(t *testing.T) {
	set := metrics.NewSet()
	exercise(NewVictoria(set))

	if v := set.GetOrCreateCounter("vesta_requests_total").Get(); v != 2 {
		t.Errorf("requests_total: expected 2, got %d", v)
	}
	if v := set.GetOrCreateCounter("vesta_requests_in_flight").Get(); v != 1 {
		t.Errorf("requests_in_flight: expected 1, got %d", v)
	}
	if v := set.GetOrCreateCounter(`vesta_actions_total{controller="pages",action="index"}`).Get(); v != 2 {
		t.Errorf("actions_total: expected 2, got %d", v)
	}

	var buf bytes.Buffer
	set.WritePrometheus(&buf)

	for _, want := range []string{
		`vesta_responses_total{route="/pages",status="200"} 1`,
		`vesta_failed_requests_total{reason="action_not_found"} 1`,
		`vesta_requests_duration_seconds_count{route="/pages",method="GET"} 1`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf.String())
		}
	}
}

func TestNop(t *testing.T) {
	exercise(NewNop())
}
