package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncTransition("approve_result", "Report Generated")
	m.IncStoreConflict("test_request.update")
	m.IncRender("ror", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil handler status: got %d", rec.Code)
	}
}

func TestCountersAndExposition(t *testing.T) {
	m := NewMetrics()
	m.IncStoreConflict("test_request.update")
	m.IncStoreConflict("test_request.update")
	m.IncMail("report", errors.New("smtp down"))
	m.ObserveAPI("POST", "/api/test-requests", "201", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.storeConflicts.WithLabelValues("test_request.update")); got != 2 {
		t.Fatalf("conflicts: got %v", got)
	}
	if got := testutil.ToFloat64(m.mails.WithLabelValues("report", "failure")); got != 1 {
		t.Fatalf("mail failures: got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "labflow_api_requests_total") {
		t.Fatalf("exposition missing api counter")
	}
}
