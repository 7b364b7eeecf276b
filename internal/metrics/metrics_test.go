package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.SetBuildInfo("1.0.0")
	m.RecordGenerate(OutcomeSuccess)
	m.RecordGenerate(OutcomeSuccess)
	m.RecordGenerate(OutcomeLoading)
	m.ObserveUpstream("200", 1500*time.Millisecond)

	if v := testutil.ToFloat64(m.generateRequests.WithLabelValues(OutcomeSuccess)); v != 2 {
		t.Fatalf("success count: %v", v)
	}
	if v := testutil.ToFloat64(m.generateRequests.WithLabelValues(OutcomeLoading)); v != 1 {
		t.Fatalf("loading count: %v", v)
	}
	if v := testutil.ToFloat64(m.buildInfo.WithLabelValues("1.0.0")); v != 1 {
		t.Fatalf("build info: %v", v)
	}
	if n := testutil.CollectAndCount(m.upstreamDuration); n != 1 {
		t.Fatalf("upstream duration series: %d", n)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordGenerate(OutcomeTransport)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `hfproxy_generate_requests_total{outcome="transport"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", body)
	}
}
