package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.IncAPICall("ItemSearch", "ok")
	m.ObserveAPICall(time.Second)
	m.IncScrapeRequest("request")
	m.ObserveScrape(time.Second)
	m.IncRetries()
	m.IncError("timeout")
	m.IncRow("ok")
	m.IncUnparsedMessage()
	if m.Totals() != nil {
		t.Fatal("expected nil totals for nil metrics")
	}
}

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.IncAPICall("ItemSearch", "ok")
	m.IncAPICall("ItemSearch", "ok")
	m.IncAPICall("ItemLookup", "api_error")
	m.IncRetries()
	m.IncError("gateway")
	m.IncRow("error")
	m.IncUnparsedMessage()

	if got := testutil.ToFloat64(m.APICallsTotal.WithLabelValues("ItemSearch", "ok")); got != 2 {
		t.Errorf("search ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ScrapeRetriesTotal); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("gateway")); got != 1 {
		t.Errorf("gateway errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RowsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error rows = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UnparsedMessages); got != 1 {
		t.Errorf("unparsed = %v, want 1", got)
	}
}

func TestTotalsSumsLabelledSeries(t *testing.T) {
	m := NewMetrics()
	m.IncAPICall("ItemSearch", "ok")
	m.IncAPICall("ItemLookup", "ok")
	m.IncAPICall("ItemLookup", "http_error")
	m.IncRetries()
	m.IncRetries()
	m.ObserveAPICall(200 * time.Millisecond)

	totals := m.Totals()
	if got := totals["enrich_api_calls_total"]; got != 3 {
		t.Errorf("api calls = %v, want 3", got)
	}
	if got := totals["enrich_scrape_retries_total"]; got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
	if _, ok := totals["enrich_api_call_duration_seconds"]; ok {
		t.Error("histograms should not be summed as counters")
	}
}
