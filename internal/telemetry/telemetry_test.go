// Package telemetry tests verify metric recording and exposition.
package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestNilMetrics verifies a nil *Metrics records nothing and does not panic.
func TestNilMetrics(t *testing.T) {
	var m *Metrics

	m.RecordHTTPRequest("/api/health", http.MethodGet, 200, time.Millisecond)
	m.RecordGeneration("gemini", "success", time.Second)
	m.RecordCoercion("parsed_json")
	m.RecordStoreOperation("memory", "get_project", nil)
	m.RecordCommitFetch("github", errors.New("boom"))

	if m.Registry() != nil {
		t.Error("Registry() of nil metrics should be nil")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil Handler() status = %d, want 404", rec.Code)
	}
}

// TestNew_independentRegistries verifies two instances can coexist.
func TestNew_independentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.RecordCoercion("raw_fallback")

	if got := testutil.ToFloat64(a.CoercionsTotal.WithLabelValues("raw_fallback")); got != 1 {
		t.Errorf("a coercions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.CoercionsTotal.WithLabelValues("raw_fallback")); got != 0 {
		t.Errorf("b coercions = %v, want 0", got)
	}
}

// TestRecordStoreOperation verifies success and error are labelled.
func TestRecordStoreOperation(t *testing.T) {
	m := New()

	m.RecordStoreOperation("sqlite", "add_project", nil)
	m.RecordStoreOperation("sqlite", "add_project", nil)
	m.RecordStoreOperation("sqlite", "add_project", errors.New("locked"))

	if got := testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("sqlite", "add_project", "success")); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("sqlite", "add_project", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

// TestHandler verifies recorded metrics appear in the exposition output.
func TestHandler(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("/api/projects", http.MethodPost, 201, 20*time.Millisecond)
	m.RecordGeneration("gemini", "GENERATION_FAILED", 2*time.Second)
	m.RecordCommitFetch("git", nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`changelogai_http_requests_total{method="POST",route="/api/projects",status="201"} 1`,
		`changelogai_generations_total{outcome="GENERATION_FAILED",provider="gemini"} 1`,
		`changelogai_commit_fetches_total{source="git",status="success"} 1`,
		`changelogai_http_request_duration_seconds_bucket`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
