package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/invoices":                 "/v1/invoices",
		"/v1/invoices/":                "/v1/invoices/",
		"/v1/invoices/abc-123":         "/v1/invoices/{invoice_id}",
		"/v1/invoices/abc/corrections": "/v1/invoices/{invoice_id}/corrections",
		"/v1/exports/invoices.xlsx":    "/v1/exports/invoices.xlsx",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareCountsByNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/invoices/"+id, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/invoices/{invoice_id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
}

func TestExtractionMetricsDefaultLabels(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.Extraction().RecordFieldExtraction("invoice_number", true)
	m.Extraction().RecordCorrectionDecision("", "")

	if got := testutil.ToFloat64(m.extraction.fieldsTotal.WithLabelValues("api", "invoice_number", "true")); got != 1 {
		t.Fatalf("unexpected field counter %v", got)
	}
	if got := testutil.ToFloat64(m.extraction.decisionsTotal.WithLabelValues("api", "unknown", "unknown")); got != 1 {
		t.Fatalf("unexpected decision counter %v", got)
	}
}

func TestWorkerMetricsExposeProcessCounters(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartInvoice()
	m.FinishInvoice(20*time.Millisecond, errors.New("boom"))
	m.StartInvoice()
	m.FinishInvoice(time.Millisecond, domain.WrapError(domain.ErrUnsupportedFormat, "extract", errors.New("tiff")))
	m.ObserveQueueLag(-time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`invoice_worker_invoice_process_total{service="worker",status="internal"} 1`,
		`invoice_worker_invoice_process_total{service="worker",status="unsupported_format"} 1`,
		`invoice_worker_invoice_process_in_flight{service="worker"} 0`,
		`invoice_worker_queue_lag_seconds_count{service="worker"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in:\n%s", want, body)
		}
	}
}
