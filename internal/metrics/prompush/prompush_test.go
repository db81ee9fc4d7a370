package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"bsv/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend("x", ""); err == nil || b != nil {
		t.Fatalf("NewBackend without URL = %v, %v; want nil, error", b, err)
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "bsv" {
		t.Fatalf("jobName = %q; want bsv", b.jobName)
	}
}

/*
IncCounter routes each metric name to its collector and ignores unknown names.
*/
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("bsv", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "bschema", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"kind": "filtered"})
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "filtered"})
	b.IncCounter(metrics.ChunksTotal, 2, metrics.Labels{"dir": "in"})
	b.IncCounter("unknown", 5, metrics.Labels{"kind": "filtered"})

	if got := counterValue(t, b.stepCounter.WithLabelValues("bschema", "success")); got != 1 {
		t.Fatalf("step counter = %v; want 1", got)
	}
	if got := counterValue(t, b.rowCounter.WithLabelValues("filtered")); got != 10 {
		t.Fatalf("row counter = %v; want 10", got)
	}
	if got := counterValue(t, b.chunkCounter.WithLabelValues("in")); got != 2 {
		t.Fatalf("chunk counter = %v; want 2", got)
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{})
	b.IncCounter(metrics.ChunksTotal, 1, metrics.Labels{})
	b.ObserveHistogram(metrics.StepDuration, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("bsv", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"step": "bsort", "status": "success"}
	b.ObserveHistogram(metrics.StepDuration, 1.5, lbls)
	b.ObserveHistogram("other", 9, lbls)

	m := &dto.Metric{}
	if err := b.stepDuration.WithLabelValues("bsort", "success").(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s := m.GetSummary(); s.GetSampleCount() != 1 || s.GetSampleSum() != 1.5 {
		t.Fatalf("summary count=%d sum=%v; want 1, 1.5", s.GetSampleCount(), s.GetSampleSum())
	}
}

/*
Flush issues one push to the gateway under the job's grouping path.
*/
func TestFlush(t *testing.T) {
	t.Parallel()

	type req struct {
		method, path string
		body         int
	}
	reqs := make(chan req, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs <- req{r.Method, r.URL.Path, len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "processed"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-reqs:
		if got.method != http.MethodPut {
			t.Fatalf("method = %s; want PUT", got.method)
		}
		if !strings.Contains(got.path, "/job/nightly") {
			t.Fatalf("path = %q; want job grouping", got.path)
		}
		if got.body == 0 {
			t.Fatal("empty push body")
		}
	default:
		t.Fatal("Flush did not reach the gateway")
	}
}
