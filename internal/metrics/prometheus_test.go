package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordsOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordStarted("streaming")
	m.RecordFinished("streaming", OutcomeResult, 2*time.Second)
	m.RecordSamples(800, 120)
	m.RecordChunk(4096)
	m.RecordBackendCall("http", "chunk", nil, 10*time.Millisecond)
	m.RecordBackendCall("http", "chunk", errors.New("boom"), 10*time.Millisecond)

	if got := testutil.ToFloat64(m.RecordingsStarted.WithLabelValues("streaming")); got != 1 {
		t.Fatalf("expected 1 started recording, got %v", got)
	}
	if got := testutil.ToFloat64(m.SamplesCaptured); got != 800 {
		t.Fatalf("expected 800 samples, got %v", got)
	}
	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues("http", "chunk", "error")); got != 1 {
		t.Fatalf("expected 1 failed backend call, got %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordStarted("batch")
	m.RecordFinished("batch", OutcomeError, time.Second)
	m.RecordSamples(1, 1)
	m.RecordChunk(2)
	m.RecordBackendCall("gemini", "batch", nil, time.Millisecond)
	m.RecordDispatchFailure("webhook")
}
