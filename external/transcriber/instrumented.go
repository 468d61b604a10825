package transcriber

import (
	"context"
	"time"

	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
)

// instrumentedBackend records latency and outcome of every backend call.
type instrumentedBackend struct {
	name    string
	next    transcriber.Backend
	metrics *metrics.Metrics
}

func NewInstrumentedBackend(name string, next transcriber.Backend, m *metrics.Metrics) transcriber.Backend {
	if m == nil {
		return next
	}
	return &instrumentedBackend{name: name, next: next, metrics: m}
}

func (b *instrumentedBackend) observe(op string, start time.Time, err error) {
	b.metrics.RecordBackendCall(b.name, op, err, time.Since(start))
}

func (b *instrumentedBackend) StartSession(ctx context.Context, f transcriber.AudioFormat) (string, error) {
	start := time.Now()
	id, err := b.next.StartSession(ctx, f)
	b.observe("start", start, err)
	return id, err
}

func (b *instrumentedBackend) SendChunk(ctx context.Context, sessionID string, chunk []byte) error {
	start := time.Now()
	err := b.next.SendChunk(ctx, sessionID, chunk)
	b.observe("chunk", start, err)
	return err
}

func (b *instrumentedBackend) StopAndTranscribe(ctx context.Context, sessionID string) (string, error) {
	start := time.Now()
	text, err := b.next.StopAndTranscribe(ctx, sessionID)
	b.observe("stop", start, err)
	return text, err
}

func (b *instrumentedBackend) AbortSession(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := b.next.AbortSession(ctx, sessionID)
	b.observe("abort", start, err)
	return err
}

func (b *instrumentedBackend) TranscribeBatch(ctx context.Context, req transcriber.BatchRequest) (string, error) {
	start := time.Now()
	text, err := b.next.TranscribeBatch(ctx, req)
	b.observe("batch", start, err)
	return text, err
}
