package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
)

const defaultDeliveryTimeout = 10 * time.Second

// Dispatcher is the ResultReceiver wired into the Manager. It prints each
// transcript and hands the outcome to the history repository and webhook in
// the background.
type Dispatcher struct {
	repo    repository.Repository
	webhook webhook.Sender
	metrics *metrics.Metrics
	out     io.Writer
	backend string
	timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(repo repository.Repository, wh webhook.Sender, m *metrics.Metrics, out io.Writer, backend string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Dispatcher{
		repo:    repo,
		webhook: wh,
		metrics: m,
		out:     out,
		backend: backend,
		timeout: timeout,
	}
}

func (d *Dispatcher) OnResult(r transcriber.Result) {
	slog.Info("transcription result", "session_id", r.SessionID, "strategy", r.Strategy, "chars", len(r.Text), "audio", r.Duration)
	if d.out != nil {
		if _, err := fmt.Fprintln(d.out, r.Text); err != nil {
			slog.Warn("failed to print transcript", "error", err, "session_id", r.SessionID)
		}
	}
	d.deliver(utteranceFromResult(d.backend, r))
}

func (d *Dispatcher) OnNoSpeech(e transcriber.NoSpeech) {
	slog.Info("no speech detected", "session_id", e.SessionID, "strategy", e.Strategy, "samples", e.Samples)
	d.deliver(utteranceFromNoSpeech(d.backend, e))
}

func (d *Dispatcher) OnError(err error) {
	slog.Error("transcription failed", "error", err)
	if u, ok := utteranceFromError(d.backend, err); ok {
		d.deliver(u)
	}
}

func (d *Dispatcher) deliver(u repository.InsertUtteranceInput) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if d.repo != nil {
			if err := d.repo.InsertUtterance(ctx, u); err != nil {
				d.metrics.RecordDispatchFailure("repository")
				slog.Error("failed to store utterance", "error", err, "utterance_id", u.ID, "session_id", u.SessionID)
			}
		}
		if d.webhook != nil {
			if err := d.webhook.SendTranscript(ctx, buildTranscriptWebhookPayload(u)); err != nil {
				d.metrics.RecordDispatchFailure("webhook")
				slog.Error("failed to send transcript webhook", "error", err, "utterance_id", u.ID, "session_id", u.SessionID)
			}
		}
	}()
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
