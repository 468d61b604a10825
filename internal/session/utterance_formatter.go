package session

import (
	"errors"
	"time"

	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
	"github.com/google/uuid"
)

func utteranceFromResult(backend string, r transcriber.Result) repository.InsertUtteranceInput {
	return repository.InsertUtteranceInput{
		ID:             uuid.NewString(),
		SessionID:      r.SessionID,
		Strategy:       r.Strategy,
		Backend:        backend,
		Status:         repository.UtteranceStatusTranscribed,
		Text:           r.Text,
		SampleCount:    r.Samples,
		DurationMillis: r.Duration.Milliseconds(),
		StartedAt:      r.StartedAt,
		EndedAt:        r.FinishedAt,
	}
}

func utteranceFromNoSpeech(backend string, e transcriber.NoSpeech) repository.InsertUtteranceInput {
	return repository.InsertUtteranceInput{
		ID:             uuid.NewString(),
		SessionID:      e.SessionID,
		Strategy:       e.Strategy,
		Backend:        backend,
		Status:         repository.UtteranceStatusNoSpeech,
		SampleCount:    e.Samples,
		DurationMillis: e.Duration.Milliseconds(),
		StartedAt:      e.StartedAt,
		EndedAt:        e.FinishedAt,
	}
}

// utteranceFromError returns false for errors that did not come from a
// recording, which carry nothing worth storing.
func utteranceFromError(backend string, err error) (repository.InsertUtteranceInput, bool) {
	var failure *Error
	if !errors.As(err, &failure) {
		return repository.InsertUtteranceInput{}, false
	}
	return repository.InsertUtteranceInput{
		ID:           uuid.NewString(),
		SessionID:    failure.SessionID,
		Strategy:     failure.Strategy,
		Backend:      backend,
		Status:       repository.UtteranceStatusFailed,
		ErrorMessage: failure.Err.Error(),
		SampleCount:  failure.Samples,
		StartedAt:    failure.StartedAt,
		EndedAt:      failure.FinishedAt,
	}, true
}

func buildTranscriptWebhookPayload(u repository.InsertUtteranceInput) webhook.TranscriptWebhookPayload {
	return webhook.TranscriptWebhookPayload{
		SchemaVersion:  webhook.TranscriptWebhookSchemaVersion,
		UtteranceID:    u.ID,
		SessionID:      u.SessionID,
		Strategy:       u.Strategy,
		Backend:        u.Backend,
		Status:         string(u.Status),
		Text:           u.Text,
		Error:          u.ErrorMessage,
		SampleCount:    u.SampleCount,
		DurationMillis: u.DurationMillis,
		StartAt:        formatTimestamp(u.StartedAt),
		EndAt:          formatTimestamp(u.EndedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
