package webhook

import "context"

const TranscriptWebhookSchemaVersion = "1"

type TranscriptWebhookPayload struct {
	SchemaVersion  string `json:"schema_version"`
	UtteranceID    string `json:"utterance_id"`
	SessionID      string `json:"session_id,omitempty"`
	Strategy       string `json:"strategy"`
	Backend        string `json:"backend"`
	Status         string `json:"status"`
	Text           string `json:"text,omitempty"`
	Error          string `json:"error,omitempty"`
	SampleCount    int    `json:"sample_count"`
	DurationMillis int64  `json:"duration_ms"`
	StartAt        string `json:"start_at"`
	EndAt          string `json:"end_at"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
