package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/kikitori/internal/webhook"
)

func testPayload() webhook.TranscriptWebhookPayload {
	return webhook.TranscriptWebhookPayload{
		SchemaVersion:  webhook.TranscriptWebhookSchemaVersion,
		UtteranceID:    "u-1",
		SessionID:      "s-1",
		Strategy:       "streaming",
		Backend:        "http",
		Status:         "transcribed",
		Text:           "hello world",
		SampleCount:    16000,
		DurationMillis: 1000,
		StartAt:        "2026-01-01T00:00:00Z",
		EndAt:          "2026-01-01T00:00:01Z",
	}
}

func TestSendTranscript_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendTranscript(context.Background(), testPayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendTranscript_Success(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), testPayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got["text"] != "hello world" || got["utterance_id"] != "u-1" || got["schema_version"] != "1" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if got["duration_ms"] != float64(1000) {
		t.Fatalf("unexpected duration: %v", got["duration_ms"])
	}
	if _, ok := got["error"]; ok {
		t.Fatalf("expected error field omitted, got %v", got["error"])
	}
}

func TestSendTranscript_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), testPayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
