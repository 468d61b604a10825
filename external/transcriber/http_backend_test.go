package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxseedlab/kikitori/internal/transcriber"
)

func TestHTTPBackend_StreamLifecycle(t *testing.T) {
	var chunks [][]byte
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Fatalf("expected api key header, got %q", got)
		}
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/v1/asr/stream/start":
			var body streamStartRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode start body: %v", err)
			}
			if body.SampleRate != 16000 || body.Channels != 1 || body.Bits != 16 {
				t.Fatalf("unexpected start body: %+v", body)
			}
			_, _ = w.Write([]byte(`{"session_id":"abc"}`))
		case "/v1/asr/stream/chunk":
			if r.URL.Query().Get("session_id") != "abc" {
				t.Fatalf("unexpected session id: %s", r.URL.RawQuery)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
				t.Fatalf("unexpected content type: %s", ct)
			}
			b, _ := io.ReadAll(r.Body)
			chunks = append(chunks, b)
		case "/v1/asr/stream/stop":
			_, _ = w.Write([]byte(`{"text":"  hello  "}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL+"//", "secret", time.Second)
	ctx := context.Background()

	id, err := b.StartSession(ctx, transcriber.AudioFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "abc" {
		t.Fatalf("expected session abc, got %q", id)
	}
	if err := b.SendChunk(ctx, id, []byte{1, 0, 2, 0}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	text, err := b.StopAndTranscribe(ctx, id)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if len(chunks) != 1 || len(chunks[0]) != 4 {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
	if paths[0] != "/v1/asr/stream/start" {
		t.Fatalf("expected trailing slashes trimmed, got %s", paths[0])
	}
}

func TestHTTPBackend_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Api-Key"]; ok {
			t.Fatal("expected no api key header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, "", time.Second)
	if err := b.AbortSession(context.Background(), "abc"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestHTTPBackend_Non2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, "", time.Second)
	err := b.SendChunk(context.Background(), "abc", []byte{0, 0})
	if !errors.Is(err, transcriber.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var se *transcriber.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway || se.Body != "upstream down" {
		t.Fatalf("unexpected status error: %v", err)
	}
}

func TestHTTPBackend_MissingSessionIDIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, "", time.Second)
	if _, err := b.StartSession(context.Background(), transcriber.AudioFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}); !errors.Is(err, transcriber.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestHTTPBackend_MalformedJSONIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, "", time.Second)
	if _, err := b.StopAndTranscribe(context.Background(), "abc"); !errors.Is(err, transcriber.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestHTTPBackend_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	b := NewHTTPBackend(url, "", time.Second)
	if _, err := b.StartSession(context.Background(), transcriber.AudioFormat{}); !errors.Is(err, transcriber.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestHTTPBackend_TranscribeBatch(t *testing.T) {
	var got batchTranscribeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/asr/transcribe" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"text":"batch text"}`))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, "", time.Second)
	text, err := b.TranscribeBatch(context.Background(), transcriber.BatchRequest{
		AudioBase64: "UklGRg==",
		MimeType:    "audio/wav",
		Format:      transcriber.AudioFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16},
		Instruction: "transcribe",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "batch text" {
		t.Fatalf("expected batch text, got %q", text)
	}
	if got.InlineAudioBase64 != "UklGRg==" || got.MimeType != "audio/wav" || got.InstructionText != "transcribe" || got.Bits != 16 {
		t.Fatalf("unexpected request: %+v", got)
	}
}
