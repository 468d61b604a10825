package stubasr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func doRequest(t *testing.T, s *Server, method, target, contentType string, body []byte, apiKey string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, data
}

func startSession(t *testing.T, s *Server, apiKey string) string {
	t.Helper()
	resp, body := doRequest(t, s, http.MethodPost, "/v1/asr/stream/start", "application/json",
		[]byte(`{"sample_rate":16000,"channels":1,"bits":16}`), apiKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, body)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	if out.SessionID == "" {
		t.Fatal("expected session_id")
	}
	return out.SessionID
}

func TestStreamLifecycle(t *testing.T) {
	s := NewServer("")
	id := startSession(t, s, "")

	for range 2 {
		resp, _ := doRequest(t, s, http.MethodPost, "/v1/asr/stream/chunk?session_id="+id, "application/octet-stream", make([]byte, 16000), "")
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
	}

	resp, body := doRequest(t, s, http.MethodPost, "/v1/asr/stream/stop?session_id="+id, "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode stop response: %v", err)
	}
	if out.Text != "received 1.00 seconds of audio" {
		t.Fatalf("unexpected text: %q", out.Text)
	}
	if s.ActiveSessions() != 0 {
		t.Fatalf("expected no active sessions, got %d", s.ActiveSessions())
	}
}

func TestStreamAbort(t *testing.T) {
	s := NewServer("")
	id := startSession(t, s, "")

	resp, _ := doRequest(t, s, http.MethodPost, "/v1/asr/stream/abort?session_id="+id, "", nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, s, http.MethodPost, "/v1/asr/stream/stop?session_id="+id, "", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after abort, got %d", resp.StatusCode)
	}
}

func TestStreamChunkUnknownSession(t *testing.T) {
	s := NewServer("")
	resp, _ := doRequest(t, s, http.MethodPost, "/v1/asr/stream/chunk?session_id=nope", "application/octet-stream", []byte{1, 2}, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStreamStartRejectsBadFormat(t *testing.T) {
	s := NewServer("")
	resp, _ := doRequest(t, s, http.MethodPost, "/v1/asr/stream/start", "application/json",
		[]byte(`{"sample_rate":0,"channels":1,"bits":16}`), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := NewServer("secret")
	resp, _ := doRequest(t, s, http.MethodPost, "/v1/asr/stream/start", "application/json",
		[]byte(`{"sample_rate":16000,"channels":1,"bits":16}`), "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	startSession(t, s, "secret")
}

func TestTranscribeWAV(t *testing.T) {
	s := NewServer("")
	audio := make([]byte, wavHeaderSize+16000)
	payload, _ := json.Marshal(transcribeRequest{
		InlineAudioBase64: base64.StdEncoding.EncodeToString(audio),
		MimeType:          "audio/wav",
		InstructionText:   "Transcribe",
		SampleRate:        16000,
		Channels:          1,
		Bits:              16,
	})

	resp, body := doRequest(t, s, http.MethodPost, "/v1/asr/transcribe", "application/json", payload, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "received 0.50 seconds of audio") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	s := NewServer("")
	payload := []byte(`{"inline_audio_base64":"","mime_type":"audio/wav","sample_rate":16000,"channels":1,"bits":16}`)
	resp, _ := doRequest(t, s, http.MethodPost, "/v1/asr/transcribe", "application/json", payload, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
