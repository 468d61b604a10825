package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxseedlab/kikitori/internal/transcriber"
)

const errorBodyLimit = 1024

// HTTPBackend speaks both ASR HTTP protocols: the chunked stream endpoints
// and the single-request transcribe endpoint.
type HTTPBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPBackend(baseURL, apiKey string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type streamStartRequest struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
	Bits       int `json:"bits"`
}

type streamStartResponse struct {
	SessionID string `json:"session_id"`
}

type transcriptResponse struct {
	Text string `json:"text"`
}

type batchTranscribeRequest struct {
	InlineAudioBase64 string `json:"inline_audio_base64"`
	MimeType          string `json:"mime_type"`
	InstructionText   string `json:"instruction_text"`
	SampleRate        int    `json:"sample_rate"`
	Channels          int    `json:"channels"`
	Bits              int    `json:"bits"`
}

func (b *HTTPBackend) StartSession(ctx context.Context, f transcriber.AudioFormat) (string, error) {
	var resp streamStartResponse
	err := b.postJSON(ctx, "stream start", "/v1/asr/stream/start", nil, streamStartRequest{
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		Bits:       f.BitsPerSample,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("stream start: %w: missing session_id", transcriber.ErrProtocol)
	}
	return resp.SessionID, nil
}

func (b *HTTPBackend) SendChunk(ctx context.Context, sessionID string, chunk []byte) error {
	return b.do(ctx, "stream chunk", "/v1/asr/stream/chunk", sessionQuery(sessionID), "application/octet-stream", bytes.NewReader(chunk), nil)
}

func (b *HTTPBackend) StopAndTranscribe(ctx context.Context, sessionID string) (string, error) {
	var resp transcriptResponse
	if err := b.do(ctx, "stream stop", "/v1/asr/stream/stop", sessionQuery(sessionID), "", nil, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (b *HTTPBackend) AbortSession(ctx context.Context, sessionID string) error {
	return b.do(ctx, "stream abort", "/v1/asr/stream/abort", sessionQuery(sessionID), "", nil, nil)
}

func (b *HTTPBackend) TranscribeBatch(ctx context.Context, req transcriber.BatchRequest) (string, error) {
	var resp transcriptResponse
	err := b.postJSON(ctx, "transcribe", "/v1/asr/transcribe", nil, batchTranscribeRequest{
		InlineAudioBase64: req.AudioBase64,
		MimeType:          req.MimeType,
		InstructionText:   req.Instruction,
		SampleRate:        req.Format.SampleRate,
		Channels:          req.Format.Channels,
		Bits:              req.Format.BitsPerSample,
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func sessionQuery(sessionID string) url.Values {
	return url.Values{"session_id": []string{sessionID}}
}

func (b *HTTPBackend) postJSON(ctx context.Context, op, path string, query url.Values, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return b.do(ctx, op, path, query, "application/json", bytes.NewReader(body), out)
}

func (b *HTTPBackend) do(ctx context.Context, op, path string, query url.Values, contentType string, body io.Reader, out any) error {
	endpoint := b.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if b.apiKey != "" {
		req.Header.Set("x-api-key", b.apiKey)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, transcriber.ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return decodeResponse(op, resp, out)
}

func decodeResponse(op string, resp *http.Response, out any) error {
	if !isHTTPSuccessStatus(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &transcriber.StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: %w: empty response body", op, transcriber.ErrProtocol)
		}
		return fmt.Errorf("%s: %w: %w", op, transcriber.ErrProtocol, err)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
