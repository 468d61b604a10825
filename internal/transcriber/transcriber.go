// Package transcriber defines the speech recognition backend contracts used
// by recording sessions and the receiver that observes their outcomes.
package transcriber

import (
	"context"
	"time"
)

type AudioFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// StreamingBackend is the chunked protocol: open a remote session, push raw
// little-endian PCM chunks in order, then ask for the transcript.
type StreamingBackend interface {
	StartSession(ctx context.Context, format AudioFormat) (string, error)
	SendChunk(ctx context.Context, sessionID string, chunk []byte) error
	StopAndTranscribe(ctx context.Context, sessionID string) (string, error)
	AbortSession(ctx context.Context, sessionID string) error
}

type BatchRequest struct {
	AudioBase64 string
	MimeType    string
	Format      AudioFormat
	Instruction string
}

// BatchBackend is the buffered protocol: one request carrying a whole
// recording.
type BatchBackend interface {
	TranscribeBatch(ctx context.Context, req BatchRequest) (string, error)
}

type Backend interface {
	StreamingBackend
	BatchBackend
}

type Result struct {
	SessionID  string
	Strategy   string
	Text       string
	Samples    int
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

type NoSpeech struct {
	SessionID  string
	Strategy   string
	Samples    int
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
	Reason     error
}

type ResultReceiver interface {
	OnResult(result Result)
	OnNoSpeech(event NoSpeech)
	OnError(err error)
}
