package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
)

type StreamingStrategy struct {
	backend  transcriber.StreamingBackend
	format   transcriber.AudioFormat
	limits   Limits
	capacity int
	metrics  *metrics.Metrics

	sessionID string
	chunk     []byte
}

func NewStreamingStrategy(backend transcriber.StreamingBackend, format transcriber.AudioFormat, maxDuration time.Duration, chunkCapacityBytes int, m *metrics.Metrics) *StreamingStrategy {
	return &StreamingStrategy{
		backend:  backend,
		format:   format,
		limits:   StreamingLimits(format.SampleRate, maxDuration),
		capacity: chunkCapacityBytes,
		metrics:  m,
		chunk:    make([]byte, 0, chunkCapacityBytes),
	}
}

func (s *StreamingStrategy) Name() string {
	return StrategyNameStreaming
}

func (s *StreamingStrategy) Limits() Limits {
	return s.limits
}

func (s *StreamingStrategy) Begin(ctx context.Context) error {
	id, err := s.backend.StartSession(ctx, s.format)
	if err != nil {
		return fmt.Errorf("start stream session: %w", err)
	}
	if id == "" {
		return fmt.Errorf("start stream session: %w: empty session id", transcriber.ErrProtocol)
	}
	s.sessionID = id
	s.chunk = s.chunk[:0]
	slog.Debug("stream session opened", "session_id", id)
	return nil
}

func (s *StreamingStrategy) Append(ctx context.Context, sample int16) error {
	s.chunk = audio.AppendPCM16(s.chunk, sample)
	if len(s.chunk) >= s.capacity {
		return s.flush(ctx)
	}
	return nil
}

func (s *StreamingStrategy) flush(ctx context.Context) error {
	if len(s.chunk) == 0 {
		return nil
	}
	if err := s.backend.SendChunk(ctx, s.sessionID, s.chunk); err != nil {
		return fmt.Errorf("send chunk: %w", err)
	}
	s.metrics.RecordChunk(len(s.chunk))
	s.chunk = s.chunk[:0]
	return nil
}

func (s *StreamingStrategy) Full() bool {
	return false
}

func (s *StreamingStrategy) Finish(ctx context.Context) (string, error) {
	if err := s.flush(ctx); err != nil {
		return "", err
	}
	id := s.sessionID
	s.sessionID = ""
	text, err := s.backend.StopAndTranscribe(ctx, id)
	if err != nil {
		return "", fmt.Errorf("stop stream session: %w", err)
	}
	return text, nil
}

func (s *StreamingStrategy) Abort(ctx context.Context) {
	s.chunk = s.chunk[:0]
	if s.sessionID == "" {
		return
	}
	id := s.sessionID
	s.sessionID = ""
	if err := s.backend.AbortSession(ctx, id); err != nil {
		slog.Warn("failed to abort stream session", "error", err, "session_id", id)
	}
}

func (s *StreamingStrategy) RemoteSessionID() string {
	return s.sessionID
}
