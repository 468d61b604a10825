package session

import (
	"context"
	"time"
)

const (
	StrategyNameStreaming = "streaming"
	StrategyNameBatch     = "batch"
)

// Limits are the per-strategy stop and transcribe thresholds for one
// recording.
type Limits struct {
	MaxDuration          time.Duration
	NoSpeechTimeout      time.Duration
	SilenceFloorSamples  int
	MinTranscribeSamples int
}

func StreamingLimits(sampleRate int, maxDuration time.Duration) Limits {
	return Limits{
		MaxDuration:          clampDuration(maxDuration, time.Second, 120*time.Second),
		NoSpeechTimeout:      5 * time.Second,
		SilenceFloorSamples:  sampleRate / 5,
		MinTranscribeSamples: sampleRate / 8,
	}
}

func BatchLimits(sampleRate int, maxDuration time.Duration) Limits {
	return Limits{
		MaxDuration:          clampDuration(maxDuration, time.Second, 8*time.Second),
		NoSpeechTimeout:      4500 * time.Millisecond,
		SilenceFloorSamples:  sampleRate / 4,
		MinTranscribeSamples: sampleRate / 6,
	}
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	return min(max(d, lo), hi)
}

// Strategy is the transport half of a recording: where samples go while
// recording and how the finished recording becomes text.
type Strategy interface {
	Name() string
	Limits() Limits
	// Begin prepares a new recording. It may open a remote session.
	Begin(ctx context.Context) error
	Append(ctx context.Context, sample int16) error
	// Full reports that no further samples can be stored.
	Full() bool
	Finish(ctx context.Context) (string, error)
	// Abort discards the recording. It never fails and is safe to call
	// when nothing is open.
	Abort(ctx context.Context)
	// RemoteSessionID is the backend session id, empty when none is open.
	RemoteSessionID() string
}
