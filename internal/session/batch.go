package session

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/transcriber"
)

const (
	DefaultInstruction = "Transcribe this spoken audio. Return only plain text without labels."
	wavMimeType        = "audio/wav"
)

// BatchStrategy buffers the whole recording in memory and submits it as one
// WAV payload. The buffer is sized at Begin and never grows while recording.
type BatchStrategy struct {
	backend          transcriber.BatchBackend
	format           audio.Format
	instruction      string
	limits           Limits
	maxCapacityBytes int

	pcm []int16
	n   int
}

func NewBatchStrategy(backend transcriber.BatchBackend, format audio.Format, maxDuration time.Duration, maxCapacityBytes int, instruction string) *BatchStrategy {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &BatchStrategy{
		backend:          backend,
		format:           format,
		instruction:      instruction,
		limits:           BatchLimits(format.SampleRate, maxDuration),
		maxCapacityBytes: maxCapacityBytes,
	}
}

func (b *BatchStrategy) Name() string {
	return StrategyNameBatch
}

func (b *BatchStrategy) Limits() Limits {
	return b.limits
}

// capacitySamples is the buffer size for one recording: the max duration,
// capped by the memory budget, never below one second.
func (b *BatchStrategy) capacitySamples() (int, error) {
	rate := b.format.SampleRate
	target := max(int(b.limits.MaxDuration/time.Second)*rate, rate)
	if b.maxCapacityBytes > 0 {
		target = min(target, b.maxCapacityBytes/2)
	}
	if target < rate {
		return 0, fmt.Errorf("%w: %d bytes cannot hold one second at %d Hz", ErrBufferExhausted, b.maxCapacityBytes, rate)
	}
	return target, nil
}

func (b *BatchStrategy) Begin(_ context.Context) error {
	target, err := b.capacitySamples()
	if err != nil {
		return err
	}
	if cap(b.pcm) < target {
		b.pcm = make([]int16, target)
	}
	b.pcm = b.pcm[:target]
	b.n = 0
	return nil
}

func (b *BatchStrategy) Append(_ context.Context, sample int16) error {
	if b.n < len(b.pcm) {
		b.pcm[b.n] = sample
		b.n++
	}
	return nil
}

func (b *BatchStrategy) Full() bool {
	return len(b.pcm) > 0 && b.n >= len(b.pcm)
}

func (b *BatchStrategy) Finish(ctx context.Context) (string, error) {
	samples := b.pcm[:b.n]
	b.n = 0
	payload, err := audio.EncodeWAVBase64(samples, b.format)
	if err != nil {
		return "", fmt.Errorf("encode recording: %w", err)
	}
	text, err := b.backend.TranscribeBatch(ctx, transcriber.BatchRequest{
		AudioBase64: payload,
		MimeType:    wavMimeType,
		Format: transcriber.AudioFormat{
			SampleRate:    b.format.SampleRate,
			Channels:      b.format.Channels,
			BitsPerSample: b.format.BitsPerSample,
		},
		Instruction: b.instruction,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe batch: %w", err)
	}
	return text, nil
}

func (b *BatchStrategy) Abort(_ context.Context) {
	b.n = 0
}

func (b *BatchStrategy) RemoteSessionID() string {
	return ""
}
