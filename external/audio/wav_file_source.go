package audio

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/go-audio/wav"
)

// WAVFileSource replays a PCM WAV file in real time, downmixed to mono
// 16-bit. Its sample rate must match the recorder's.
type WAVFileSource struct {
	mu      sync.Mutex
	samples []int16
	pos     int
	pacer   *pacer
	closed  bool
}

func NewWAVFileSource(path string, sampleRate int) (*WAVFileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, audio.ErrUnsupportedFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode WAV: %w", err)
	}
	if int(dec.SampleRate) != sampleRate {
		return nil, fmt.Errorf("%s: sample rate %d Hz does not match %d Hz", path, dec.SampleRate, sampleRate)
	}

	samples, err := toMono16(buf.Data, int(dec.NumChans), int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("wav file loaded", "path", path, "samples", len(samples), "duration", time.Duration(len(samples))*time.Second/time.Duration(sampleRate))
	return &WAVFileSource{samples: samples, pacer: newPacer(sampleRate, time.Now)}, nil
}

func toMono16(data []int, channels, bitDepth int) ([]int16, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	var scale func(int) int
	switch bitDepth {
	case 8:
		scale = func(v int) int { return (v - 128) << 8 }
	case 16:
		scale = func(v int) int { return v }
	case 24, 32:
		shift := bitDepth - 16
		scale = func(v int) int { return v >> shift }
	default:
		return nil, fmt.Errorf("%w: %d-bit", audio.ErrUnsupportedFormat, bitDepth)
	}

	out := make([]int16, len(data)/channels)
	for i := range out {
		sum := 0
		for c := range channels {
			sum += scale(data[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out, nil
}

func (s *WAVFileSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *WAVFileSource) Read(dst []int16) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	n := s.pacer.allowance(min(len(dst), len(s.samples)-s.pos))
	copy(dst, s.samples[s.pos:s.pos+n])
	s.pos += n
	s.pacer.consume(n)
	return n
}

// Discard resumes real-time pacing from the current file position. The file
// is not skipped ahead, so every recording hears the next unread audio.
func (s *WAVFileSource) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pacer.resync()
}

// Exhausted reports that the whole file has been read.
func (s *WAVFileSource) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos >= len(s.samples)
}

func (s *WAVFileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
