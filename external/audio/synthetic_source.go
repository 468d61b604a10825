package audio

import (
	"math"
	"sync"
	"time"
)

const (
	syntheticToneHz      = 440
	syntheticAmplitude   = 8000
	syntheticSpeechTime  = 1200 * time.Millisecond
	syntheticSilenceTime = 2 * time.Second
)

// SyntheticSource emits a repeating pattern of a tone burst followed by
// silence, paced in real time. It stands in for a microphone in development.
type SyntheticSource struct {
	mu     sync.Mutex
	rate   int
	pos    int64
	pacer  *pacer
	closed bool
}

func NewSyntheticSource(sampleRate int) *SyntheticSource {
	return &SyntheticSource{rate: sampleRate, pacer: newPacer(sampleRate, time.Now)}
}

func (s *SyntheticSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *SyntheticSource) Read(dst []int16) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	n := s.pacer.allowance(len(dst))
	for i := range n {
		dst[i] = s.sampleAt(s.pos)
		s.pos++
	}
	s.pacer.consume(n)
	return n
}

// Discard skips the pattern forward by the time that passed unread, the way a
// microphone would have.
func (s *SyntheticSource) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos += int64(s.pacer.allowance(math.MaxInt32))
	s.pacer.resync()
}

func (s *SyntheticSource) sampleAt(pos int64) int16 {
	speech := int64(syntheticSpeechTime) * int64(s.rate) / int64(time.Second)
	period := speech + int64(syntheticSilenceTime)*int64(s.rate)/int64(time.Second)
	offset := pos % period
	if offset >= speech {
		return 0
	}
	phase := 2 * math.Pi * syntheticToneHz * float64(offset) / float64(s.rate)
	return int16(syntheticAmplitude * math.Sin(phase))
}

func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
