package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/vad"
	"github.com/google/uuid"
)

const progressLogInterval = time.Second

type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

type Options struct {
	SampleRate      int
	SpeechThreshold int
	SilenceDuration time.Duration
	SamplesPerTick  int
	ManualStopOnly  bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SampleRate:      cfg.SampleRate,
		SpeechThreshold: cfg.SpeechThreshold,
		SilenceDuration: cfg.SilenceDuration(),
		SamplesPerTick:  cfg.SamplesPerTick,
		ManualStopOnly:  cfg.ManualStopOnly,
	}
}

// Manager owns the single recording session. Tick is driven by one goroutine;
// Finalize and Stop may be called from anywhere.
type Manager struct {
	source   audio.Source
	strategy Strategy
	receiver transcriber.ResultReceiver
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time

	mu              sync.Mutex
	state           State
	pendingFinalize bool
	sessionID       string
	startedAt       time.Time
	lastSpeechAt    time.Time
	lastProgressAt  time.Time
	totalSamples    int
	hasSpeech       bool
	readBuf         []int16

	lastText     string
	hasNewResult bool
}

func NewManager(source audio.Source, strategy Strategy, receiver transcriber.ResultReceiver, m *metrics.Metrics, opts Options) *Manager {
	return &Manager{
		source:   source,
		strategy: strategy,
		receiver: receiver,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
		readBuf:  make([]int16, max(opts.SamplesPerTick, 1)),
	}
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return ErrAlreadyActive
	}
	if !m.source.Ready() {
		return fmt.Errorf("%w: audio source is not ready", ErrNotReady)
	}
	if err := m.strategy.Begin(ctx); err != nil {
		if errors.Is(err, ErrBufferExhausted) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	m.source.Discard()

	now := m.now()
	m.sessionID = uuid.NewString()
	m.startedAt = now
	m.lastSpeechAt = now
	m.lastProgressAt = now
	m.totalSamples = 0
	m.hasSpeech = false
	m.pendingFinalize = false
	m.lastText = ""
	m.hasNewResult = false
	m.state = StateRecording

	m.metrics.RecordStarted(m.strategy.Name())
	slog.Info("recording started", "session_id", m.sessionID, "strategy", m.strategy.Name(), "remote_session_id", m.strategy.RemoteSessionID())
	return nil
}

// Tick advances the active recording by one step. Receiver callbacks run
// after the manager lock is released.
func (m *Manager) Tick(ctx context.Context) {
	m.mu.Lock()
	notify := m.tickLocked(ctx)
	m.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (m *Manager) tickLocked(ctx context.Context) func() {
	now := m.now()
	if m.pendingFinalize {
		m.pendingFinalize = false
		return m.finalizeLocked(ctx, now, "requested")
	}
	if m.state != StateRecording {
		return nil
	}

	if now.Sub(m.lastProgressAt) >= progressLogInterval {
		slog.Debug("recording", "session_id", m.sessionID, "elapsed", now.Sub(m.startedAt), "samples", m.totalSamples, "has_speech", m.hasSpeech)
		m.lastProgressAt = now
	}

	n := m.source.Read(m.readBuf[:m.opts.SamplesPerTick])
	drained, speech := 0, 0
	for _, s := range m.readBuf[:n] {
		if m.strategy.Full() {
			break
		}
		if vad.IsSpeech(s, m.opts.SpeechThreshold) {
			m.hasSpeech = true
			m.lastSpeechAt = now
			speech++
		}
		if err := m.strategy.Append(ctx, s); err != nil {
			m.metrics.RecordSamples(drained, speech)
			return m.failLocked(ctx, now, "append", err)
		}
		m.totalSamples++
		drained++
	}
	m.metrics.RecordSamples(drained, speech)

	if reason := m.stopReasonLocked(now); reason != "" {
		return m.finalizeLocked(ctx, now, reason)
	}
	return nil
}

func (m *Manager) stopReasonLocked(now time.Time) string {
	limits := m.strategy.Limits()
	if !m.opts.ManualStopOnly {
		elapsed := now.Sub(m.startedAt)
		switch {
		case elapsed >= limits.MaxDuration:
			return "max_duration"
		case m.hasSpeech && now.Sub(m.lastSpeechAt) >= m.opts.SilenceDuration && m.totalSamples > limits.SilenceFloorSamples:
			return "silence"
		case !m.hasSpeech && elapsed >= limits.NoSpeechTimeout:
			return "no_speech_timeout"
		}
	}
	if m.strategy.Full() {
		return "buffer_full"
	}
	return ""
}

func (m *Manager) finalizeLocked(ctx context.Context, now time.Time, reason string) func() {
	m.state = StateFinalizing
	defer func() {
		m.state = StateIdle
	}()

	strategy := m.strategy.Name()
	audioDuration := m.audioDuration()
	slog.Info("recording finished", "session_id", m.sessionID, "strategy", strategy, "reason", reason, "samples", m.totalSamples, "has_speech", m.hasSpeech)

	if !m.hasSpeech || m.totalSamples < m.strategy.Limits().MinTranscribeSamples {
		m.strategy.Abort(ctx)
		m.metrics.RecordFinished(strategy, metrics.OutcomeNoSpeech, audioDuration)
		event := transcriber.NoSpeech{
			SessionID:  m.sessionID,
			Strategy:   strategy,
			Samples:    m.totalSamples,
			Duration:   audioDuration,
			StartedAt:  m.startedAt,
			FinishedAt: now,
			Reason:     ErrNoSpeechDetected,
		}
		return func() { m.receiver.OnNoSpeech(event) }
	}

	text, err := m.strategy.Finish(ctx)
	if err != nil {
		return m.failLocked(ctx, now, "finish", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return m.failLocked(ctx, now, "finish", ErrEmptyTranscript)
	}

	m.lastText = text
	m.hasNewResult = true
	m.metrics.RecordFinished(strategy, metrics.OutcomeResult, audioDuration)
	result := transcriber.Result{
		SessionID:  m.sessionID,
		Strategy:   strategy,
		Text:       text,
		Samples:    m.totalSamples,
		Duration:   audioDuration,
		StartedAt:  m.startedAt,
		FinishedAt: now,
	}
	return func() { m.receiver.OnResult(result) }
}

// failLocked aborts any remote session and reports err. The session ends idle.
func (m *Manager) failLocked(ctx context.Context, now time.Time, op string, err error) func() {
	m.strategy.Abort(ctx)
	m.state = StateIdle
	m.pendingFinalize = false
	m.metrics.RecordFinished(m.strategy.Name(), metrics.OutcomeError, m.audioDuration())
	slog.Error("recording failed", "error", err, "session_id", m.sessionID, "op", op)
	failure := &Error{
		SessionID:  m.sessionID,
		Strategy:   m.strategy.Name(),
		Op:         op,
		Samples:    m.totalSamples,
		StartedAt:  m.startedAt,
		FinishedAt: now,
		Err:        err,
	}
	return func() { m.receiver.OnError(failure) }
}

func (m *Manager) audioDuration() time.Duration {
	if m.opts.SampleRate <= 0 {
		return 0
	}
	return time.Duration(m.totalSamples) * time.Second / time.Duration(m.opts.SampleRate)
}

// Finalize asks the next Tick to end the recording and transcribe it.
func (m *Manager) Finalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRecording {
		return ErrNotRecording
	}
	m.state = StateFinalizing
	m.pendingFinalize = true
	return nil
}

// Stop cancels the recording without producing a result.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return
	}
	m.strategy.Abort(ctx)
	m.pendingFinalize = false
	m.state = StateIdle
	m.metrics.RecordFinished(m.strategy.Name(), metrics.OutcomeStopped, m.audioDuration())
	slog.Info("recording stopped", "session_id", m.sessionID, "samples", m.totalSamples)
	m.totalSamples = 0
	m.hasSpeech = false
}

func (m *Manager) IsRecording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateRecording
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastResult returns the most recent transcript and whether it has not been
// cleared yet.
func (m *Manager) LastResult() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText, m.hasNewResult
}

func (m *Manager) ClearResult() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastText = ""
	m.hasNewResult = false
}
