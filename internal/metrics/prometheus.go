package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeResult   = "result"
	OutcomeNoSpeech = "no_speech"
	OutcomeError    = "error"
	OutcomeStopped  = "stopped"
)

// Metrics holds the recorder's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RecordingsStarted  *prometheus.CounterVec
	RecordingsFinished *prometheus.CounterVec
	RecordingDuration  *prometheus.HistogramVec
	SamplesCaptured    prometheus.Counter
	SpeechSamples      prometheus.Counter
	ChunksSent         prometheus.Counter
	ChunkBytes         prometheus.Histogram

	BackendRequests        *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	DispatchFailures *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordingsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kikitori_recordings_started_total",
			Help: "Total number of recording sessions started",
		}, []string{"strategy"}),
		RecordingsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kikitori_recordings_finished_total",
			Help: "Total number of recording sessions finished, by outcome",
		}, []string{"strategy", "outcome"}),
		RecordingDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kikitori_recording_duration_seconds",
			Help:    "Captured audio duration per recording",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}, []string{"strategy"}),
		SamplesCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "kikitori_samples_captured_total",
			Help: "Total number of samples drained from the audio source while recording",
		}),
		SpeechSamples: f.NewCounter(prometheus.CounterOpts{
			Name: "kikitori_speech_samples_total",
			Help: "Total number of samples classified as speech",
		}),
		ChunksSent: f.NewCounter(prometheus.CounterOpts{
			Name: "kikitori_chunks_sent_total",
			Help: "Total number of audio chunks sent to the streaming backend",
		}),
		ChunkBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kikitori_chunk_size_bytes",
			Help:    "Size of audio chunks sent to the streaming backend",
			Buckets: prometheus.ExponentialBuckets(256, 2, 8),
		}),
		BackendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kikitori_backend_requests_total",
			Help: "Total number of transcription backend calls",
		}, []string{"backend", "op", "status"}),
		BackendRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kikitori_backend_request_duration_seconds",
			Help:    "Duration of transcription backend calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"backend", "op"}),
		DispatchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kikitori_dispatch_failures_total",
			Help: "Total number of failed result deliveries, by sink",
		}, []string{"sink"}),
	}
}

func (m *Metrics) RecordStarted(strategy string) {
	if m == nil {
		return
	}
	m.RecordingsStarted.WithLabelValues(strategy).Inc()
}

func (m *Metrics) RecordFinished(strategy, outcome string, audio time.Duration) {
	if m == nil {
		return
	}
	m.RecordingsFinished.WithLabelValues(strategy, outcome).Inc()
	m.RecordingDuration.WithLabelValues(strategy).Observe(audio.Seconds())
}

func (m *Metrics) RecordSamples(total, speech int) {
	if m == nil {
		return
	}
	m.SamplesCaptured.Add(float64(total))
	m.SpeechSamples.Add(float64(speech))
}

func (m *Metrics) RecordChunk(sizeBytes int) {
	if m == nil {
		return
	}
	m.ChunksSent.Inc()
	m.ChunkBytes.Observe(float64(sizeBytes))
}

// RecordBackendCall records one backend call; status is "ok" or "error".
func (m *Metrics) RecordBackendCall(backend, op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BackendRequests.WithLabelValues(backend, op, status).Inc()
	m.BackendRequestDuration.WithLabelValues(backend, op).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordDispatchFailure(sink string) {
	if m == nil {
		return
	}
	m.DispatchFailures.WithLabelValues(sink).Inc()
}
