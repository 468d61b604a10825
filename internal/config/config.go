package config

import (
	"fmt"
	"time"
)

const (
	StrategyStreaming = "streaming"
	StrategyBatch     = "batch"

	BackendHTTP        = "http"
	BackendGemini      = "gemini"
	BackendCloudSpeech = "cloudspeech"

	AudioBackendMalgo     = "malgo"
	AudioBackendWAVFile   = "wavfile"
	AudioBackendSynthetic = "synthetic"
)

type Config struct {
	Env      string
	LogLevel string

	AudioBackend    string
	AudioDevice     string
	AudioWAVFile    string
	SampleRate      int
	BitsPerSample   int
	Channels        int
	WarmupSamples   int
	SourceQueueSize int

	Strategy           string
	SilenceDurationMs  int
	MaxRecordingSec    int
	SpeechThreshold    int
	ManualStopOnly     bool
	ChunkCapacityBytes int
	SamplesPerTick     int
	MaxCapacityBytes   int
	TickInterval       time.Duration
	RestartDelay       time.Duration
	AutoListen         bool

	TranscriptionBackend string
	TranscriptionTimeout time.Duration
	Instruction          string

	ASRAPIURL string
	ASRAPIKey string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	TranscribeLanguage         string

	DatabaseURL          string
	TranscriptWebhookURL string
	MetricsAddr          string
	StubListenAddr       string
}

func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyStreaming, StrategyBatch:
	default:
		return fmt.Errorf("STRATEGY must be %q or %q, got %q", StrategyStreaming, StrategyBatch, c.Strategy)
	}
	switch c.AudioBackend {
	case AudioBackendMalgo, AudioBackendSynthetic:
	case AudioBackendWAVFile:
		if c.AudioWAVFile == "" {
			return fmt.Errorf("AUDIO_WAV_FILE is required when AUDIO_BACKEND=%s", AudioBackendWAVFile)
		}
	default:
		return fmt.Errorf("AUDIO_BACKEND is invalid: %q", c.AudioBackend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("CHANNELS must be positive, got %d", c.Channels)
	}
	if c.BitsPerSample <= 0 || c.BitsPerSample%8 != 0 {
		return fmt.Errorf("BITS_PER_SAMPLE must be a positive multiple of 8, got %d", c.BitsPerSample)
	}
	if c.SilenceDurationMs <= 0 {
		return fmt.Errorf("SILENCE_DURATION_MS must be positive, got %d", c.SilenceDurationMs)
	}
	if c.MaxRecordingSec <= 0 {
		return fmt.Errorf("MAX_RECORDING_SEC must be positive, got %d", c.MaxRecordingSec)
	}
	if c.SpeechThreshold <= 0 || c.SpeechThreshold > 32768 {
		return fmt.Errorf("SPEECH_THRESHOLD must be in 1..32768, got %d", c.SpeechThreshold)
	}
	if c.ChunkCapacityBytes < 2 || c.ChunkCapacityBytes%2 != 0 {
		return fmt.Errorf("CHUNK_CAPACITY_BYTES must be an even number >= 2, got %d", c.ChunkCapacityBytes)
	}
	if c.SamplesPerTick <= 0 {
		return fmt.Errorf("SAMPLES_PER_TICK must be positive, got %d", c.SamplesPerTick)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required when TRANSCRIPTION_BACKEND=%s", req.name, c.TranscriptionBackend)
		}
	}
	if c.TranscriptionBackend == BackendGemini && c.Strategy != StrategyBatch {
		return fmt.Errorf("TRANSCRIPTION_BACKEND=%s only supports STRATEGY=%s", BackendGemini, StrategyBatch)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	switch c.TranscriptionBackend {
	case BackendHTTP:
		return []requiredEnvField{
			{name: "ASR_API_URL", value: c.ASRAPIURL},
		}
	case BackendGemini:
		return []requiredEnvField{
			{name: "GEMINI_API_KEY", value: c.GeminiAPIKey},
			{name: "GEMINI_MODEL", value: c.GeminiModel},
		}
	case BackendCloudSpeech:
		return []requiredEnvField{
			{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
			{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
			{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
		}
	default:
		return []requiredEnvField{
			{name: "a supported TRANSCRIPTION_BACKEND (http, gemini, cloudspeech)", value: ""},
		}
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) SilenceDuration() time.Duration {
	return time.Duration(c.SilenceDurationMs) * time.Millisecond
}

func (c *Config) MaxRecordingDuration() time.Duration {
	return time.Duration(c.MaxRecordingSec) * time.Second
}
