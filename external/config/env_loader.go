package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/kikitori/internal/config"
	"gopkg.in/yaml.v3"
)

const configFileEnv = "KIKITORI_CONFIG_FILE"

// envConfig carries no envDefault tags: defaults come from defaultEnvConfig,
// then the optional YAML file, then whatever environment variables are set.
type envConfig struct {
	Env      string `env:"ENV" yaml:"env"`
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level"`

	AudioBackend    string `env:"AUDIO_BACKEND" yaml:"audio_backend"`
	AudioDevice     string `env:"AUDIO_DEVICE" yaml:"audio_device"`
	AudioWAVFile    string `env:"AUDIO_WAV_FILE" yaml:"audio_wav_file"`
	SampleRate      int    `env:"SAMPLE_RATE" yaml:"sample_rate"`
	BitsPerSample   int    `env:"BITS_PER_SAMPLE" yaml:"bits_per_sample"`
	Channels        int    `env:"CHANNELS" yaml:"channels"`
	WarmupSamples   int    `env:"MIC_WARMUP_SAMPLES" yaml:"mic_warmup_samples"`
	SourceQueueSize int    `env:"SOURCE_QUEUE_SIZE" yaml:"source_queue_size"`

	Strategy           string        `env:"STRATEGY" yaml:"strategy"`
	SilenceDurationMs  int           `env:"SILENCE_DURATION_MS" yaml:"silence_duration_ms"`
	MaxRecordingSec    int           `env:"MAX_RECORDING_SEC" yaml:"max_recording_sec"`
	SpeechThreshold    int           `env:"SPEECH_THRESHOLD" yaml:"speech_threshold"`
	ManualStopOnly     bool          `env:"MANUAL_STOP_ONLY" yaml:"manual_stop_only"`
	ChunkCapacityBytes int           `env:"CHUNK_CAPACITY_BYTES" yaml:"chunk_capacity_bytes"`
	SamplesPerTick     int           `env:"SAMPLES_PER_TICK" yaml:"samples_per_tick"`
	MaxCapacityBytes   int           `env:"MAX_CAPACITY_BYTES" yaml:"max_capacity_bytes"`
	TickInterval       time.Duration `env:"TICK_INTERVAL" yaml:"tick_interval"`
	RestartDelay       time.Duration `env:"RESTART_DELAY" yaml:"restart_delay"`
	AutoListen         bool          `env:"AUTO_LISTEN" yaml:"auto_listen"`

	TranscriptionBackend string        `env:"TRANSCRIPTION_BACKEND" yaml:"transcription_backend"`
	TranscriptionTimeout time.Duration `env:"TRANSCRIPTION_TIMEOUT" yaml:"transcription_timeout"`
	Instruction          string        `env:"TRANSCRIPTION_INSTRUCTION" yaml:"transcription_instruction"`

	ASRAPIURL string `env:"ASR_API_URL" yaml:"asr_api_url"`
	ASRAPIKey string `env:"ASR_API_KEY" yaml:"asr_api_key"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY" yaml:"gemini_api_key"`
	GeminiModel   string `env:"GEMINI_MODEL" yaml:"gemini_model"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" yaml:"gemini_base_url"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID" yaml:"google_cloud_project_id"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON" yaml:"google_cloud_credentials_json"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" yaml:"google_cloud_speech_location"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" yaml:"google_cloud_speech_model"`
	TranscribeLanguage         string `env:"TRANSCRIBE_LANGUAGE" yaml:"transcribe_language"`

	DatabaseURL          string `env:"DATABASE_URL" yaml:"database_url"`
	TranscriptWebhookURL string `env:"TRANSCRIPT_WEBHOOK_URL" yaml:"transcript_webhook_url"`
	MetricsAddr          string `env:"METRICS_ADDR" yaml:"metrics_addr"`
	StubListenAddr       string `env:"STUB_LISTEN_ADDR" yaml:"stub_listen_addr"`
}

func defaultEnvConfig() envConfig {
	return envConfig{
		Env:                       "production",
		LogLevel:                  "info",
		AudioBackend:              internalconfig.AudioBackendMalgo,
		SampleRate:                16000,
		BitsPerSample:             16,
		Channels:                  1,
		WarmupSamples:             1200,
		SourceQueueSize:           16000 * 4,
		Strategy:                  internalconfig.StrategyStreaming,
		SilenceDurationMs:         900,
		MaxRecordingSec:           5,
		SpeechThreshold:           120,
		ChunkCapacityBytes:        4096,
		SamplesPerTick:            800,
		MaxCapacityBytes:          16000 * 2 * 8,
		TickInterval:              10 * time.Millisecond,
		RestartDelay:              500 * time.Millisecond,
		AutoListen:                true,
		TranscriptionBackend:      internalconfig.BackendHTTP,
		TranscriptionTimeout:      30 * time.Second,
		Instruction:               "Transcribe this spoken audio. Return only plain text without labels.",
		GeminiModel:               "gemini-2.0-flash",
		GeminiBaseURL:             "https://generativelanguage.googleapis.com",
		GoogleCloudSpeechLocation: "asia-northeast1",
		GoogleCloudSpeechModel:    "chirp_3",
		TranscribeLanguage:        "ja-JP",
		StubListenAddr:            ":8787",
	}
}

func Load() (*internalconfig.Config, error) {
	raw := defaultEnvConfig()
	if path := os.Getenv(configFileEnv); path != "" {
		if err := loadFile(path, &raw); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}

	cfg := raw.toConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, raw *envConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (raw envConfig) toConfig() *internalconfig.Config {
	return &internalconfig.Config{
		Env:                        raw.Env,
		LogLevel:                   raw.LogLevel,
		AudioBackend:               raw.AudioBackend,
		AudioDevice:                raw.AudioDevice,
		AudioWAVFile:               raw.AudioWAVFile,
		SampleRate:                 raw.SampleRate,
		BitsPerSample:              raw.BitsPerSample,
		Channels:                   raw.Channels,
		WarmupSamples:              raw.WarmupSamples,
		SourceQueueSize:            raw.SourceQueueSize,
		Strategy:                   raw.Strategy,
		SilenceDurationMs:          raw.SilenceDurationMs,
		MaxRecordingSec:            raw.MaxRecordingSec,
		SpeechThreshold:            raw.SpeechThreshold,
		ManualStopOnly:             raw.ManualStopOnly,
		ChunkCapacityBytes:         raw.ChunkCapacityBytes,
		SamplesPerTick:             raw.SamplesPerTick,
		MaxCapacityBytes:           raw.MaxCapacityBytes,
		TickInterval:               raw.TickInterval,
		RestartDelay:               raw.RestartDelay,
		AutoListen:                 raw.AutoListen,
		TranscriptionBackend:       raw.TranscriptionBackend,
		TranscriptionTimeout:       raw.TranscriptionTimeout,
		Instruction:                raw.Instruction,
		ASRAPIURL:                  raw.ASRAPIURL,
		ASRAPIKey:                  raw.ASRAPIKey,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiModel:                raw.GeminiModel,
		GeminiBaseURL:              raw.GeminiBaseURL,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		TranscribeLanguage:         raw.TranscribeLanguage,
		DatabaseURL:                raw.DatabaseURL,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		MetricsAddr:                raw.MetricsAddr,
		StubListenAddr:             raw.StubListenAddr,
	}
}
