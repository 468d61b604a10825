package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		AudioBackend:         AudioBackendSynthetic,
		SampleRate:           16000,
		BitsPerSample:        16,
		Channels:             1,
		Strategy:             StrategyStreaming,
		SilenceDurationMs:    900,
		MaxRecordingSec:      5,
		SpeechThreshold:      120,
		ChunkCapacityBytes:   4096,
		SamplesPerTick:       800,
		TickInterval:         10 * time.Millisecond,
		TranscriptionBackend: BackendHTTP,
		ASRAPIURL:            "http://localhost:8787",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_InvalidStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Strategy = "chunked"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestValidate_OddChunkCapacity(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkCapacityBytes = 4095
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for odd chunk capacity")
	}
}

func TestValidate_MissingBackendFields(t *testing.T) {
	cfg := validConfig()
	cfg.ASRAPIURL = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when ASR_API_URL is missing")
	}
	if !strings.Contains(err.Error(), "ASR_API_URL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_GeminiRequiresBatch(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptionBackend = BackendGemini
	cfg.GeminiAPIKey = "key"
	cfg.GeminiModel = "gemini-2.0-flash"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for gemini with streaming strategy")
	}
	cfg.Strategy = StrategyBatch
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_WAVFileBackendRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.AudioBackend = AudioBackendWAVFile
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when AUDIO_WAV_FILE is missing")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptionBackend = "whisper"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown transcription backend")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}

func TestDurations(t *testing.T) {
	cfg := validConfig()
	if got := cfg.SilenceDuration(); got != 900*time.Millisecond {
		t.Fatalf("expected 900ms, got %s", got)
	}
	if got := cfg.MaxRecordingDuration(); got != 5*time.Second {
		t.Fatalf("expected 5s, got %s", got)
	}
}
