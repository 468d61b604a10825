package session

import (
	"os"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Dispatcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Sender](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewDispatcher(repo, wh, m, os.Stdout, cfg.TranscriptionBackend, cfg.TranscriptionTimeout), nil
	})
	do.Provide(injector, func(i do.Injector) (Strategy, error) {
		cfg := do.MustInvoke[*config.Config](i)
		backend := do.MustInvoke[transcriber.Backend](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewStrategy(cfg, backend, m), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		source := do.MustInvoke[audio.Source](i)
		strategy := do.MustInvoke[Strategy](i)
		dispatcher := do.MustInvoke[*Dispatcher](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewManager(source, strategy, dispatcher, m, OptionsFromConfig(cfg)), nil
	})
}

// NewStrategy builds the strategy named by cfg.Strategy.
func NewStrategy(cfg *config.Config, backend transcriber.Backend, m *metrics.Metrics) Strategy {
	format := audio.Format{
		SampleRate:    cfg.SampleRate,
		Channels:      cfg.Channels,
		BitsPerSample: cfg.BitsPerSample,
	}
	if cfg.Strategy == config.StrategyBatch {
		return NewBatchStrategy(backend, format, cfg.MaxRecordingDuration(), cfg.MaxCapacityBytes, cfg.Instruction)
	}
	return NewStreamingStrategy(backend, transcriber.AudioFormat{
		SampleRate:    format.SampleRate,
		Channels:      format.Channels,
		BitsPerSample: format.BitsPerSample,
	}, cfg.MaxRecordingDuration(), cfg.ChunkCapacityBytes, m)
}
