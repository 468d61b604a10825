package audio

import (
	"fmt"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Source, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewSource(c)
	})
}

func NewSource(c *config.Config) (audio.Source, error) {
	switch c.AudioBackend {
	case config.AudioBackendMalgo:
		return NewMalgoSource(MalgoConfig{
			SampleRate:    c.SampleRate,
			DeviceName:    c.AudioDevice,
			WarmupSamples: c.WarmupSamples,
			QueueSize:     c.SourceQueueSize,
		})
	case config.AudioBackendWAVFile:
		return NewWAVFileSource(c.AudioWAVFile, c.SampleRate)
	case config.AudioBackendSynthetic:
		return NewSyntheticSource(c.SampleRate), nil
	default:
		return nil, fmt.Errorf("unsupported audio backend %q", c.AudioBackend)
	}
}
