package transcriber

import (
	"fmt"

	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*CloudSpeechBackend, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCloudSpeechBackend(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.TranscribeLanguage,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}), nil
	})
	do.Provide(injector, func(i do.Injector) (transcriber.Backend, error) {
		c := do.MustInvoke[*config.Config](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		backend, err := newBackend(c, i)
		if err != nil {
			return nil, err
		}
		return NewInstrumentedBackend(c.TranscriptionBackend, backend, m), nil
	})
}

func newBackend(c *config.Config, i do.Injector) (transcriber.Backend, error) {
	switch c.TranscriptionBackend {
	case config.BackendHTTP:
		return NewHTTPBackend(c.ASRAPIURL, c.ASRAPIKey, c.TranscriptionTimeout), nil
	case config.BackendGemini:
		return NewGeminiBackend(c.GeminiBaseURL, c.GeminiAPIKey, c.GeminiModel, c.TranscriptionTimeout), nil
	case config.BackendCloudSpeech:
		return do.MustInvoke[*CloudSpeechBackend](i), nil
	default:
		return nil, fmt.Errorf("unsupported transcription backend %q", c.TranscriptionBackend)
	}
}
