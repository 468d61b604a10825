package repository

import "time"

type UtteranceStatus string

const (
	UtteranceStatusTranscribed UtteranceStatus = "transcribed"
	UtteranceStatusNoSpeech    UtteranceStatus = "no_speech"
	UtteranceStatusFailed      UtteranceStatus = "failed"
)

// Utterance is one finished recording and what became of it.
type Utterance struct {
	ID             string
	SessionID      string
	Strategy       string
	Backend        string
	Status         UtteranceStatus
	Text           string
	ErrorMessage   string
	SampleCount    int
	DurationMillis int64
	StartedAt      time.Time
	EndedAt        time.Time
	CreatedAt      time.Time
}
