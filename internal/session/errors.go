package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotReady         = errors.New("session: not ready")
	ErrAlreadyActive    = errors.New("session: recording already active")
	ErrBufferExhausted  = errors.New("session: recording buffer cannot be allocated")
	ErrNotRecording     = errors.New("session: not recording")
	ErrNoSpeechDetected = errors.New("session: no speech detected")
	ErrEmptyTranscript  = errors.New("session: empty transcription result")
)

// Error describes a recording that ended in failure. It is what the receiver
// gets through OnError.
type Error struct {
	SessionID  string
	Strategy   string
	Op         string
	Samples    int
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session %s (%s): %s: %v", e.SessionID, e.Strategy, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
