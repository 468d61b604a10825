package transcriber

import (
	"errors"
	"fmt"
)

var (
	ErrTransport   = errors.New("transcriber: transport failure")
	ErrProtocol    = errors.New("transcriber: malformed response")
	ErrUnsupported = errors.New("transcriber: operation not supported by backend")
)

// StatusError reports a non-2xx reply from an HTTP backend. It matches
// ErrTransport under errors.Is.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}

// ProviderError wraps a failure reported by a vendor SDK, such as a gRPC
// status from Cloud Speech.
type ProviderError struct {
	Provider string
	Code     string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrTransport
}
