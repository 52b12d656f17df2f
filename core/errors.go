package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for local validation failures. These never involve a
// remote service and never mutate conversation history.
var (
	// ErrInvalidAudioFormat flags input audio that is not a whole number of
	// 16-bit samples.
	ErrInvalidAudioFormat = errors.New("invalid audio format")

	// ErrInvalidTurn flags an empty turn or a disallowed role passed to the
	// conversation store.
	ErrInvalidTurn = errors.New("invalid conversation turn")

	// ErrAlreadyInitialized flags a second Initialize on the same session.
	ErrAlreadyInitialized = errors.New("conversation already initialized")
)

// SpeechServiceError reports a failed round-trip to the speech service,
// for either recognition or synthesis. A no-match recognition outcome is
// NOT a SpeechServiceError; see TranscriptionResult.
type SpeechServiceError struct {
	Op  string // "transcribe" or "synthesize"
	Err error
}

func (e *SpeechServiceError) Error() string {
	return fmt.Sprintf("speech service: %s: %v", e.Op, e.Err)
}

func (e *SpeechServiceError) Unwrap() error { return e.Err }

// CompletionServiceError reports a failed round-trip to the completion
// service.
type CompletionServiceError struct {
	Err error
}

func (e *CompletionServiceError) Error() string {
	return fmt.Sprintf("completion service: %v", e.Err)
}

func (e *CompletionServiceError) Unwrap() error { return e.Err }

// ConfigurationError reports missing or invalid startup configuration.
// It is fatal at startup and prevents session initialization.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// IsSpeechServiceError reports whether err wraps a SpeechServiceError.
func IsSpeechServiceError(err error) bool {
	var se *SpeechServiceError
	return errors.As(err, &se)
}

// IsCompletionServiceError reports whether err wraps a CompletionServiceError.
func IsCompletionServiceError(err error) bool {
	var ce *CompletionServiceError
	return errors.As(err, &ce)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
