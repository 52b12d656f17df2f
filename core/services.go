package core

import "context"

// Transcriber wraps a speech-to-text capability. One call is one
// single-utterance recognition attempt, no streaming or partial results.
type Transcriber interface {
	Transcribe(ctx context.Context, buffer AudioBuffer) (TranscriptionResult, error)
}

// Synthesizer wraps a text-to-speech capability. One call synthesizes the
// entire text and returns the complete encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (AudioBuffer, error)
}

// CompletionClient wraps a chat completion capability. The full ordered
// history (system turn first) is sent on every call; the reply is returned
// with surrounding whitespace trimmed.
type CompletionClient interface {
	Complete(ctx context.Context, history []Turn, params ChatParameters) (string, error)
}
