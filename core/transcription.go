package core

// TranscriptionResult is the outcome of a single recognition attempt.
// "The service could not make out any words" is a normal outcome, not an
// error, and is distinct from a transport or service failure.
type TranscriptionResult struct {
	Text       string
	Recognized bool
}

// Recognized wraps non-empty recognized text.
func Recognized(text string) TranscriptionResult {
	return TranscriptionResult{Text: text, Recognized: true}
}

// NotRecognized is the sentinel result for valid but unintelligible audio.
func NotRecognized() TranscriptionResult {
	return TranscriptionResult{}
}
