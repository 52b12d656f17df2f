// Package session drives one conversation turn at a time through the
// pipeline: optional transcription, history append, completion, optional
// synthesis.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"voicechat/conversation"
	"voicechat/core"
	"voicechat/utils/audio"
)

// State is the orchestrator's position in the turn pipeline. Every
// submission starts and ends at Idle; failures return to Idle after the
// error is surfaced, never leaving a stuck intermediate state.
type State int

const (
	StateIdle State = iota
	StateAwaitingTranscription
	StateAwaitingCompletion
	StateAwaitingSynthesis
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingTranscription:
		return "awaiting_transcription"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateAwaitingSynthesis:
		return "awaiting_synthesis"
	}
	return "unknown"
}

// WarningNotRecognized is the soft warning returned when a recording held
// no recognizable speech.
const WarningNotRecognized = "could not understand recording"

// TurnResult is what one submission hands back to the caller.
type TurnResult struct {
	// TranscribedText echoes the recognized text of an audio submission so
	// the caller can render it as the user's turn. Empty for text input.
	TranscribedText string
	// ReplyText is the assistant reply appended to the history.
	ReplyText string
	// ReplyAudio is the synthesized reply, nil when spoken replies are off.
	ReplyAudio *core.AudioBuffer
	// Warning is set instead of a reply when the recording was valid but
	// unintelligible. No history mutation happened in that case.
	Warning string
}

// Config assembles one session's collaborators. Completion is always
// required; Transcriber and Synthesizer may be nil when audio input or
// spoken replies are not used.
type Config struct {
	SystemPrompt  string
	Params        core.ChatParameters
	Completion    core.CompletionClient
	Transcriber   core.Transcriber
	Synthesizer   core.Synthesizer
	SpeechEnabled bool
	Logger        *core.Logger
}

// Session owns one conversation: its history, its resolved parameters, and
// the orchestration state machine. Submissions are serialized by a
// per-session lock so append order always matches submission order.
type Session struct {
	id string

	mu    sync.Mutex // serializes whole submissions
	state State

	store       *conversation.Store
	params      core.ChatParameters
	completion  core.CompletionClient
	transcriber core.Transcriber
	synthesizer core.Synthesizer

	speechMu      sync.RWMutex
	speechEnabled bool

	logger *core.Logger
}

// New creates a session and seeds its history with the system prompt.
func New(config Config) (*Session, error) {
	if config.Completion == nil {
		return nil, &core.ConfigurationError{Field: "completion", Reason: "completion client is required"}
	}
	logger := config.Logger
	if logger == nil {
		logger = core.GetLogger()
	}

	store := conversation.NewStore()
	if err := store.Initialize(config.SystemPrompt); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Session{
		id:            id,
		state:         StateIdle,
		store:         store,
		params:        config.Params,
		completion:    config.Completion,
		transcriber:   config.Transcriber,
		synthesizer:   config.Synthesizer,
		speechEnabled: config.SpeechEnabled,
		logger:        logger.With(map[string]any{"session_id": id}),
	}, nil
}

// ID returns the session handle identifier.
func (s *Session) ID() string { return s.id }

// State returns the current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns the ordered turn sequence for rendering. Read-only.
func (s *Session) History() []core.Turn {
	return s.store.History()
}

// SetSpeechEnabled toggles spoken replies for subsequent submissions.
func (s *Session) SetSpeechEnabled(enabled bool) {
	s.speechMu.Lock()
	s.speechEnabled = enabled
	s.speechMu.Unlock()
}

// SpeechEnabled reports whether replies are synthesized to audio.
func (s *Session) SpeechEnabled() bool {
	s.speechMu.RLock()
	defer s.speechMu.RUnlock()
	return s.speechEnabled
}

// SubmitText runs one typed user turn through the pipeline: append the user
// turn, complete, append the assistant turn, optionally synthesize.
//
// A failure at any step aborts the remaining steps; turns appended before
// the failure stay in the history. There is no rollback: a user turn can
// end up with no assistant reply when completion fails.
func (s *Session) SubmitText(ctx context.Context, userText string) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.toIdle()

	if userText == "" {
		return TurnResult{}, fmt.Errorf("%w: empty user text", core.ErrInvalidTurn)
	}
	return s.runExchange(ctx, userText, "")
}

// SubmitAudio runs one recorded user turn through the pipeline: normalize,
// transcribe, then proceed exactly as SubmitText with the recognized text.
//
// An unintelligible recording is not a failure: the result carries a soft
// warning, no turn is appended, and the next submission starts clean.
func (s *Session) SubmitAudio(ctx context.Context, rawSamples []byte) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.toIdle()

	if s.transcriber == nil {
		return TurnResult{}, &core.ConfigurationError{Field: "transcriber", Reason: "audio input is not configured"}
	}

	buffer, err := audio.Normalize(rawSamples)
	if err != nil {
		return TurnResult{}, err
	}

	s.state = StateAwaitingTranscription
	result, err := s.transcriber.Transcribe(ctx, buffer)
	if err != nil {
		return TurnResult{}, err
	}
	if !result.Recognized {
		s.logger.Info("recording not recognized", "duration_s", buffer.DurationSeconds())
		return TurnResult{Warning: WarningNotRecognized}, nil
	}

	return s.runExchange(ctx, result.Text, result.Text)
}

// runExchange is the shared tail of both entry points. Caller holds s.mu.
func (s *Session) runExchange(ctx context.Context, userText, transcribed string) (TurnResult, error) {
	if err := s.store.Append(core.RoleUser, userText); err != nil {
		return TurnResult{}, err
	}

	s.state = StateAwaitingCompletion
	reply, err := s.completion.Complete(ctx, s.store.History(), s.params)
	if err != nil {
		return TurnResult{}, err
	}

	if err := s.store.Append(core.RoleAssistant, reply); err != nil {
		return TurnResult{}, err
	}

	res := TurnResult{
		TranscribedText: transcribed,
		ReplyText:       reply,
	}

	if s.SpeechEnabled() && s.synthesizer != nil {
		s.state = StateAwaitingSynthesis
		replyAudio, err := s.synthesizer.Synthesize(ctx, reply)
		if err != nil {
			// The exchange is already in the history; the caller gets the
			// synthesis failure and may resubmit or read the transcript.
			return TurnResult{}, err
		}
		res.ReplyAudio = &replyAudio
	}

	s.logger.Info("turn completed",
		"history_len", s.store.Len(),
		"spoken", res.ReplyAudio != nil,
	)
	return res, nil
}

// toIdle resets the pipeline state after a submission, successful or not.
func (s *Session) toIdle() {
	s.state = StateIdle
}
