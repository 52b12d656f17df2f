package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/core"
)

type stubCompletion struct {
	reply string
	err   error
	calls int
	// seen captures the history of the last call.
	seen []core.Turn
}

func (s *stubCompletion) Complete(_ context.Context, history []core.Turn, _ core.ChatParameters) (string, error) {
	s.calls++
	s.seen = history
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubTranscriber struct {
	result core.TranscriptionResult
	err    error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ core.AudioBuffer) (core.TranscriptionResult, error) {
	if s.err != nil {
		return core.NotRecognized(), s.err
	}
	return s.result, nil
}

type stubSynthesizer struct {
	err   error
	calls int
}

func (s *stubSynthesizer) Synthesize(_ context.Context, text string) (core.AudioBuffer, error) {
	s.calls++
	if s.err != nil {
		return core.AudioBuffer{}, s.err
	}
	return core.AudioBuffer{
		Data:          make([]byte, core.WAVHeaderSize+len(text)*2),
		SampleRate:    core.AudioSampleRate,
		Channels:      core.AudioChannels,
		BitsPerSample: core.AudioBitsPerSample,
	}, nil
}

func newTestSession(t *testing.T, config Config) *Session {
	t.Helper()
	if config.SystemPrompt == "" {
		config.SystemPrompt = "You are helpful."
	}
	if config.Completion == nil {
		config.Completion = &stubCompletion{reply: "Hi there"}
	}
	sess, err := New(config)
	require.NoError(t, err)
	return sess
}

func TestNewSeedsSystemTurn(t *testing.T) {
	sess := newTestSession(t, Config{SystemPrompt: "You are helpful."})

	history := sess.History()
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleSystem, history[0].Role)
	assert.Equal(t, "You are helpful.", history[0].Content)
	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, StateIdle, sess.State())
}

func TestNewRequiresCompletionClient(t *testing.T) {
	_, err := New(Config{SystemPrompt: "prompt"})
	assert.True(t, core.IsConfigurationError(err))
}

func TestSubmitTextAppendsBothTurns(t *testing.T) {
	completion := &stubCompletion{reply: "Hi there"}
	sess := newTestSession(t, Config{SystemPrompt: "You are helpful.", Completion: completion})

	result, err := sess.SubmitText(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", result.ReplyText)
	assert.Nil(t, result.ReplyAudio, "speech output disabled")
	assert.Empty(t, result.TranscribedText)
	assert.Empty(t, result.Warning)

	history := sess.History()
	require.Len(t, history, 3)
	assert.Equal(t, core.Turn{Role: core.RoleSystem, Content: "You are helpful."}, history[0])
	assert.Equal(t, core.Turn{Role: core.RoleUser, Content: "Hello"}, history[1])
	assert.Equal(t, core.Turn{Role: core.RoleAssistant, Content: "Hi there"}, history[2])

	// The completion saw system then user, in order.
	require.Len(t, completion.seen, 2)
	assert.Equal(t, core.RoleSystem, completion.seen[0].Role)
	assert.Equal(t, core.RoleUser, completion.seen[1].Role)

	assert.Equal(t, StateIdle, sess.State())
}

func TestSubmitTextEmptyFails(t *testing.T) {
	sess := newTestSession(t, Config{})

	_, err := sess.SubmitText(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidTurn)
	assert.Equal(t, 1, len(sess.History()))
}

func TestSubmitTextCompletionFailureKeepsUserTurn(t *testing.T) {
	completion := &stubCompletion{err: &core.CompletionServiceError{Err: fmt.Errorf("boom")}}
	sess := newTestSession(t, Config{Completion: completion})

	_, err := sess.SubmitText(context.Background(), "x")
	assert.True(t, core.IsCompletionServiceError(err))

	// No rollback: the user turn stays, with no assistant reply.
	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, core.Turn{Role: core.RoleUser, Content: "x"}, history[1])
	assert.Equal(t, StateIdle, sess.State())
}

func TestSubmitTextSynthesizesWhenSpeechEnabled(t *testing.T) {
	synth := &stubSynthesizer{}
	sess := newTestSession(t, Config{
		Synthesizer:   synth,
		SpeechEnabled: true,
	})

	result, err := sess.SubmitText(context.Background(), "Hello")
	require.NoError(t, err)
	require.NotNil(t, result.ReplyAudio)
	assert.Equal(t, core.AudioSampleRate, result.ReplyAudio.SampleRate)
	assert.Equal(t, 1, synth.calls)
}

func TestSubmitTextSynthesisFailureKeepsExchange(t *testing.T) {
	synth := &stubSynthesizer{err: &core.SpeechServiceError{Op: "synthesize", Err: fmt.Errorf("boom")}}
	sess := newTestSession(t, Config{
		Synthesizer:   synth,
		SpeechEnabled: true,
	})

	_, err := sess.SubmitText(context.Background(), "Hello")
	assert.True(t, core.IsSpeechServiceError(err))

	// Both turns were appended before synthesis failed.
	assert.Len(t, sess.History(), 3)
	assert.Equal(t, StateIdle, sess.State())
}

func TestSetSpeechEnabledTogglesSynthesis(t *testing.T) {
	synth := &stubSynthesizer{}
	sess := newTestSession(t, Config{Synthesizer: synth, SpeechEnabled: false})

	result, err := sess.SubmitText(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Nil(t, result.ReplyAudio)

	sess.SetSpeechEnabled(true)
	result, err = sess.SubmitText(context.Background(), "Again")
	require.NoError(t, err)
	assert.NotNil(t, result.ReplyAudio)
}

func TestSubmitAudioNotRecognized(t *testing.T) {
	sess := newTestSession(t, Config{
		Transcriber: &stubTranscriber{result: core.NotRecognized()},
	})

	result, err := sess.SubmitAudio(context.Background(), make([]byte, 22))
	require.NoError(t, err)
	assert.Empty(t, result.TranscribedText)
	assert.Empty(t, result.ReplyText)
	assert.Equal(t, WarningNotRecognized, result.Warning)

	// No history mutation: still just the system turn.
	assert.Len(t, sess.History(), 1)
	assert.Equal(t, StateIdle, sess.State())
}

func TestSubmitAudioRecognizedRunsFullExchange(t *testing.T) {
	completion := &stubCompletion{reply: "Nice to meet you"}
	sess := newTestSession(t, Config{
		Completion:  completion,
		Transcriber: &stubTranscriber{result: core.Recognized("my name is Ada")},
	})

	result, err := sess.SubmitAudio(context.Background(), make([]byte, 640))
	require.NoError(t, err)
	assert.Equal(t, "my name is Ada", result.TranscribedText)
	assert.Equal(t, "Nice to meet you", result.ReplyText)

	history := sess.History()
	require.Len(t, history, 3)
	assert.Equal(t, core.Turn{Role: core.RoleUser, Content: "my name is Ada"}, history[1])
	assert.Equal(t, core.Turn{Role: core.RoleAssistant, Content: "Nice to meet you"}, history[2])
}

func TestSubmitAudioOddLengthFails(t *testing.T) {
	sess := newTestSession(t, Config{
		Transcriber: &stubTranscriber{result: core.Recognized("hello")},
	})

	_, err := sess.SubmitAudio(context.Background(), make([]byte, 21))
	assert.ErrorIs(t, err, core.ErrInvalidAudioFormat)
	assert.Len(t, sess.History(), 1)
}

func TestSubmitAudioServiceFailurePropagates(t *testing.T) {
	sess := newTestSession(t, Config{
		Transcriber: &stubTranscriber{err: &core.SpeechServiceError{Op: "transcribe", Err: fmt.Errorf("down")}},
	})

	_, err := sess.SubmitAudio(context.Background(), make([]byte, 640))
	assert.True(t, core.IsSpeechServiceError(err))
	assert.Len(t, sess.History(), 1)
}

func TestSubmitAudioWithoutTranscriberFails(t *testing.T) {
	sess := newTestSession(t, Config{})

	_, err := sess.SubmitAudio(context.Background(), make([]byte, 640))
	assert.True(t, core.IsConfigurationError(err))
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(Config{
		SystemPrompt: "prompt",
		Completion:   &stubCompletion{reply: "ok"},
	})

	sess, err := m.InitializeSession()
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	// Sessions do not share history.
	other, err := m.InitializeSession()
	require.NoError(t, err)
	_, err = other.SubmitText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, sess.History(), 1)
	assert.Len(t, other.History(), 3)

	m.Discard(sess.ID())
	_, err = m.Get(sess.ID())
	assert.ErrorIs(t, err, ErrUnknownSession)
}
