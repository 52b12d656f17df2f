// Package protocol defines the envelope and payloads spoken between the
// gateway and its UI clients.
package protocol

import "encoding/json"

// MessageType enumerates all gateway message types.
type MessageType string

const (
	// UI -> gateway
	MsgInitSession    MessageType = "init_session"
	MsgSubmitText     MessageType = "submit_text"
	MsgSubmitAudio    MessageType = "submit_audio"
	MsgGetHistory     MessageType = "get_history"
	MsgSetSpeech      MessageType = "set_speech"
	MsgDiscardSession MessageType = "discard_session"

	// gateway -> UI
	MsgSession MessageType = "session"
	MsgReply   MessageType = "reply"
	MsgHistory MessageType = "history"
	MsgSpeech  MessageType = "speech"
	MsgError   MessageType = "error"
)

// Envelope is the outer JSON wrapper for all WebSocket text messages.
// Audio travels in the binary frame that follows its announcing envelope.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- UI -> gateway payloads ---

// SubmitTextPayload carries one typed user turn.
type SubmitTextPayload struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// AudioEncoding names the sample encoding of an inbound binary audio frame.
type AudioEncoding string

const (
	EncodingPCM16 AudioEncoding = "pcm16" // raw 16-bit little-endian PCM
	EncodingWAV   AudioEncoding = "wav"   // RIFF-wrapped PCM, header is stripped
	EncodingUlaw  AudioEncoding = "ulaw"  // 8-bit mu-law, decoded to PCM16
	EncodingAlaw  AudioEncoding = "alaw"  // 8-bit A-law, decoded to PCM16
)

// SubmitAudioPayload announces a recorded user turn; the next binary frame
// on the connection is the audio itself.
type SubmitAudioPayload struct {
	SessionID string        `json:"session_id"`
	Encoding  AudioEncoding `json:"encoding,omitempty"` // defaults to pcm16
}

// GetHistoryPayload requests the transcript for rendering.
type GetHistoryPayload struct {
	SessionID string `json:"session_id"`
}

// SetSpeechPayload toggles spoken replies for a session.
type SetSpeechPayload struct {
	SessionID string `json:"session_id"`
	Enabled   bool   `json:"enabled"`
}

// DiscardSessionPayload drops a session and its history.
type DiscardSessionPayload struct {
	SessionID string `json:"session_id"`
}

// --- gateway -> UI payloads ---

// SessionPayload answers init_session with the new handle.
type SessionPayload struct {
	SessionID     string `json:"session_id"`
	SpeechEnabled bool   `json:"speech_enabled"`
}

// ReplyPayload carries the outcome of one submission. When HasAudio is set
// the next binary frame is the synthesized reply as a WAV image. When
// Warning is set the recording was unintelligible and nothing was appended.
type ReplyPayload struct {
	SessionID       string `json:"session_id"`
	TranscribedText string `json:"transcribed_text,omitempty"`
	ReplyText       string `json:"reply_text,omitempty"`
	Warning         string `json:"warning,omitempty"`
	HasAudio        bool   `json:"has_audio"`
}

// HistoryTurn is one rendered transcript entry.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryPayload answers get_history.
type HistoryPayload struct {
	SessionID string        `json:"session_id"`
	Turns     []HistoryTurn `json:"turns"`
}

// SpeechPayload acknowledges set_speech.
type SpeechPayload struct {
	SessionID string `json:"session_id"`
	Enabled   bool   `json:"enabled"`
}

// ErrorPayload reports a failed request.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes mirroring the error taxonomy.
const (
	CodeInvalidAudioFormat = "invalid_audio_format"
	CodeInvalidTurn        = "invalid_turn"
	CodeSpeechService      = "speech_service_error"
	CodeCompletionService  = "completion_service_error"
	CodeConfiguration      = "configuration_error"
	CodeUnknownSession     = "unknown_session"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
)
