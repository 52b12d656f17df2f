// Package stt implements the transcriber on the Azure Speech short-audio
// recognition REST API.
package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bytedance/sonic"

	"voicechat/core"
)

// Config holds connection options for the Azure Speech recognition endpoint.
type Config struct {
	APIKey   string `json:"api_key"`
	Region   string `json:"region"`
	Language string `json:"language"`
	// BaseURL overrides the regional endpoint, mainly for tests.
	BaseURL string `json:"base_url,omitempty"`
}

// DefaultConfig returns a Config with the recognition language pre-set.
// Populate APIKey and Region before use.
func DefaultConfig() Config {
	return Config{
		Language: "en-US",
	}
}

// AzureTranscriber implements core.Transcriber with one-shot, single
// utterance recognition. No streaming, no partial results: one buffer in,
// one definitive outcome back.
type AzureTranscriber struct {
	config     Config
	httpClient *http.Client
	logger     *core.Logger
}

func NewAzureTranscriber(config Config, logger *core.Logger) (*AzureTranscriber, error) {
	if config.APIKey == "" {
		return nil, &core.ConfigurationError{Field: "api_key", Reason: "Azure Speech API key is required"}
	}
	if config.Region == "" && config.BaseURL == "" {
		return nil, &core.ConfigurationError{Field: "region", Reason: "Azure Speech region is required"}
	}
	if config.Language == "" {
		config.Language = "en-US"
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	return &AzureTranscriber{
		config:     config,
		httpClient: &http.Client{},
		logger:     logger.With(map[string]any{"component": "azure_stt"}),
	}, nil
}

// recognitionResponse is the service's outcome envelope for short-audio
// recognition.
type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// Definitive non-speech outcomes. These map to NotRecognized rather than an
// error: the audio was valid, the service just heard nothing usable.
var noSpeechStatuses = map[string]struct{}{
	"NoMatch":               {},
	"InitialSilenceTimeout": {},
	"BabbleTimeout":         {},
}

// Transcribe stages the buffer to a transient file and runs one recognition
// attempt against it. Callers must distinguish the NotRecognized result from
// a SpeechServiceError; only the latter is a failure.
func (t *AzureTranscriber) Transcribe(ctx context.Context, buffer core.AudioBuffer) (core.TranscriptionResult, error) {
	path, err := t.stageBuffer(buffer)
	if err != nil {
		return core.NotRecognized(), &core.SpeechServiceError{Op: "transcribe", Err: err}
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return core.NotRecognized(), &core.SpeechServiceError{Op: "transcribe", Err: err}
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.recognitionURL(), f)
	if err != nil {
		return core.NotRecognized(), &core.SpeechServiceError{Op: "transcribe", Err: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", t.config.APIKey)
	req.Header.Set("Content-Type",
		fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", buffer.SampleRate))
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return core.NotRecognized(), &core.SpeechServiceError{Op: "transcribe", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.NotRecognized(), &core.SpeechServiceError{Op: "transcribe", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return core.NotRecognized(), &core.SpeechServiceError{
			Op:  "transcribe",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
		}
	}

	var outcome recognitionResponse
	if err := sonic.Unmarshal(body, &outcome); err != nil {
		return core.NotRecognized(), &core.SpeechServiceError{Op: "transcribe", Err: err}
	}

	switch {
	case outcome.RecognitionStatus == "Success" && outcome.DisplayText != "":
		t.logger.Debug("utterance recognized", "chars", len(outcome.DisplayText))
		return core.Recognized(outcome.DisplayText), nil
	case outcome.RecognitionStatus == "Success":
		// Recognized-speech outcome with nothing to show: treat as no match
		// so the Recognized text stays non-empty.
		return core.NotRecognized(), nil
	default:
		if _, ok := noSpeechStatuses[outcome.RecognitionStatus]; ok {
			t.logger.Debug("no speech recognized", "status", outcome.RecognitionStatus)
			return core.NotRecognized(), nil
		}
		return core.NotRecognized(), &core.SpeechServiceError{
			Op:  "transcribe",
			Err: fmt.Errorf("unexpected recognition status %q", outcome.RecognitionStatus),
		}
	}
}

// stageBuffer persists the encoded audio to a transient location readable by
// the request body stream. The file lives only for the duration of the call.
func (t *AzureTranscriber) stageBuffer(buffer core.AudioBuffer) (string, error) {
	tmp, err := os.CreateTemp("", "utterance-*.wav")
	if err != nil {
		return "", fmt.Errorf("stage audio: %w", err)
	}
	if _, err := tmp.Write(buffer.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage audio: %w", err)
	}
	return tmp.Name(), nil
}

func (t *AzureTranscriber) recognitionURL() string {
	base := t.config.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.stt.speech.microsoft.com", t.config.Region)
	}
	return fmt.Sprintf("%s/speech/recognition/conversation/cognitiveservices/v1?language=%s&format=simple",
		base, t.config.Language)
}
