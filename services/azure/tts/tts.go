// Package tts implements the synthesizer on the Azure Speech synthesis
// REST API.
package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"voicechat/core"
	"voicechat/utils/audio"
	"voicechat/utils/text"
)

// Config holds connection and voice options for the Azure Speech synthesis
// endpoint.
type Config struct {
	APIKey   string `json:"api_key"`
	Region   string `json:"region"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	// BaseURL overrides the regional endpoint, mainly for tests.
	BaseURL string `json:"base_url,omitempty"`
}

// DefaultConfig returns a Config with the default voice pre-set. Populate
// APIKey and Region before use.
func DefaultConfig() Config {
	return Config{
		Voice:    "en-US-AndrewMultilingualNeural",
		Language: "en-US",
	}
}

// outputFormat keeps synthesized audio on the same canonical layout the
// rest of the pipeline speaks: RIFF container, 16 kHz, 16-bit, mono.
const outputFormat = "riff-16khz-16bit-mono-pcm"

// AzureSynthesizer implements core.Synthesizer with one synthesis call per
// reply. No chunking, no streaming playback: the complete encoded audio is
// returned in one piece. Calls are idempotent up to voice-model
// non-determinism; identical text and voice configuration yield equivalent
// audio.
type AzureSynthesizer struct {
	config     Config
	httpClient *http.Client
	normalizer text.INormalizer
	logger     *core.Logger
}

func NewAzureSynthesizer(config Config, logger *core.Logger) (*AzureSynthesizer, error) {
	if config.APIKey == "" {
		return nil, &core.ConfigurationError{Field: "api_key", Reason: "Azure Speech API key is required"}
	}
	if config.Region == "" && config.BaseURL == "" {
		return nil, &core.ConfigurationError{Field: "region", Reason: "Azure Speech region is required"}
	}
	if config.Voice == "" {
		config.Voice = DefaultConfig().Voice
	}
	if config.Language == "" {
		config.Language = DefaultConfig().Language
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	return &AzureSynthesizer{
		config:     config,
		httpClient: &http.Client{},
		normalizer: text.NewSpeechNormalizer(),
		logger:     logger.With(map[string]any{"component": "azure_tts"}),
	}, nil
}

// Synthesize converts the reply text to audio in a single service call and
// returns the complete encoded buffer. Any outcome other than completed
// audio fails with a SpeechServiceError.
func (s *AzureSynthesizer) Synthesize(ctx context.Context, replyText string) (core.AudioBuffer, error) {
	if replyText == "" {
		return core.AudioBuffer{}, &core.SpeechServiceError{
			Op:  "synthesize",
			Err: fmt.Errorf("empty text"),
		}
	}

	spoken := s.normalizer.Normalize(replyText)
	if spoken == "" {
		// Markdown-only replies normalize to nothing; fall back to the raw
		// text rather than sending an empty synthesis request.
		spoken = replyText
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.synthesisURL(),
		strings.NewReader(s.buildSSML(spoken)))
	if err != nil {
		return core.AudioBuffer{}, &core.SpeechServiceError{Op: "synthesize", Err: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.config.APIKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return core.AudioBuffer{}, &core.SpeechServiceError{Op: "synthesize", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AudioBuffer{}, &core.SpeechServiceError{Op: "synthesize", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return core.AudioBuffer{}, &core.SpeechServiceError{
			Op:  "synthesize",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
		}
	}

	buffer, err := audio.FromWAV(body)
	if err != nil {
		return core.AudioBuffer{}, &core.SpeechServiceError{
			Op:  "synthesize",
			Err: fmt.Errorf("service returned malformed audio: %w", err),
		}
	}

	s.logger.Debug("synthesis finished",
		"chars", len(spoken),
		"duration_s", buffer.DurationSeconds(),
	)
	return buffer, nil
}

func (s *AzureSynthesizer) buildSSML(spoken string) string {
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		s.config.Language, s.config.Voice, escapeSSML(spoken))
}

func (s *AzureSynthesizer) synthesisURL() string {
	base := s.config.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.tts.speech.microsoft.com", s.config.Region)
	}
	return base + "/cognitiveservices/v1"
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeSSML(s string) string {
	return ssmlEscaper.Replace(s)
}
