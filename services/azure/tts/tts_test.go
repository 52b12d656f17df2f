package tts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/core"
	"voicechat/utils/audio"
)

func newTestSynthesizer(t *testing.T, handler http.HandlerFunc) *AzureSynthesizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	s, err := NewAzureSynthesizer(cfg, nil)
	require.NoError(t, err)
	return s
}

func testWAV(t *testing.T) []byte {
	t.Helper()
	wav, err := audio.PCMBytesToWavBytes(make([]byte, 3200), 1, 16000)
	require.NoError(t, err)
	return wav
}

func TestSynthesizeReturnsCompleteBuffer(t *testing.T) {
	var gotSSML string
	var gotFormat string
	wav := testWAV(t)
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSSML = string(body)
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		w.Write(wav)
	})

	buf, err := s.Synthesize(context.Background(), "Hello there.")
	require.NoError(t, err)
	assert.Equal(t, wav, buf.Data)
	assert.Equal(t, 16000, buf.SampleRate)
	assert.Equal(t, 1, buf.Channels)

	assert.Equal(t, "riff-16khz-16bit-mono-pcm", gotFormat)
	assert.Contains(t, gotSSML, "en-US-AndrewMultilingualNeural")
	assert.Contains(t, gotSSML, "Hello there.")
}

func TestSynthesizeNormalizesMarkdown(t *testing.T) {
	var gotSSML string
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSSML = string(body)
		w.Write(testWAV(t))
	})

	_, err := s.Synthesize(context.Background(), "That is **very** important.")
	require.NoError(t, err)
	assert.Contains(t, gotSSML, "That is very important.")
	assert.NotContains(t, gotSSML, "**")
}

func TestSynthesizeEscapesSSML(t *testing.T) {
	var gotSSML string
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSSML = string(body)
		w.Write(testWAV(t))
	})

	_, err := s.Synthesize(context.Background(), "5 < 7 & 7 > 5")
	require.NoError(t, err)
	assert.Contains(t, gotSSML, "5 &lt; 7 &amp; 7 &gt; 5")
}

func TestSynthesizeServiceFailure(t *testing.T) {
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := s.Synthesize(context.Background(), "Hello")
	assert.True(t, core.IsSpeechServiceError(err))
}

func TestSynthesizeMalformedAudioIsFailure(t *testing.T) {
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not audio"))
	})

	_, err := s.Synthesize(context.Background(), "Hello")
	assert.True(t, core.IsSpeechServiceError(err))
}

func TestSynthesizeEmptyTextFails(t *testing.T) {
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(testWAV(t))
	})

	_, err := s.Synthesize(context.Background(), "")
	assert.True(t, core.IsSpeechServiceError(err))
}

func TestBuildSSMLUsesConfiguredVoice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k"
	cfg.Region = "westeurope"
	cfg.Voice = "en-GB-RyanNeural"
	cfg.Language = "en-GB"
	s, err := NewAzureSynthesizer(cfg, nil)
	require.NoError(t, err)

	ssml := s.buildSSML("Hello")
	assert.True(t, strings.Contains(ssml, `xml:lang='en-GB'`))
	assert.True(t, strings.Contains(ssml, `name='en-GB-RyanNeural'`))
}
