package core

// AudioBuffer is an encoded audio clip: 16-bit little-endian PCM wrapped in
// a RIFF/WAVE container whose header declares the layout below. Buffers are
// produced by the normalizer or the synthesizer and never mutated afterwards.
type AudioBuffer struct {
	Data          []byte // complete WAV image, header plus PCM payload
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DurationSeconds returns the playback length of the buffer.
func (b AudioBuffer) DurationSeconds() float64 {
	if b.SampleRate == 0 || b.Channels == 0 || b.BitsPerSample == 0 {
		return 0.0
	}
	bytesPerFrame := b.Channels * b.BitsPerSample / 8
	payload := len(b.Data) - WAVHeaderSize
	if payload <= 0 {
		return 0.0
	}
	return float64(payload/bytesPerFrame) / float64(b.SampleRate)
}

// Canonical capture/synthesis layout: mono, 16-bit samples, 16 kHz.
const (
	AudioSampleRate    = 16000
	AudioChannels      = 1
	AudioBitsPerSample = 16
)

// WAVHeaderSize is the size of the canonical 44-byte RIFF header produced by
// the normalizer.
const WAVHeaderSize = 44
