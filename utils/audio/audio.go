package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zaf/g711"

	"voicechat/core"
)

// Normalize wraps raw 16-bit little-endian PCM samples in a RIFF/WAVE
// container declaring the canonical mono / 16-bit / 16 kHz layout.
//
// The caller is responsible for capturing audio already at 16 kHz mono; no
// resampling or channel mixing happens here. The only structural check is
// that the byte length is a whole number of 16-bit samples.
func Normalize(rawSamples []byte) (core.AudioBuffer, error) {
	if len(rawSamples) == 0 {
		return core.AudioBuffer{}, fmt.Errorf("%w: empty sample buffer", core.ErrInvalidAudioFormat)
	}
	if len(rawSamples)%2 != 0 {
		return core.AudioBuffer{}, fmt.Errorf("%w: %d bytes is not a whole number of 16-bit samples",
			core.ErrInvalidAudioFormat, len(rawSamples))
	}

	data, err := PCMBytesToWavBytes(rawSamples, core.AudioChannels, core.AudioSampleRate)
	if err != nil {
		return core.AudioBuffer{}, fmt.Errorf("%w: %v", core.ErrInvalidAudioFormat, err)
	}

	return core.AudioBuffer{
		Data:          data,
		SampleRate:    core.AudioSampleRate,
		Channels:      core.AudioChannels,
		BitsPerSample: core.AudioBitsPerSample,
	}, nil
}

// FromWAV wraps an already-encoded WAV image in an AudioBuffer with the
// layout read back out of its header. Used for synthesizer output, which
// arrives with the container already in place.
func FromWAV(data []byte) (core.AudioBuffer, error) {
	if len(data) < core.WAVHeaderSize {
		return core.AudioBuffer{}, fmt.Errorf("%w: WAV image shorter than header", core.ErrInvalidAudioFormat)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return core.AudioBuffer{}, fmt.Errorf("%w: missing RIFF/WAVE header", core.ErrInvalidAudioFormat)
	}
	return core.AudioBuffer{
		Data:          data,
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}, nil
}

// PCMBytesToWavBytes wraps PCM []byte into WAV []byte (16-bit little endian).
// Supports mono or stereo.
func PCMBytesToWavBytes(pcm []byte, numChannels, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("PCM data is empty")
	}
	if numChannels <= 0 || numChannels > 2 {
		return nil, fmt.Errorf("only mono (1) or stereo (2) channels supported")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}
	if len(pcm)%(2*numChannels) != 0 {
		return nil, fmt.Errorf("PCM data length doesn't match channel count")
	}

	const (
		bitsPerSample  = 16
		audioFormatPCM = 1
		subchunk1Size  = 16
	)

	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := len(pcm)
	fileSize := 36 + dataSize

	buf := bytes.NewBuffer(make([]byte, 0, core.WAVHeaderSize+dataSize))

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	// fmt sub-chunk
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(subchunk1Size))
	binary.Write(buf, binary.LittleEndian, uint16(audioFormatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	// data sub-chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// StripWAVHeaderIfPresent returns raw PCM bytes if input starts with a
// RIFF/WAVE header, extracting only the "data" chunk. Non-WAV input is
// returned unchanged.
func StripWAVHeaderIfPresent(chunk []byte) ([]byte, error) {
	if len(chunk) < 12 {
		return chunk, nil
	}
	if !bytes.HasPrefix(chunk, []byte("RIFF")) || !bytes.Equal(chunk[8:12], []byte("WAVE")) {
		return chunk, nil
	}

	i := 12
	for i+8 <= len(chunk) {
		chunkID := string(chunk[i : i+4])
		chunkSize := binary.LittleEndian.Uint32(chunk[i+4 : i+8])
		next := i + 8 + int(chunkSize)

		if chunkID == "data" {
			if next > len(chunk) {
				return nil, fmt.Errorf("invalid WAV: data chunk exceeds buffer length")
			}
			return chunk[i+8 : next], nil
		}
		i = next
	}
	return nil, fmt.Errorf("invalid WAV: no data chunk found")
}

// DecodeUlawToPCM decodes 8-bit mu-law samples to 16-bit little-endian PCM.
// Telephony-style captures arrive mu-law encoded; decode before Normalize.
func DecodeUlawToPCM(uBytes []byte) []byte {
	return g711.DecodeUlaw(uBytes)
}

// DecodeAlawToPCM decodes 8-bit A-law samples to 16-bit little-endian PCM.
func DecodeAlawToPCM(aBytes []byte) []byte {
	return g711.DecodeAlaw(aBytes)
}

// ValidatePCMData validates a PCM byte array for basic integrity.
func ValidatePCMData(pcm []byte, numChannels int) error {
	if len(pcm) == 0 {
		return fmt.Errorf("PCM data is empty")
	}
	if len(pcm)%2 != 0 {
		return fmt.Errorf("PCM data must have even length (16-bit samples)")
	}
	if numChannels <= 0 {
		return fmt.Errorf("invalid number of channels")
	}
	if len(pcm)%(2*numChannels) != 0 {
		return fmt.Errorf("PCM data length doesn't match channel count")
	}
	return nil
}

// GetPCMSampleCount returns the number of 16-bit samples in PCM data.
func GetPCMSampleCount(pcm []byte) int {
	if len(pcm)%2 != 0 {
		return 0
	}
	return len(pcm) / 2
}

// GetPCMDurationSeconds returns duration in seconds.
func GetPCMDurationSeconds(pcm []byte, numChannels, sampleRate int) (float64, error) {
	if err := ValidatePCMData(pcm, numChannels); err != nil {
		return 0, err
	}
	if sampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate")
	}

	frameCount := GetPCMSampleCount(pcm) / numChannels
	return float64(frameCount) / float64(sampleRate), nil
}
