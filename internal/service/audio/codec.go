// Package audio decodes uploaded audio containers into normalized samples.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat marks malformed or undersized audio input.
	ErrInvalidFormat = errors.New("invalid audio format")
	// ErrEmptyAudio marks input that decodes to zero samples.
	ErrEmptyAudio = errors.New("empty audio data")
)

const (
	// headerSize is the standard WAV header length in bytes.
	headerSize = 44
	// sampleWidth is the byte width of one 16-bit PCM sample.
	sampleWidth = 2
)

// Decode strips the WAV header from raw and converts the 16-bit little-endian
// PCM body into float32 samples normalized to [-1.0, 1.0).
func Decode(raw []byte) ([]float32, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("%w: file too small for a WAV header", ErrInvalidFormat)
	}

	body := raw[headerSize:]
	if len(body)%sampleWidth != 0 {
		return nil, fmt.Errorf("%w: PCM body length must be a multiple of %d", ErrInvalidFormat, sampleWidth)
	}

	samples := make([]float32, len(body)/sampleWidth)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(body[i*sampleWidth:]))
		samples[i] = float32(v) / 32768.0
	}

	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	return samples, nil
}
