package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikoto-studio/vstage/internal/engine"
	"github.com/mikoto-studio/vstage/internal/service/audio"
)

// ErrTranscriptionFailed marks an ASR engine failure, as opposed to bad input.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Service validates uploaded audio and forwards it to the ASR engine.
type Service struct {
	asr     engine.Transcriber
	timeout time.Duration
}

// NewService wires the transcription service to its engine. timeout bounds a
// single engine call; zero disables the bound.
func NewService(asr engine.Transcriber, timeout time.Duration) *Service {
	return &Service{asr: asr, timeout: timeout}
}

// Transcribe decodes raw container bytes and runs recognition. Input problems
// surface as audio codec errors; engine problems wrap ErrTranscriptionFailed.
// There are no retries.
func (s *Service) Transcribe(ctx context.Context, raw []byte) (string, error) {
	samples, err := audio.Decode(raw)
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.asr.Transcribe(ctx, samples)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return text, nil
}
