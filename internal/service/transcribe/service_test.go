package transcribe

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/mikoto-studio/vstage/internal/service/audio"
)

type fakeTranscriber struct {
	text    string
	err     error
	samples []float32
}

func (f *fakeTranscriber) Transcribe(_ context.Context, samples []float32) (string, error) {
	f.samples = samples
	return f.text, f.err
}

func validWAV(samples ...int16) []byte {
	raw := make([]byte, 44+len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[44+i*2:], uint16(s))
	}
	return raw
}

func TestTranscribePropagatesFormatErrors(t *testing.T) {
	svc := NewService(&fakeTranscriber{}, time.Second)

	if _, err := svc.Transcribe(context.Background(), make([]byte, 10)); !errors.Is(err, audio.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := svc.Transcribe(context.Background(), validWAV()); !errors.Is(err, audio.ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestTranscribeWrapsEngineFailure(t *testing.T) {
	fake := &fakeTranscriber{err: errors.New("model exploded")}
	svc := NewService(fake, time.Second)

	_, err := svc.Transcribe(context.Background(), validWAV(1, 2, 3))
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("expected ErrTranscriptionFailed, got %v", err)
	}
	if errors.Is(err, audio.ErrInvalidFormat) {
		t.Fatalf("engine failure must not look like a format error")
	}
}

func TestTranscribeReturnsEngineText(t *testing.T) {
	fake := &fakeTranscriber{text: "hello there"}
	svc := NewService(fake, time.Second)

	text, err := svc.Transcribe(context.Background(), validWAV(100, -100))
	if err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(fake.samples) != 2 {
		t.Fatalf("expected 2 samples forwarded, got %d", len(fake.samples))
	}
}
