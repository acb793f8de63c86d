package synthesis

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikoto-studio/vstage/internal/engine"
)

// Event statuses emitted by the pipeline, in wire form.
const (
	StatusPartial  = "partial"
	StatusComplete = "complete"
	StatusError    = "error"
)

// Event is one pipeline result. A request produces zero or more partial
// events in sentence order followed by exactly one complete or error event;
// nothing follows the terminal event.
type Event struct {
	Status    string
	AudioPath string
	Text      string
	Message   string
}

// Pipeline turns a synthesis request into an ordered event stream. It holds
// no per-request state; each Run is independent.
type Pipeline struct {
	tts     engine.Synthesizer
	timeout time.Duration
}

// NewPipeline wires the pipeline to its TTS engine. timeout bounds a single
// engine call; zero disables the bound.
func NewPipeline(tts engine.Synthesizer, timeout time.Duration) *Pipeline {
	return &Pipeline{tts: tts, timeout: timeout}
}

// Run segments text and synthesizes each unit strictly in order, calling emit
// for every event before moving on. Empty or whitespace-only text is a no-op;
// any other text ends in exactly one terminal event, even when it segments to
// zero speakable units. An engine failure emits one error event and stops;
// already-emitted partials stand. An emit failure means the caller's
// connection is gone, so Run abandons the rest of the request. Cancellation is
// checked between units; an in-flight engine call runs to completion.
func (p *Pipeline) Run(ctx context.Context, text string, emit func(Event) error) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	units := SplitSentences(text)

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}

		audioPath, err := p.synthesizeUnit(ctx, unit)
		if err != nil {
			log.Printf("[synthesis] engine failed for unit %q: %v", unit, err)
			return emit(Event{Status: StatusError, Message: err.Error()})
		}

		if err := emit(Event{Status: StatusPartial, AudioPath: audioPath, Text: unit}); err != nil {
			return err
		}
	}

	return emit(Event{Status: StatusComplete})
}

func (p *Pipeline) synthesizeUnit(ctx context.Context, unit string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.tts.Synthesize(ctx, unit, artifactName(time.Now()))
}

// artifactName yields a globally unique audio name so concurrent sessions
// never collide in the shared artifact store.
func artifactName(now time.Time) string {
	return now.Format("20060102_150405") + "_" + uuid.NewString()[:8]
}
