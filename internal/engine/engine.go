// Package engine defines the boundary to the black-box speech models. The
// gateway never sees model internals; it hands normalized samples or text to
// an engine and gets text or an audio artifact back.
package engine

import "context"

// Transcriber converts normalized PCM samples into text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Synthesizer renders text into an audio artifact stored under the given
// name (without extension) and returns the artifact path. Artifact names are
// globally unique, so the store is append-only and needs no locking.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, nameNoExt string) (string, error)
}
