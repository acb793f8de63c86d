package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// HTTPTranscriber talks to an ASR sidecar over its REST API. Samples are sent
// as little-endian float32 PCM; the sidecar answers {"text": "..."}.
type HTTPTranscriber struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTranscriber builds a transcriber against the sidecar base URL.
// Timeouts come from the caller's context, not the client.
func NewHTTPTranscriber(baseURL string) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Transcribe sends the sample buffer for recognition.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, samples []float32) (string, error) {
	body := &bytes.Buffer{}
	if err := binary.Write(body, binary.LittleEndian, samples); err != nil {
		return "", fmt.Errorf("encode samples: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", body)
	if err != nil {
		return "", fmt.Errorf("build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("asr engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("asr engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode asr response: %w", err)
	}
	return payload.Text, nil
}

// HTTPSynthesizer talks to a TTS sidecar over its REST API and stores the
// returned audio in the local artifact cache.
type HTTPSynthesizer struct {
	baseURL  string
	cacheDir string
	ext      string
	voice    func() string
	client   *http.Client
}

// NewHTTPSynthesizer builds a synthesizer against the sidecar base URL. voice
// is resolved per call so the active profile's voice applies without
// rebuilding the engine.
func NewHTTPSynthesizer(baseURL, cacheDir string, voice func() string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
		ext:      ".mp3",
		voice:    voice,
		client:   &http.Client{},
	}
}

// Synthesize renders text and writes the audio under cacheDir/nameNoExt.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, nameNoExt string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text":  text,
		"voice": s.voice(),
	})
	if err != nil {
		return "", fmt.Errorf("encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tts engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("tts engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("tts engine returned empty audio")
	}

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare audio cache: %w", err)
	}

	path := filepath.Join(s.cacheDir, nameNoExt+s.ext)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("store synthesized audio: %w", err)
	}
	return path, nil
}
