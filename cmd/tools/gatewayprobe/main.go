// Command gatewayprobe exercises a running gateway from the command line:
// it can post audio to the transcription endpoint, stream a synthesis
// request over the TTS channel, or hold a short chat on the client channel.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	mode := flag.String("mode", "", "probe mode: asr, tts or chat")
	base := flag.String("base", "http://localhost:8080", "gateway base URL")
	audioPath := flag.String("audio", "", "audio file to transcribe (asr mode)")
	text := flag.String("text", "", "text to synthesize or send as a chat turn")
	timeout := flag.Duration("timeout", 45*time.Second, "overall probe timeout")

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "asr":
		runASR(ctx, *base, *audioPath)
	case "tts":
		runTTS(ctx, *base, *text)
	case "chat":
		runChat(ctx, *base, *text)
	default:
		flag.Usage()
		log.Fatal("specify a probe mode with -mode=asr, -mode=tts or -mode=chat")
	}
}

func runASR(ctx context.Context, base, audioPath string) {
	if audioPath == "" {
		log.Fatal("asr mode requires an audio file via -audio")
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("read audio file: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		log.Fatalf("build multipart form: %v", err)
	}
	if _, err := part.Write(audio); err != nil {
		log.Fatalf("write audio into form: %v", err)
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("finalize form: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/asr", body)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("posting %d bytes of audio to /asr", len(audio))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("asr request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("asr returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		log.Fatalf("decode asr response: %v", err)
	}
	log.Printf("transcription: %q", result.Text)
}

func runTTS(ctx context.Context, base, text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode requires text via -text")
	}

	conn := dialWS(ctx, base, "/tts-ws")
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"text": text}); err != nil {
		log.Fatalf("send synthesis request: %v", err)
	}

	for {
		var event struct {
			Status    string `json:"status"`
			AudioPath string `json:"audioPath"`
			Text      string `json:"text"`
			Message   string `json:"message"`
		}
		conn.SetReadDeadline(deadlineFrom(ctx))
		if err := conn.ReadJSON(&event); err != nil {
			log.Fatalf("read synthesis event: %v", err)
		}

		switch event.Status {
		case "partial":
			log.Printf("partial: %q -> %s", event.Text, event.AudioPath)
		case "complete":
			log.Printf("synthesis complete")
			return
		case "error":
			log.Fatalf("synthesis failed: %s", event.Message)
		default:
			log.Printf("unexpected event: %+v", event)
		}
	}
}

func runChat(ctx context.Context, base, text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("chat mode requires text via -text")
	}

	conn := dialWS(ctx, base, "/client-ws")
	defer conn.Close()

	var hello struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	conn.SetReadDeadline(deadlineFrom(ctx))
	if err := conn.ReadJSON(&hello); err != nil {
		log.Fatalf("read hello frame: %v", err)
	}
	if hello.Type != "connected" {
		log.Fatalf("gateway refused the session: %s", hello.Message)
	}
	log.Printf("session established: %s", hello.SessionID)

	if err := conn.WriteJSON(map[string]string{"type": "chat", "text": text}); err != nil {
		log.Fatalf("send chat turn: %v", err)
	}

	var reply struct {
		Type    string `json:"type"`
		Text    string `json:"text"`
		Message string `json:"message"`
	}
	conn.SetReadDeadline(deadlineFrom(ctx))
	if err := conn.ReadJSON(&reply); err != nil {
		log.Fatalf("read chat reply: %v", err)
	}
	if reply.Type == "error" {
		log.Fatalf("chat failed: %s", reply.Message)
	}
	log.Printf("reply: %s", reply.Text)
}

func dialWS(ctx context.Context, base, path string) *websocket.Conn {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		log.Fatalf("invalid base URL: %v", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Fatalf("dial %s: %v", u.String(), err)
	}
	log.Printf("connected to %s", u.String())
	return conn
}

func deadlineFrom(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(45 * time.Second)
}
