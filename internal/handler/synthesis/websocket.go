// Package synthesis serves the dedicated TTS WebSocket channel. It lives on
// its own endpoint so audio generation never queues behind conversation
// traffic on the client channel.
package synthesis

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	synthesissvc "github.com/mikoto-studio/vstage/internal/service/synthesis"
)

// Runner abstracts the speech pipeline for testing.
type Runner interface {
	Run(ctx context.Context, text string, emit func(synthesissvc.Event) error) error
}

// Handler upgrades /tts-ws connections and streams synthesis events.
type Handler struct {
	pipeline Runner
	upgrader websocket.Upgrader
}

// New creates the TTS WebSocket handler.
func New(pipeline Runner) *Handler {
	return &Handler{
		pipeline: pipeline,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the TTS WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tts-ws", h.handleTTSWS)
}

type synthesisRequest struct {
	Text string `json:"text"`
}

type synthesisEvent struct {
	Status    string `json:"status"`
	AudioPath string `json:"audioPath,omitempty"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (h *Handler) handleTTSWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[tts-ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[tts-ws] connection established")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		var req synthesisRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[tts-ws] read error: %v", err)
			}
			return
		}

		// Absent or blank text is a deliberate no-op, not an error.
		if strings.TrimSpace(req.Text) == "" {
			continue
		}

		// Requests are processed one at a time; partials for a later
		// request can never overtake an earlier request's events.
		err := h.pipeline.Run(ctx, req.Text, func(e synthesissvc.Event) error {
			return conn.WriteJSON(synthesisEvent{
				Status:    e.Status,
				AudioPath: e.AudioPath,
				Text:      e.Text,
				Message:   e.Message,
			})
		})
		if err != nil {
			log.Printf("[tts-ws] request aborted: %v", err)
			return
		}
	}
}
