// Package transcribe serves the request/response ASR endpoint.
package transcribe

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mikoto-studio/vstage/internal/service/audio"
	"github.com/mikoto-studio/vstage/pkg/utils"
)

// TranscriptionService abstracts the transcription business logic so the
// handler can be tested with fakes.
type TranscriptionService interface {
	Transcribe(ctx context.Context, raw []byte) (string, error)
}

// Handler exposes POST /asr.
type Handler struct {
	svc TranscriptionService
}

// New creates the transcription handler.
func New(svc TranscriptionService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the ASR endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/asr", h.handleTranscribe)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	log.Printf("[asr] received audio file for transcription: %s", header.Filename)

	raw, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	text, err := h.svc.Transcribe(r.Context(), raw)
	if err != nil {
		// Format problems are the caller's fault and carry detail; engine
		// failures stay generic so internals never leak.
		if errors.Is(err, audio.ErrInvalidFormat) || errors.Is(err, audio.ErrEmptyAudio) {
			log.Printf("[asr] audio format error: %v", err)
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[asr] transcription error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal server error during transcription")
		return
	}

	log.Printf("[asr] transcription result: %s", text)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"text": text})
}
