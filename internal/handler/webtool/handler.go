// Package webtool serves the frontend helper endpoints: redirects, character
// and voice listings, and partial profile updates.
package webtool

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mikoto-studio/vstage/internal/model/character"
	"github.com/mikoto-studio/vstage/internal/model/profile"
	"github.com/mikoto-studio/vstage/pkg/utils"
)

// Handler exposes the web-tool routes.
type Handler struct {
	characters character.Store
	profiles   *profile.Store
}

// New creates the web-tool handler.
func New(characters character.Store, profiles *profile.Store) *Handler {
	return &Handler{characters: characters, profiles: profiles}
}

// RegisterRoutes mounts the web-tool endpoints on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/web-tool", h.handleRedirect)
	r.Get("/web_tool", h.handleRedirect)
	r.Get("/api/characters/list", h.handleListCharacters)
	r.Get("/api/voices/list", h.handleListVoices)
	r.Post("/api/config/update-partial", h.handleUpdatePartial)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/web-tool/index.html", http.StatusFound)
}

func (h *Handler) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	characters := h.characters.List()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"count":      len(characters),
		"characters": characters,
	})
}

func (h *Handler) handleListVoices(w http.ResponseWriter, r *http.Request) {
	provider := h.profiles.Current().TTS.Provider
	voices := profile.Voices(provider)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"provider": provider,
		"count":    len(voices),
		"voices":   voices,
	})
}

type partialUpdateRequest struct {
	Avatar    string `json:"avatar,omitempty"`
	Character string `json:"character,omitempty"`
	Voice     string `json:"voice,omitempty"`
}

func (h *Handler) handleUpdatePartial(w http.ResponseWriter, r *http.Request) {
	var req partialUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log.Printf("[webtool] partial update avatar=%q character=%q voice=%q", req.Avatar, req.Character, req.Voice)

	update := profile.Update{Avatar: req.Avatar, Voice: req.Voice}
	if req.Character != "" {
		ch, ok := h.characters.FindByID(req.Character)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "character not found: "+req.Character)
			return
		}
		update.Character = ch.ID
		// Switching characters adopts their defaults unless overridden.
		if update.Avatar == "" {
			update.Avatar = ch.Avatar
		}
		if update.Voice == "" {
			update.Voice = ch.VoiceID
		}
	}

	h.profiles.Apply(update)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "configuration updated successfully",
		"applied": map[string]string{
			"avatar":    req.Avatar,
			"character": req.Character,
			"voice":     req.Voice,
		},
	})
}
