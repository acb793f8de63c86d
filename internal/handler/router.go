package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mikoto-studio/vstage/internal/handler/client"
	relayHandler "github.com/mikoto-studio/vstage/internal/handler/relay"
	synthesisHandler "github.com/mikoto-studio/vstage/internal/handler/synthesis"
	transcribeHandler "github.com/mikoto-studio/vstage/internal/handler/transcribe"
	"github.com/mikoto-studio/vstage/internal/handler/webtool"
	middlewarePkg "github.com/mikoto-studio/vstage/internal/middleware"
	"github.com/mikoto-studio/vstage/internal/model/character"
	"github.com/mikoto-studio/vstage/internal/model/profile"
	"github.com/mikoto-studio/vstage/internal/service/conversation"
	sessionService "github.com/mikoto-studio/vstage/internal/service/session"
	synthesisService "github.com/mikoto-studio/vstage/internal/service/synthesis"
	transcribeService "github.com/mikoto-studio/vstage/internal/service/transcribe"
	"github.com/mikoto-studio/vstage/pkg/utils"
)

// Deps carries everything the router wires into handlers. Optional services
// are nil when their engine is not configured; the matching endpoints then
// answer 501 instead of disappearing, so clients get a clear signal.
type Deps struct {
	Registry   *sessionService.Registry
	Profiles   *profile.Store
	Characters character.Store

	Conversation *conversation.Service
	Pipeline     *synthesisService.Pipeline
	Transcribe   *transcribeService.Service

	RelayUpstreamURL string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	webtool.New(deps.Characters, deps.Profiles).RegisterRoutes(r)

	// A nil *Service inside a non-nil interface would defeat the gateway's nil
	// checks, so the interfaces are only populated when the service exists.
	var convo client.ConversationEngine
	if deps.Conversation != nil {
		convo = deps.Conversation
	}
	var runner client.SynthesisRunner
	if deps.Pipeline != nil {
		runner = deps.Pipeline
	}
	client.New(deps.Registry, deps.Profiles, deps.Characters, convo, runner).RegisterRoutes(r)

	if deps.Pipeline != nil {
		synthesisHandler.New(deps.Pipeline).RegisterRoutes(r)
	} else {
		r.Get("/tts-ws", notConfigured("speech synthesis engine not configured"))
	}

	if deps.Transcribe != nil {
		transcribeHandler.New(deps.Transcribe).RegisterRoutes(r)
	} else {
		r.Post("/asr", notConfigured("speech recognition engine not configured"))
	}

	if deps.RelayUpstreamURL != "" {
		relayHandler.New(deps.RelayUpstreamURL).RegisterRoutes(r)
	} else {
		r.Get("/proxy-ws", notConfigured("relay upstream not configured"))
	}

	return r
}

func notConfigured(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotImplemented, message)
	}
}
