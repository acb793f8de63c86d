package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mikoto-studio/vstage/internal/config"
	"github.com/mikoto-studio/vstage/internal/engine"
	"github.com/mikoto-studio/vstage/internal/handler"
	"github.com/mikoto-studio/vstage/internal/model/character"
	"github.com/mikoto-studio/vstage/internal/model/profile"
	"github.com/mikoto-studio/vstage/internal/service/conversation"
	sessionService "github.com/mikoto-studio/vstage/internal/service/session"
	synthesisService "github.com/mikoto-studio/vstage/internal/service/synthesis"
	transcribeService "github.com/mikoto-studio/vstage/internal/service/transcribe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	characters := character.NewMemoryStore(character.Seed())
	profiles := profile.NewStore(cfg.Stage.InitialProfile())
	registry := sessionService.NewRegistry(0)

	engineTimeout := time.Duration(cfg.Engine.Timeout) * time.Second

	var transcribeSvc *transcribeService.Service
	if cfg.Engine.ASREnabled() {
		asr := engine.NewHTTPTranscriber(cfg.Engine.ASRBaseURL)
		transcribeSvc = transcribeService.NewService(asr, engineTimeout)
		log.Println("speech recognition engine configured")
	} else {
		log.Println("ASR_BASE_URL not set, transcription endpoint disabled")
	}

	var pipeline *synthesisService.Pipeline
	if cfg.Engine.TTSEnabled() {
		tts := engine.NewHTTPSynthesizer(cfg.Engine.TTSBaseURL, cfg.Engine.CacheDir, func() string {
			return profiles.Current().TTS.Voice()
		})
		pipeline = synthesisService.NewPipeline(tts, engineTimeout)
		log.Println("speech synthesis engine configured")
	} else {
		log.Println("TTS_BASE_URL not set, synthesis endpoints disabled")
	}

	var convoSvc *conversation.Service
	if cfg.AI.Enabled() {
		convoSvc, err = conversation.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize conversation service: %v", err)
			log.Println("continuing without chat functionality - check the Ark model environment variables")
			convoSvc = nil
		} else {
			log.Println("conversation service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, chat disabled")
	}

	if cfg.Relay.Enabled() {
		log.Printf("relay upstream configured: %s", cfg.Relay.UpstreamURL)
	} else {
		log.Println("RELAY_UPSTREAM_URL not set, proxy endpoint disabled")
	}

	router := handler.NewRouter(handler.Deps{
		Registry:         registry,
		Profiles:         profiles,
		Characters:       characters,
		Conversation:     convoSvc,
		Pipeline:         pipeline,
		Transcribe:       transcribeSvc,
		RelayUpstreamURL: cfg.Relay.UpstreamURL,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("vstage gateway listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
