package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/adapters/http"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/adapters/llm"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/adapters/resume"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/adapters/speech"
	memstore "github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/adapters/storage/memory"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/app/interview"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/config"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

func main() {
	ctx := context.Background()
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// Conversation model: mock for dev, Gemini otherwise.
	var model domain.InterviewModel
	if cfg.UseMockModel {
		log.Info("using mock interview model")
		model = llm.NewMockModel()
	} else {
		log.Info("using Gemini interview model", "model", cfg.ModelName)
		policy := llm.SuggestionPolicy{
			Shrink:            cfg.SuggestionMode == config.SuggestionShrink,
			MaxWords:          cfg.SuggestionMaxWords,
			ShortAnswerTarget: cfg.SuggestionShortTarget,
		}
		model, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName, policy)
		if err != nil {
			log.Error("initializing Gemini client", "error", err)
			os.Exit(1)
		}
	}

	// Speech platform. Either capability may be absent; the adapters
	// degrade per session instead of blocking startup.
	var synth domain.Synthesizer
	if cfg.DeepgramAPIKey != "" {
		synth = speech.NewDeepgramSynthesizer(cfg.DeepgramAPIKey, cfg.TTSModel, nil)
	} else {
		log.Warn("DEEPGRAM_API_KEY not set, questions will not be spoken")
	}

	var recFactory domain.RecognizerFactory
	if cfg.STTEndpoint != "" && cfg.STTAPIKey != "" {
		recFactory = speech.NewStreamFactory(cfg.STTEndpoint, cfg.STTAPIKey, cfg.Locale)
	} else {
		log.Warn("speech-to-text not configured, listening is unsupported")
	}

	speechOpts := speech.Options{
		Prefs: speech.Preferences{
			Locale:       cfg.Locale,
			Vendor:       cfg.VoiceVendor,
			GenderedName: "female",
		},
		MaxListen:   cfg.ListenMax,
		IdleTimeout: cfg.ListenIdle,
	}
	newSpeech := func() domain.Speech {
		return speech.NewAdapter(synth, recFactory, speechOpts)
	}

	svc := interview.NewService(
		memstore.NewSessionStore(),
		resume.NewExtractor(),
		model,
		newSpeech,
		cfg.FollowUpDelay,
	)

	e := httpadapter.NewServer(svc)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("interview API listening", "port", cfg.Port)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		_ = server.Close()
	}
}
