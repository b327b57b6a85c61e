package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/runova/backend/config"
	"github.com/runova/backend/internal/catalog"
	httpDelivery "github.com/runova/backend/internal/delivery/http"
	"github.com/runova/backend/internal/domain"
	"github.com/runova/backend/internal/infrastructure/history"
	"github.com/runova/backend/internal/infrastructure/imageproxy"
	openaiClient "github.com/runova/backend/internal/infrastructure/openai"
	"github.com/runova/backend/internal/infrastructure/youcam"
	"github.com/runova/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting runova backend")

	// Catalog: primary file plus optional supplement, with a built-in
	// fallback so the service stays up on a bad file.
	cat, err := catalog.Load(cfg.Catalog.PrimaryPath, cfg.Catalog.SupplementPath)
	if err != nil {
		log.Warn().Err(err).Msg("catalog load degraded to built-in defaults")
	}
	catalogStore := catalog.NewStore(cat)
	log.Info().Int("products", cat.Len()).Msg("catalog loaded")

	ai, err := openaiClient.NewClient(openaiClient.Config{
		APIKey:          cfg.OpenAI.APIKey,
		BaseURL:         cfg.OpenAI.BaseURL,
		ChatModel:       cfg.OpenAI.ChatModel,
		VisionModel:     cfg.OpenAI.VisionModel,
		TranscribeModel: cfg.OpenAI.TranscribeModel,
		SpeechModel:     cfg.OpenAI.SpeechModel,
		Voice:           cfg.OpenAI.Voice,
		AudioDir:        cfg.OpenAI.AudioDir,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create OpenAI client")
	}

	// Skin analysis prefers the dedicated provider and falls back to the
	// vision model when no key is configured.
	var analyzer domain.SkinAnalyzer = ai
	if cfg.YouCam.APIKey != "" {
		analyzer = youcam.NewClient(cfg.YouCam.APIKey, cfg.YouCam.BaseURL)
		log.Info().Msg("skin analysis provider: youcam")
	} else {
		log.Warn().Msg("YouCam API key not set, skin analysis falls back to the vision model")
	}

	resolver := imageproxy.NewResolver()

	recommendations := usecase.NewRecommendationService(resolver, usecase.RecommendationConfig{
		MinMatchScore:      cfg.Matching.MinScore,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})

	assistant := usecase.NewAssistantService(
		ai, ai, ai,
		history.NewMemoryStore(cfg.History.MaxSessions, cfg.History.MaxExchanges),
		recommendations,
		catalogStore,
	)

	handler := httpDelivery.NewHandler(assistant, analyzer, resolver, cfg.OpenAI.AudioDir)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Server.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
