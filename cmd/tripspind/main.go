package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/countries"
	httpadapter "github.com/NaimTheDev/devvit-trip-spin/internal/adapters/http"
	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/llm/openai"
	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/places"
	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/reddit"
	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/storage/memory"
	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/storage/postgres"
	"github.com/NaimTheDev/devvit-trip-spin/internal/app"
	"github.com/NaimTheDev/devvit-trip-spin/internal/config"
	"github.com/NaimTheDev/devvit-trip-spin/internal/game"
	"github.com/NaimTheDev/devvit-trip-spin/internal/ports"
)

// stdRNG delegates to math/rand (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.Intn(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	fallbackCountries, err := countries.NewFallbackList().Countries()
	if err != nil {
		logger.Error("failed to load fallback countries", "error", err)
		os.Exit(1)
	}

	redditClient := reddit.NewClient(httpClient, cfg.RedditBaseURL, cfg.RedditOAuthURL, cfg.RedditUserAgent,
		reddit.Credentials{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			Username:     cfg.RedditUsername,
			Password:     cfg.RedditPassword,
		}, logger)

	deps := app.TravelDeps{
		FallbackCountries: fallbackCountries,
		Community:         redditClient,
		RNG:               stdRNG{},
		Logger:            logger,
		DefaultSubreddit:  cfg.DefaultSubreddit,
		ShareSubreddit:    cfg.ShareSubreddit,
		AppPostID:         cfg.AppPostID,
	}
	if cfg.RandomCountryURL != "" {
		deps.Countries = countries.NewClient(httpClient, cfg.RandomCountryURL)
	}
	if cfg.OpenAIAPIKey != "" {
		deps.Planner = openai.NewClient(
			&http.Client{Timeout: cfg.LLMTimeout},
			cfg.OpenAIAPIKey,
			cfg.OpenAIBaseURL,
			cfg.LLMModel,
			cfg.LLMFallbackModels,
			logger,
		)
	} else {
		logger.Info("OPENAI_API_KEY not set, itineraries will be synthesized locally")
	}
	if redditClient.CanSubmit() {
		deps.Publisher = redditClient
	}

	var tripLog ports.TripLog = memory.NewTripLog()
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open trip log database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		tripLog = pg
	}
	deps.TripLog = tripLog

	svc := app.NewTravelService(deps)

	// datasetPicker stays a nil interface without a dataset.
	var datasetPicker game.DestinationPicker
	if cfg.PlacesDataset != "" {
		datasetPicker = app.NewDatasetPicker(places.NewDataset(cfg.PlacesDataset, httpClient, logger), stdRNG{}, logger)
	}

	var picker game.DestinationPicker = app.NewCountryPicker(svc)
	if cfg.DestinationSource == config.DestinationDataset {
		if datasetPicker == nil {
			logger.Warn("DESTINATION_SOURCE=dataset without PLACES_DATASET, picking countries instead")
		} else {
			picker = datasetPicker
		}
	}

	sessions := game.NewStore(func() *game.Coordinator {
		return game.NewCoordinator(game.CoordinatorDeps{
			Picker:  picker,
			Planner: svc,
			Sharer:  svc,
			Logger:  logger,
		})
	}, cfg.SessionTTL, logger)
	defer sessions.CloseAll()

	if cfg.SessionTTL > 0 {
		go sessions.RunJanitor(ctx, cfg.SessionTTL/2)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc, datasetPicker, sessions, logger)
	handler.Register(e)

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr,
			"destination_source", cfg.DestinationSource,
			"sharing", svc.CanShare(),
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
