package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/ai"
	"github.com/stridelab/garmin-bridge/internal/config"
	"github.com/stridelab/garmin-bridge/internal/database"
	"github.com/stridelab/garmin-bridge/internal/garmin"
	"github.com/stridelab/garmin-bridge/internal/handler"
	"github.com/stridelab/garmin-bridge/internal/jobs"
	"github.com/stridelab/garmin-bridge/internal/middleware"
	"github.com/stridelab/garmin-bridge/internal/redis"
	"github.com/stridelab/garmin-bridge/internal/repository"
	"github.com/stridelab/garmin-bridge/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	connRepo := repository.NewGarminConnectionRepository(db.DB)
	sessionRepo := repository.NewOAuthSessionRepository(db.DB)
	jobRepo := repository.NewTrainerJobRepository(db.DB)
	eventRepo := repository.NewWebhookEventRepository(db.DB)

	oauthClient := garmin.NewOAuthClient(garmin.ClientConfig{
		ClientID:     cfg.GarminClientID,
		ClientSecret: cfg.GarminClientSecret,
		AuthorizeURL: cfg.GarminAuthorizeURL,
		TokenURL:     cfg.GarminTokenURL,
		APIBaseURL:   cfg.GarminAPIBaseURL,
		RedirectURI:  cfg.GarminRedirectURI,
		Scope:        cfg.GarminScope,
		ExpiryMargin: config.TokenExpiryMargin,
	})

	completionClient := ai.NewCompletionClient(ai.CompletionClientOptions{
		BaseURL:    cfg.AIBaseURL,
		APIKey:     cfg.AIAPIKey,
		Referer:    cfg.AIReferer,
		MaxRetries: cfg.AIMaxRetries,
		RetryCap:   config.AIRetryWallClockCap,
		Timeout:    cfg.AITimeout(),
	})
	classicGenerator := ai.NewClassicGenerator(completionClient)
	toolGenerator := ai.NewToolGenerator(completionClient)
	modelCatalog := ai.NewModelCatalog(cfg.AIBaseURL, cfg.AIAPIKey, redisClient, cfg.AIModelCacheTTL())

	connService := service.NewConnectionService(cfg, oauthClient, connRepo, sessionRepo, userRepo)
	webhookService := service.NewWebhookService(cfg, connRepo, eventRepo)
	trainerService := service.NewTrainerService(
		cfg, userRepo, connRepo, jobRepo, connService,
		classicGenerator, toolGenerator, oauthClient,
	)

	authMiddleware := middleware.NewAuthMiddleware(userRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	cronAuthMiddleware := middleware.NewCronAuthMiddleware(cfg.CronSecretHash)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	garminHandler := handler.NewGarminHandler(cfg, connService, eventRepo)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	trainerHandler := handler.NewTrainerHandler(cfg, trainerService, modelCatalog)
	cronHandler := handler.NewCronHandler(trainerService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	// vendor-facing, authenticated by HMAC signature instead of user tokens
	r.Post("/garmin/push/{summaryType}", webhookHandler.Receive)

	// the OAuth callback arrives from the vendor redirect without our auth
	r.Get("/v1/garmin/callback", garminHandler.Callback)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		r.Get("/garmin/connect", garminHandler.Connect)
		r.Get("/garmin/connection", garminHandler.Connection)
		r.Delete("/garmin/connection", garminHandler.Disconnect)

		r.Post("/trainer/jobs", trainerHandler.CreateJob)
		r.Get("/trainer/jobs/{jobID}", trainerHandler.GetJob)
		r.Post("/trainer/jobs/{jobID}/push", trainerHandler.PushJob)
		r.Get("/trainer/models", trainerHandler.ListModels)
	})

	r.Route("/internal/cron", func(r chi.Router) {
		r.Use(cronAuthMiddleware.Handler)
		r.Post("/process-jobs", cronHandler.ProcessJobs)
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, trainerService, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
