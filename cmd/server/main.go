package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"chatline/internal/api"
	"chatline/internal/api/handlers"
	"chatline/internal/api/middleware"
	"chatline/internal/engine/webhooks"
	"chatline/internal/pkg/logger"
	"chatline/internal/platform/auth"
	"chatline/internal/platform/config"
	"chatline/internal/platform/database"
	"chatline/internal/platform/ratelimit"
	"chatline/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// Repositories
	keyRepo := repositories.NewAPIKeyRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	deliveryRepo := repositories.NewDeliveryLogRepository(db)
	requestLogRepo := repositories.NewRequestLogRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)
	resourceRepo := repositories.NewResourceRepository(db)

	// Rate limiter backend
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowSize)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiter backed by redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowSize)
	}

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	dispatcher := webhooks.NewDispatcher(webhookRepo, deliveryRepo, cfg.Webhooks.DeliveryTimeout, cfg.Webhooks.DisableAfterFailures)
	webhookSvc := webhooks.NewService(webhookRepo, deliveryRepo, dispatcher)

	// Handlers
	deps := &api.Dependencies{
		APIKeyHandler:       handlers.NewAPIKeyHandler(keyRepo, requestLogRepo),
		WebhookHandler:      handlers.NewWebhookHandler(webhookSvc),
		MessageHandler:      handlers.NewMessageHandler(resourceRepo, dispatcher),
		ContactHandler:      handlers.NewContactHandler(resourceRepo),
		ConversationHandler: handlers.NewConversationHandler(resourceRepo),
		CampaignHandler:     handlers.NewCampaignHandler(campaignRepo),
		HealthHandler:       handlers.NewHealthHandler(db),

		SessionMiddleware:    middleware.NewSessionMiddleware(tokenSvc),
		APIKeyMiddleware:     middleware.NewAPIKeyMiddleware(keyRepo),
		RateLimitMiddleware:  middleware.NewRateLimitMiddleware(limiter),
		RequestLogMiddleware: middleware.NewRequestLogMiddleware(requestLogRepo),
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	// Let in-flight webhook deliveries finish recording their outcomes.
	dispatcher.Wait()
}
