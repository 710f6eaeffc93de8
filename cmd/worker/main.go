package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"chatline/internal/engine/broadcast"
	"chatline/internal/engine/webhooks"
	"chatline/internal/pkg/logger"
	"chatline/internal/platform/config"
	"chatline/internal/platform/database"
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

	campaignRepo := repositories.NewCampaignRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	deliveryRepo := repositories.NewDeliveryLogRepository(db)

	dispatcher := webhooks.NewDispatcher(webhookRepo, deliveryRepo, cfg.Webhooks.DeliveryTimeout, cfg.Webhooks.DisableAfterFailures)
	provider := broadcast.NewWhatsAppClient(cfg.Provider)
	sender := broadcast.NewSender(campaignRepo, provider, dispatcher, cfg.Broadcast.BatchSize, cfg.Broadcast.BatchPause)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		log.Info().Msg("worker shutting down")
		cancel()
	}()

	log.Info().Dur("poll_interval", cfg.Broadcast.PollInterval).Msg("broadcast worker started")
	run(ctx, campaignRepo, sender, cfg.Broadcast.PollInterval)

	// Drain webhook deliveries queued by the last campaign before exiting.
	dispatcher.Wait()
}

func run(ctx context.Context, campaigns *repositories.CampaignRepository, sender *broadcast.Sender, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			campaign, err := campaigns.NextQueued()
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					log.Error().Err(err).Msg("failed to claim campaign")
				}
				break
			}

			log.Info().Str("campaign_id", campaign.ID).Msg("processing campaign")
			if err := sender.Process(ctx, campaign); err != nil {
				log.Error().Err(err).Str("campaign_id", campaign.ID).Msg("campaign processing failed")
			}

			if ctx.Err() != nil {
				return
			}
		}
	}
}
