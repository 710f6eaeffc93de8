package broadcast

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"chatline/internal/engine/webhooks"
	"chatline/internal/platform/metrics"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

// Sender processes campaign sends in fixed-size batches with a pause between
// batches, respecting upstream provider limits. Each recipient is
// independent: one failure marks that recipient and the batch moves on.
type Sender struct {
	campaigns  *repositories.CampaignRepository
	provider   Provider
	dispatcher *webhooks.Dispatcher
	batchSize  int
	batchPause time.Duration
}

func NewSender(campaigns *repositories.CampaignRepository, provider Provider, dispatcher *webhooks.Dispatcher, batchSize int, batchPause time.Duration) *Sender {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Sender{
		campaigns:  campaigns,
		provider:   provider,
		dispatcher: dispatcher,
		batchSize:  batchSize,
		batchPause: batchPause,
	}
}

// Process runs one campaign to completion. The campaign ends COMPLETED
// unless every recipient failed, in which case it ends FAILED; either way a
// terminal event goes through the dispatcher.
func (s *Sender) Process(ctx context.Context, campaign *models.Campaign) error {
	recipients, err := s.campaigns.ListRecipients(campaign.ID)
	if err != nil {
		return err
	}

	s.dispatcher.Dispatch(webhooks.Event{
		OrganizationID: campaign.OrganizationID,
		Name:           webhooks.EventCampaignStarted,
		Data: map[string]interface{}{
			"campaign_id": campaign.ID,
			"name":        campaign.Name,
			"recipients":  len(recipients),
		},
	})

	var sent, failed int
	for start := 0; start < len(recipients); start += s.batchSize {
		end := start + s.batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		for _, rec := range recipients[start:end] {
			if rec.Status != models.RecipientStatusPending {
				continue
			}

			messageID, err := s.provider.SendMessage(ctx, rec.Phone, campaign.MessageBody)
			if err != nil {
				failed++
				metrics.BroadcastSends.WithLabelValues("failed").Inc()
				if markErr := s.campaigns.MarkRecipientFailed(rec.ID, err.Error()); markErr != nil {
					log.Error().Err(markErr).Str("recipient_id", rec.ID).Msg("failed to mark recipient failed")
				}
				log.Warn().Err(err).Str("campaign_id", campaign.ID).Str("phone", rec.Phone).Msg("campaign send failed")
				continue
			}

			sent++
			metrics.BroadcastSends.WithLabelValues("sent").Inc()
			if markErr := s.campaigns.MarkRecipientSent(rec.ID, messageID); markErr != nil {
				log.Error().Err(markErr).Str("recipient_id", rec.ID).Msg("failed to mark recipient sent")
			}
		}

		if end < len(recipients) && s.batchPause > 0 {
			select {
			case <-time.After(s.batchPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	status := models.CampaignStatusCompleted
	eventName := webhooks.EventCampaignCompleted
	if len(recipients) > 0 && sent == 0 {
		status = models.CampaignStatusFailed
		eventName = webhooks.EventCampaignFailed
	}

	if err := s.campaigns.SetStatus(campaign.ID, status); err != nil {
		return err
	}

	s.dispatcher.Dispatch(webhooks.Event{
		OrganizationID: campaign.OrganizationID,
		Name:           eventName,
		Data: map[string]interface{}{
			"campaign_id": campaign.ID,
			"name":        campaign.Name,
			"total":       len(recipients),
			"sent":        sent,
			"failed":      failed,
		},
	})

	log.Info().
		Str("campaign_id", campaign.ID).
		Str("status", status).
		Int("sent", sent).
		Int("failed", failed).
		Msg("campaign processed")

	return nil
}
