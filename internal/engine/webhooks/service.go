package webhooks

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"

	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

var (
	ErrNotFound   = errors.New("webhook not found")
	ErrValidation = errors.New("validation failed")
)

// Service owns the webhook registry: subscription CRUD, secret lifecycle and
// delivery statistics.
type Service struct {
	webhooks   *repositories.WebhookRepository
	deliveries *repositories.DeliveryLogRepository
	dispatcher *Dispatcher
}

func NewService(webhooks *repositories.WebhookRepository, deliveries *repositories.DeliveryLogRepository, dispatcher *Dispatcher) *Service {
	return &Service{
		webhooks:   webhooks,
		deliveries: deliveries,
		dispatcher: dispatcher,
	}
}

type CreateInput struct {
	URL         string            `json:"url"`
	Events      []string          `json:"events"`
	Description string            `json:"description"`
	Headers     map[string]string `json:"headers"`
}

type UpdateInput struct {
	URL         *string           `json:"url"`
	Events      []string          `json:"events"`
	IsActive    *bool             `json:"is_active"`
	Description *string           `json:"description"`
	Headers     map[string]string `json:"headers"`
}

// Create validates and persists a subscription. The returned webhook carries
// the generated secret; this is the only time it leaves the service in the
// clear.
func (s *Service) Create(orgID string, input CreateInput) (*models.Webhook, error) {
	if err := validateURL(input.URL); err != nil {
		return nil, err
	}
	if err := ValidateEvents(input.Events); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	webhook := &models.Webhook{
		OrganizationID: orgID,
		URL:            input.URL,
		Secret:         secret,
		Events:         input.Events,
		Description:    input.Description,
		Headers:        input.Headers,
	}

	if err := s.webhooks.Create(webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

func (s *Service) Get(orgID, id string) (*models.Webhook, error) {
	webhook, err := s.webhooks.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if webhook.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return webhook, nil
}

func (s *Service) List(orgID string) ([]*models.Webhook, error) {
	return s.webhooks.ListByOrg(orgID)
}

// Update applies a partial update, re-validating any changed URL or events.
func (s *Service) Update(orgID, id string, input UpdateInput) (*models.Webhook, error) {
	webhook, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}

	if input.URL != nil {
		if err := validateURL(*input.URL); err != nil {
			return nil, err
		}
		webhook.URL = *input.URL
	}
	if input.Events != nil {
		if err := ValidateEvents(input.Events); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		webhook.Events = input.Events
	}
	if input.IsActive != nil {
		webhook.IsActive = *input.IsActive
	}
	if input.Description != nil {
		webhook.Description = *input.Description
	}
	if input.Headers != nil {
		webhook.Headers = input.Headers
	}

	if err := s.webhooks.Update(webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

// RotateSecret replaces the signing secret atomically. There is no grace
// period: signatures made with the old secret are invalid as soon as the
// rotation commits.
func (s *Service) RotateSecret(orgID, id string) (string, error) {
	if _, err := s.Get(orgID, id); err != nil {
		return "", err
	}

	secret, err := generateSecret()
	if err != nil {
		return "", err
	}

	if err := s.webhooks.RotateSecret(id, secret); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// Delete removes the subscription. In-flight deliveries complete against the
// loaded copy but nothing further is attempted for it.
func (s *Service) Delete(orgID, id string) error {
	if _, err := s.Get(orgID, id); err != nil {
		return err
	}
	return s.webhooks.Delete(id)
}

func (s *Service) Stats(orgID, id string) (*models.WebhookStats, error) {
	if _, err := s.Get(orgID, id); err != nil {
		return nil, err
	}
	return s.deliveries.Stats(id)
}

func (s *Service) Deliveries(orgID, id string, limit int) ([]*models.DeliveryLogEntry, error) {
	if _, err := s.Get(orgID, id); err != nil {
		return nil, err
	}
	return s.deliveries.ListByWebhook(id, limit)
}

// Test sends one synchronous synthetic delivery. The result is returned to
// the caller and kept out of the production delivery history.
func (s *Service) Test(orgID, id string) (*ProbeResult, error) {
	webhook, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Probe(webhook), nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid url", ErrValidation)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url must use http or https", ErrValidation)
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}
