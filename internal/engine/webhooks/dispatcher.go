package webhooks

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"chatline/internal/platform/metrics"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

// Dispatcher fans a domain event out to every subscribed active webhook.
// Each endpoint is delivered by its own goroutine: a slow or failing
// endpoint never blocks the others, and delivery errors never propagate to
// the caller that emitted the event.
type Dispatcher struct {
	webhooks   *repositories.WebhookRepository
	deliveries *repositories.DeliveryLogRepository
	client     *http.Client

	// disableAfterFailures deactivates a webhook once its consecutive
	// failure count reaches this value. 0 disables the policy.
	disableAfterFailures int

	wg sync.WaitGroup
}

func NewDispatcher(webhooks *repositories.WebhookRepository, deliveries *repositories.DeliveryLogRepository, timeout time.Duration, disableAfterFailures int) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		webhooks:             webhooks,
		deliveries:           deliveries,
		client:               &http.Client{Timeout: timeout},
		disableAfterFailures: disableAfterFailures,
	}
}

// Dispatch launches the fan-out and returns immediately.
func (d *Dispatcher) Dispatch(event Event) {
	targets, err := d.webhooks.ListActiveByEvent(event.OrganizationID, event.Name)
	if err != nil {
		log.Error().Err(err).Str("event", event.Name).Msg("failed to load webhook targets")
		return
	}

	envelope := &Envelope{
		Event:     event.Name,
		Timestamp: time.Now().Unix(),
		Data:      event.Data,
	}

	for _, webhook := range targets {
		d.wg.Add(1)
		go func(w *models.Webhook) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("webhook_id", w.ID).Msg("recovered delivery panic")
				}
			}()
			d.deliver(w, envelope)
		}(webhook)
	}
}

// Wait blocks until all in-flight deliveries finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(webhook *models.Webhook, envelope *Envelope) {
	entry := &models.DeliveryLogEntry{
		WebhookID: webhook.ID,
		Event:     envelope.Event,
	}
	if err := d.deliveries.Create(entry); err != nil {
		log.Error().Err(err).Str("webhook_id", webhook.ID).Msg("failed to create delivery log entry")
		return
	}

	start := time.Now()
	statusCode, err := d.post(webhook, envelope)
	latency := time.Since(start)

	metrics.WebhookDeliveryDuration.Observe(latency.Seconds())
	now := time.Now().Unix()

	if err != nil || statusCode < 200 || statusCode >= 300 {
		errMsg := ""
		var codePtr *int
		if err != nil {
			errMsg = err.Error()
		} else {
			codePtr = &statusCode
		}

		count, recErr := d.webhooks.RecordFailure(webhook.ID, now)
		if recErr != nil {
			log.Error().Err(recErr).Str("webhook_id", webhook.ID).Msg("failed to record delivery failure")
		}
		if mErr := d.deliveries.MarkResult(entry.ID, models.DeliveryStatusFailed, codePtr, latency.Milliseconds(), errMsg); mErr != nil {
			log.Error().Err(mErr).Str("webhook_id", webhook.ID).Msg("failed to finalize delivery log entry")
		}
		metrics.WebhookDeliveries.WithLabelValues("failed").Inc()

		log.Warn().
			Str("webhook_id", webhook.ID).
			Str("event", envelope.Event).
			Int("status_code", statusCode).
			Int("failure_count", count).
			Str("error", errMsg).
			Msg("webhook delivery failed")

		if d.disableAfterFailures > 0 && count >= d.disableAfterFailures {
			if err := d.webhooks.Deactivate(webhook.ID); err != nil {
				log.Error().Err(err).Str("webhook_id", webhook.ID).Msg("failed to deactivate webhook")
			} else {
				log.Warn().Str("webhook_id", webhook.ID).Int("failure_count", count).Msg("webhook deactivated after consecutive failures")
			}
		}
		return
	}

	if err := d.webhooks.RecordSuccess(webhook.ID, now); err != nil {
		log.Error().Err(err).Str("webhook_id", webhook.ID).Msg("failed to record delivery success")
	}
	if err := d.deliveries.MarkResult(entry.ID, models.DeliveryStatusSuccess, &statusCode, latency.Milliseconds(), ""); err != nil {
		log.Error().Err(err).Str("webhook_id", webhook.ID).Msg("failed to finalize delivery log entry")
	}
	metrics.WebhookDeliveries.WithLabelValues("success").Inc()

	log.Debug().
		Str("webhook_id", webhook.ID).
		Str("event", envelope.Event).
		Int("status_code", statusCode).
		Dur("latency", latency).
		Msg("webhook delivered")
}

// post transmits one signed envelope. The signature covers the exact bytes
// on the wire, keyed by the secret as it is at send time.
func (d *Dispatcher) post(webhook *models.Webhook, envelope *Envelope) (int, error) {
	payload, err := envelope.Canonical()
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", SignatureHeader(webhook.Secret, envelope.Timestamp, payload))
	for name, value := range webhook.Headers {
		req.Header.Set(name, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// Probe performs one synchronous delivery with a synthetic payload and
// reports the raw outcome. Nothing is written to the delivery history and
// failure counters are untouched.
func (d *Dispatcher) Probe(webhook *models.Webhook) *ProbeResult {
	envelope := &Envelope{
		Event:     "webhook.test",
		Timestamp: time.Now().Unix(),
		Data:      map[string]string{"webhook_id": webhook.ID},
	}

	start := time.Now()
	statusCode, err := d.post(webhook, envelope)
	latency := time.Since(start)

	result := &ProbeResult{
		StatusCode: statusCode,
		DurationMs: latency.Milliseconds(),
		Success:    err == nil && statusCode >= 200 && statusCode < 300,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

type ProbeResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
