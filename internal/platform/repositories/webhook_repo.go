package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"chatline/internal/platform/models"
)

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

const webhookColumns = `id, organization_id, url, secret, events, is_active, description, headers, failure_count, last_triggered_at, last_success_at, last_failure_at, created_at, updated_at`

func (r *WebhookRepository) Create(webhook *models.Webhook) error {
	if webhook.ID == "" {
		webhook.ID = "wh_" + uuid.New().String()
	}
	now := time.Now().Unix()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now
	webhook.IsActive = true

	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}
	headersJSON, err := json.Marshal(webhook.Headers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO webhooks (id, organization_id, url, secret, events, is_active, description, headers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, webhook.ID, webhook.OrganizationID, webhook.URL, webhook.Secret, string(eventsJSON), webhook.IsActive, webhook.Description, string(headersJSON), webhook.CreatedAt, webhook.UpdatedAt)
	return err
}

func (r *WebhookRepository) GetByID(id string) (*models.Webhook, error) {
	row := r.db.QueryRow(`SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id)
	return scanWebhook(row)
}

func scanWebhook(row *sql.Row) (*models.Webhook, error) {
	var w models.Webhook
	var eventsStr, headersStr string
	var description sql.NullString
	var lastTriggeredAt, lastSuccessAt, lastFailureAt sql.NullInt64

	err := row.Scan(&w.ID, &w.OrganizationID, &w.URL, &w.Secret, &eventsStr, &w.IsActive, &description, &headersStr, &w.FailureCount, &lastTriggeredAt, &lastSuccessAt, &lastFailureAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		w.Description = description.String
	}
	if lastTriggeredAt.Valid {
		w.LastTriggeredAt = &lastTriggeredAt.Int64
	}
	if lastSuccessAt.Valid {
		w.LastSuccessAt = &lastSuccessAt.Int64
	}
	if lastFailureAt.Valid {
		w.LastFailureAt = &lastFailureAt.Int64
	}
	json.Unmarshal([]byte(eventsStr), &w.Events)
	json.Unmarshal([]byte(headersStr), &w.Headers)

	return &w, nil
}

func (r *WebhookRepository) ListByOrg(orgID string) ([]*models.Webhook, error) {
	rows, err := r.db.Query(`SELECT `+webhookColumns+` FROM webhooks WHERE organization_id = ? ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

// ListActiveByEvent returns the fan-out targets for one event in one org.
func (r *WebhookRepository) ListActiveByEvent(orgID, event string) ([]*models.Webhook, error) {
	// Events are stored as a JSON array; match in the application the way the
	// row count per org allows.
	rows, err := r.db.Query(`SELECT `+webhookColumns+` FROM webhooks WHERE organization_id = ? AND is_active = 1`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	webhooks, err := collectWebhooks(rows)
	if err != nil {
		return nil, err
	}

	var matched []*models.Webhook
	for _, w := range webhooks {
		if w.SubscribedTo(event) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

func collectWebhooks(rows *sql.Rows) ([]*models.Webhook, error) {
	var webhooks []*models.Webhook
	for rows.Next() {
		var w models.Webhook
		var eventsStr, headersStr string
		var description sql.NullString
		var lastTriggeredAt, lastSuccessAt, lastFailureAt sql.NullInt64

		if err := rows.Scan(&w.ID, &w.OrganizationID, &w.URL, &w.Secret, &eventsStr, &w.IsActive, &description, &headersStr, &w.FailureCount, &lastTriggeredAt, &lastSuccessAt, &lastFailureAt, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}

		if description.Valid {
			w.Description = description.String
		}
		if lastTriggeredAt.Valid {
			w.LastTriggeredAt = &lastTriggeredAt.Int64
		}
		if lastSuccessAt.Valid {
			w.LastSuccessAt = &lastSuccessAt.Int64
		}
		if lastFailureAt.Valid {
			w.LastFailureAt = &lastFailureAt.Int64
		}
		json.Unmarshal([]byte(eventsStr), &w.Events)
		json.Unmarshal([]byte(headersStr), &w.Headers)
		webhooks = append(webhooks, &w)
	}
	return webhooks, rows.Err()
}

func (r *WebhookRepository) Update(webhook *models.Webhook) error {
	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}
	headersJSON, err := json.Marshal(webhook.Headers)
	if err != nil {
		return err
	}
	webhook.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE webhooks
		SET url = ?, events = ?, is_active = ?, description = ?, headers = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, webhook.URL, string(eventsJSON), webhook.IsActive, webhook.Description, string(headersJSON), webhook.UpdatedAt, webhook.ID)
	return err
}

// RotateSecret atomically replaces the signing secret. Deliveries signed with
// the old secret are invalid the moment this statement commits.
func (r *WebhookRepository) RotateSecret(id, newSecret string) error {
	res, err := r.db.Exec(`UPDATE webhooks SET secret = ?, updated_at = ? WHERE id = ?`, newSecret, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *WebhookRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM webhooks WHERE id = ?`, id)
	return err
}

// RecordSuccess resets the consecutive failure counter. Reset, never
// decrement: a success wipes the failure streak entirely.
func (r *WebhookRepository) RecordSuccess(id string, at int64) error {
	_, err := r.db.Exec(`UPDATE webhooks SET failure_count = 0, last_triggered_at = ?, last_success_at = ? WHERE id = ?`, at, at, id)
	return err
}

// RecordFailure increments the failure counter and returns the new value so
// the caller can apply a disable policy. Increment and read are one
// statement: concurrent failing deliveries each observe their own count.
func (r *WebhookRepository) RecordFailure(id string, at int64) (int, error) {
	var count int
	err := r.db.QueryRow(`UPDATE webhooks SET failure_count = failure_count + 1, last_triggered_at = ?, last_failure_at = ? WHERE id = ? RETURNING failure_count`, at, at, id).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *WebhookRepository) Deactivate(id string) error {
	_, err := r.db.Exec(`UPDATE webhooks SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}
