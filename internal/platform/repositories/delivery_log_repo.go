package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"chatline/internal/platform/models"
)

type DeliveryLogRepository struct {
	db *sql.DB
}

func NewDeliveryLogRepository(db *sql.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{db: db}
}

// Create inserts a pending entry before the attempt is made.
func (r *DeliveryLogRepository) Create(entry *models.DeliveryLogEntry) error {
	if entry.ID == "" {
		entry.ID = "del_" + uuid.New().String()
	}
	entry.CreatedAt = time.Now().Unix()
	if entry.Status == "" {
		entry.Status = models.DeliveryStatusPending
	}

	query := `
		INSERT INTO delivery_logs (id, webhook_id, event, status, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, entry.ID, entry.WebhookID, entry.Event, entry.Status, entry.Attempts, entry.CreatedAt)
	return err
}

// MarkResult finalizes an entry after the attempt. The log is append-only in
// the sense that rows are never removed; only the pending row is resolved.
func (r *DeliveryLogRepository) MarkResult(id, status string, statusCode *int, durationMs int64, errMsg string) error {
	deliveredAt := time.Now().Unix()
	query := `
		UPDATE delivery_logs
		SET status = ?, status_code = ?, duration_ms = ?, error = ?, attempts = attempts + 1, delivered_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, status, statusCode, durationMs, errMsg, deliveredAt, id)
	return err
}

func (r *DeliveryLogRepository) ListByWebhook(webhookID string, limit int) ([]*models.DeliveryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, webhook_id, event, status, status_code, attempts, duration_ms, error, created_at, delivered_at
		FROM delivery_logs WHERE webhook_id = ? ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.Query(query, webhookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.DeliveryLogEntry
	for rows.Next() {
		var e models.DeliveryLogEntry
		var statusCode sql.NullInt64
		var durationMs sql.NullInt64
		var errMsg sql.NullString
		var deliveredAt sql.NullInt64

		if err := rows.Scan(&e.ID, &e.WebhookID, &e.Event, &e.Status, &statusCode, &e.Attempts, &durationMs, &errMsg, &e.CreatedAt, &deliveredAt); err != nil {
			return nil, err
		}

		if statusCode.Valid {
			code := int(statusCode.Int64)
			e.StatusCode = &code
		}
		if durationMs.Valid {
			e.DurationMs = &durationMs.Int64
		}
		if errMsg.Valid {
			e.Error = errMsg.String
		}
		if deliveredAt.Valid {
			e.DeliveredAt = &deliveredAt.Int64
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Stats aggregates the delivery history into the numbers the dashboard shows.
func (r *DeliveryLogRepository) Stats(webhookID string) (*models.WebhookStats, error) {
	stats := &models.WebhookStats{WebhookID: webhookID}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM delivery_logs WHERE webhook_id = ?
	`
	dayAgo := time.Now().Add(-24 * time.Hour).Unix()
	err := r.db.QueryRow(query, dayAgo, webhookID).Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &stats.Last24hCount)
	if err != nil {
		return nil, err
	}

	resolved := stats.Succeeded + stats.Failed
	if resolved > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(resolved)
	}

	return stats, nil
}
