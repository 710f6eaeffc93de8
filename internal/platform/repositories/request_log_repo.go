package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"chatline/internal/platform/models"
)

type RequestLogRepository struct {
	db *sql.DB
}

func NewRequestLogRepository(db *sql.DB) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

func (r *RequestLogRepository) Create(entry *models.APIRequestLog) error {
	if entry.ID == "" {
		entry.ID = "req_" + uuid.New().String()
	}
	entry.CreatedAt = time.Now().Unix()

	query := `
		INSERT INTO api_request_logs (id, organization_id, api_key_id, method, path, status_code, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, entry.ID, entry.OrganizationID, entry.APIKeyID, entry.Method, entry.Path, entry.StatusCode, entry.DurationMs, entry.CreatedAt)
	return err
}

func (r *RequestLogRepository) ListByKey(apiKeyID string, limit int) ([]*models.APIRequestLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, organization_id, api_key_id, method, path, status_code, duration_ms, created_at
		FROM api_request_logs WHERE api_key_id = ? ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.Query(query, apiKeyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.APIRequestLog
	for rows.Next() {
		var e models.APIRequestLog
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.APIKeyID, &e.Method, &e.Path, &e.StatusCode, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
