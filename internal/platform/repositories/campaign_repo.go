package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"chatline/internal/platform/models"
)

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(c *models.Campaign) error {
	if c.ID == "" {
		c.ID = "camp_" + uuid.New().String()
	}
	now := time.Now().Unix()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.CampaignStatusDraft
	}

	query := `
		INSERT INTO campaigns (id, organization_id, name, message_body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, c.ID, c.OrganizationID, c.Name, c.MessageBody, c.Status, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CampaignRepository) GetByID(id string) (*models.Campaign, error) {
	query := `
		SELECT id, organization_id, name, message_body, status, created_at, updated_at, started_at, completed_at
		FROM campaigns WHERE id = ?
	`
	var c models.Campaign
	var startedAt, completedAt sql.NullInt64

	err := r.db.QueryRow(query, id).Scan(&c.ID, &c.OrganizationID, &c.Name, &c.MessageBody, &c.Status, &c.CreatedAt, &c.UpdatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		c.StartedAt = &startedAt.Int64
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Int64
	}
	return &c, nil
}

// NextQueued claims the oldest queued campaign for processing. The status
// flip to sending is what prevents two workers from picking the same one.
func (r *CampaignRepository) NextQueued() (*models.Campaign, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM campaigns WHERE status = ? ORDER BY created_at LIMIT 1`, models.CampaignStatusQueued).Scan(&id)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	res, err := r.db.Exec(`UPDATE campaigns SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		models.CampaignStatusSending, now, now, id, models.CampaignStatusQueued)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Another worker claimed it first.
		return nil, sql.ErrNoRows
	}

	return r.GetByID(id)
}

func (r *CampaignRepository) SetStatus(id, status string) error {
	now := time.Now().Unix()
	var completedAt interface{}
	if status == models.CampaignStatusCompleted || status == models.CampaignStatusFailed {
		completedAt = now
	}
	_, err := r.db.Exec(`UPDATE campaigns SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`, status, completedAt, now, id)
	return err
}

func (r *CampaignRepository) AddRecipient(rec *models.CampaignRecipient) error {
	if rec.ID == "" {
		rec.ID = "rcpt_" + uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = models.RecipientStatusPending
	}
	query := `
		INSERT INTO campaign_recipients (id, campaign_id, phone, status)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, rec.ID, rec.CampaignID, rec.Phone, rec.Status)
	return err
}

func (r *CampaignRepository) ListRecipients(campaignID string) ([]*models.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, phone, status, provider_message_id, error, sent_at
		FROM campaign_recipients WHERE campaign_id = ? ORDER BY rowid
	`
	rows, err := r.db.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []*models.CampaignRecipient
	for rows.Next() {
		var rec models.CampaignRecipient
		var providerMessageID, errMsg sql.NullString
		var sentAt sql.NullInt64

		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Phone, &rec.Status, &providerMessageID, &errMsg, &sentAt); err != nil {
			return nil, err
		}

		if providerMessageID.Valid {
			rec.ProviderMessageID = providerMessageID.String
		}
		if errMsg.Valid {
			rec.Error = errMsg.String
		}
		if sentAt.Valid {
			rec.SentAt = &sentAt.Int64
		}
		recipients = append(recipients, &rec)
	}
	return recipients, rows.Err()
}

func (r *CampaignRepository) MarkRecipientSent(id, providerMessageID string) error {
	_, err := r.db.Exec(`UPDATE campaign_recipients SET status = ?, provider_message_id = ?, sent_at = ? WHERE id = ?`,
		models.RecipientStatusSent, providerMessageID, time.Now().Unix(), id)
	return err
}

func (r *CampaignRepository) MarkRecipientFailed(id, errMsg string) error {
	_, err := r.db.Exec(`UPDATE campaign_recipients SET status = ?, error = ? WHERE id = ?`,
		models.RecipientStatusFailed, errMsg, id)
	return err
}
