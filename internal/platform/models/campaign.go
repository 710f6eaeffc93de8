package models

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusQueued    = "queued"
	CampaignStatusSending   = "sending"
	CampaignStatusCompleted = "completed"
	CampaignStatusFailed    = "failed"
)

const (
	RecipientStatusPending = "pending"
	RecipientStatusSent    = "sent"
	RecipientStatusFailed  = "failed"
)

type Campaign struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	MessageBody    string `json:"message_body"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	StartedAt      *int64 `json:"started_at,omitempty"`
	CompletedAt    *int64 `json:"completed_at,omitempty"`
}

type CampaignRecipient struct {
	ID                string `json:"id"`
	CampaignID        string `json:"campaign_id"`
	Phone             string `json:"phone"`
	Status            string `json:"status"` // pending, sent, failed
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
	SentAt            *int64 `json:"sent_at,omitempty"`
}
