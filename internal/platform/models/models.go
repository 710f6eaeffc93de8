package models

type Organization struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	PlanTier  string `json:"plan_tier"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

type Contact struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Phone          string `json:"phone"`
	Name           string `json:"name,omitempty"`
	OptedOut       bool   `json:"opted_out"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

type Conversation struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ContactID      string `json:"contact_id"`
	Status         string `json:"status"` // open, assigned, resolved
	AssignedTo     string `json:"assigned_to,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

type Message struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ConversationID string `json:"conversation_id"`
	Direction      string `json:"direction"` // inbound, outbound
	Body           string `json:"body"`
	Status         string `json:"status"` // queued, sent, delivered, read, failed
	CreatedAt      int64  `json:"created_at"`
}

// APIRequestLog records the outcome of one authenticated gateway call.
type APIRequestLog struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	APIKeyID       string `json:"api_key_id"`
	Method         string `json:"method"`
	Path           string `json:"path"`
	StatusCode     int    `json:"status_code"`
	DurationMs     int64  `json:"duration_ms"`
	CreatedAt      int64  `json:"created_at"`
}
