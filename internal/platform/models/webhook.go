package models

type Webhook struct {
	ID              string            `json:"id"`
	OrganizationID  string            `json:"organization_id"`
	URL             string            `json:"url"`
	Secret          string            `json:"-"`
	Events          []string          `json:"events"` // JSON array in DB
	IsActive        bool              `json:"is_active"`
	Description     string            `json:"description,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"` // JSON object in DB
	FailureCount    int               `json:"failure_count"`
	LastTriggeredAt *int64            `json:"last_triggered_at,omitempty"`
	LastSuccessAt   *int64            `json:"last_success_at,omitempty"`
	LastFailureAt   *int64            `json:"last_failure_at,omitempty"`
	CreatedAt       int64             `json:"created_at"`
	UpdatedAt       int64             `json:"updated_at"`
}

func (w *Webhook) SubscribedTo(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
)

type DeliveryLogEntry struct {
	ID          string `json:"id"`
	WebhookID   string `json:"webhook_id"`
	Event       string `json:"event"`
	Status      string `json:"status"` // pending, success, failed
	StatusCode  *int   `json:"status_code,omitempty"`
	Attempts    int    `json:"attempts"`
	DurationMs  *int64 `json:"duration_ms,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	DeliveredAt *int64 `json:"delivered_at,omitempty"`
}

type WebhookStats struct {
	WebhookID    string  `json:"webhook_id"`
	Total        int     `json:"total"`
	Succeeded    int     `json:"succeeded"`
	Failed       int     `json:"failed"`
	SuccessRate  float64 `json:"success_rate"`
	Last24hCount int     `json:"last_24h_count"`
}
