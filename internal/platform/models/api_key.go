package models

type APIKey struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	Name           string   `json:"name"`
	KeyPrefix      string   `json:"key_prefix"`
	SecretHash     string   `json:"-"`
	Scopes         []string `json:"scopes"` // JSON array in DB
	IsActive       bool     `json:"is_active"`
	LastUsedAt     *int64   `json:"last_used_at,omitempty"`
	ExpiresAt      *int64   `json:"expires_at,omitempty"`
	CreatedAt      int64    `json:"created_at"`
}

// RequestContext is derived from a validated API key. It lives for one
// request and is discarded with the response.
type RequestContext struct {
	OrganizationID string
	APIKeyID       string
	Scopes         []string
}

func (c *RequestContext) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
