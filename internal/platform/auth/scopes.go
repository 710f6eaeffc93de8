package auth

import "fmt"

// Scope is a resource:action permission string granted to an API key.
// Matching is exact: holding messages:send does not imply messages:read.
type Scope string

const (
	ScopeMessagesRead       Scope = "messages:read"
	ScopeMessagesSend       Scope = "messages:send"
	ScopeConversationsRead  Scope = "conversations:read"
	ScopeConversationsWrite Scope = "conversations:write"
	ScopeContactsRead       Scope = "contacts:read"
	ScopeContactsWrite      Scope = "contacts:write"
	ScopeCampaignsRead      Scope = "campaigns:read"
	ScopeCampaignsSend      Scope = "campaigns:send"
	ScopeWebhooksManage     Scope = "webhooks:manage"
	ScopeAPIKeysManage      Scope = "api_keys:manage"
)

func AllScopes() []Scope {
	return []Scope{
		ScopeMessagesRead,
		ScopeMessagesSend,
		ScopeConversationsRead,
		ScopeConversationsWrite,
		ScopeContactsRead,
		ScopeContactsWrite,
		ScopeCampaignsRead,
		ScopeCampaignsSend,
		ScopeWebhooksManage,
		ScopeAPIKeysManage,
	}
}

func ValidScopes() map[string]bool {
	valid := make(map[string]bool)
	for _, scope := range AllScopes() {
		valid[string(scope)] = true
	}
	return valid
}

// ValidateScopes checks that every provided scope is in the catalog.
func ValidateScopes(scopes []string) error {
	valid := ValidScopes()
	for _, scope := range scopes {
		if !valid[scope] {
			return fmt.Errorf("invalid scope: %s", scope)
		}
	}
	return nil
}

// HasScope reports whether the granted scopes contain the required scope.
// Exact match only, no wildcard or hierarchy.
func HasScope(granted []string, required Scope) bool {
	requiredStr := string(required)
	for _, scope := range granted {
		if scope == requiredStr {
			return true
		}
	}
	return false
}
