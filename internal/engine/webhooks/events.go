package webhooks

import "fmt"

// The event catalog is fixed. Subscriptions may only reference these names.
const (
	EventMessageReceived  = "message.received"
	EventMessageSent      = "message.sent"
	EventMessageDelivered = "message.delivered"
	EventMessageRead      = "message.read"
	EventMessageFailed    = "message.failed"

	EventConversationCreated  = "conversation.created"
	EventConversationAssigned = "conversation.assigned"
	EventConversationResolved = "conversation.resolved"
	EventConversationReopened = "conversation.reopened"

	EventContactCreated  = "contact.created"
	EventContactUpdated  = "contact.updated"
	EventContactOptedOut = "contact.opted_out"

	EventCampaignStarted   = "campaign.started"
	EventCampaignCompleted = "campaign.completed"
	EventCampaignFailed    = "campaign.failed"
)

var eventCatalog = map[string]bool{
	EventMessageReceived:      true,
	EventMessageSent:          true,
	EventMessageDelivered:     true,
	EventMessageRead:          true,
	EventMessageFailed:        true,
	EventConversationCreated:  true,
	EventConversationAssigned: true,
	EventConversationResolved: true,
	EventConversationReopened: true,
	EventContactCreated:       true,
	EventContactUpdated:       true,
	EventContactOptedOut:      true,
	EventCampaignStarted:      true,
	EventCampaignCompleted:    true,
	EventCampaignFailed:       true,
}

func IsValidEvent(name string) bool {
	return eventCatalog[name]
}

func ValidateEvents(events []string) error {
	if len(events) == 0 {
		return fmt.Errorf("at least one event is required")
	}
	for _, e := range events {
		if !eventCatalog[e] {
			return fmt.Errorf("unknown event: %s", e)
		}
	}
	return nil
}

// Event is a domain event handed to the dispatcher for fan-out.
type Event struct {
	OrganizationID string
	Name           string
	Data           interface{}
}
