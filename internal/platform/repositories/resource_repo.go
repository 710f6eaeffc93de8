package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"chatline/internal/platform/models"
)

// ResourceRepository backs the read-mostly v1 resource endpoints. Full CRUD
// for the messaging domain lives outside the gateway; this is the slice the
// gateway serves itself.
type ResourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) ListMessages(orgID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, organization_id, conversation_id, direction, body, status, created_at
		FROM messages WHERE organization_id = ? ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.Query(query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.ConversationID, &m.Direction, &m.Body, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *ResourceRepository) CreateMessage(m *models.Message) error {
	if m.ID == "" {
		m.ID = "msg_" + uuid.New().String()
	}
	m.CreatedAt = time.Now().Unix()
	if m.Status == "" {
		m.Status = "queued"
	}

	query := `
		INSERT INTO messages (id, organization_id, conversation_id, direction, body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, m.ID, m.OrganizationID, m.ConversationID, m.Direction, m.Body, m.Status, m.CreatedAt)
	return err
}

func (r *ResourceRepository) ListContacts(orgID string, limit int) ([]*models.Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, organization_id, phone, name, opted_out, created_at, updated_at
		FROM contacts WHERE organization_id = ? ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.Query(query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var c models.Contact
		var name sql.NullString
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Phone, &name, &c.OptedOut, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if name.Valid {
			c.Name = name.String
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

func (r *ResourceRepository) ListConversations(orgID string, limit int) ([]*models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, organization_id, contact_id, status, assigned_to, created_at, updated_at
		FROM conversations WHERE organization_id = ? ORDER BY updated_at DESC LIMIT ?
	`
	rows, err := r.db.Query(query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		var c models.Conversation
		var assignedTo sql.NullString
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.ContactID, &c.Status, &assignedTo, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if assignedTo.Valid {
			c.AssignedTo = assignedTo.String
		}
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}
