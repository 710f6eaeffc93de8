package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"chatline/internal/platform/models"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	key.CreatedAt = time.Now().Unix()
	key.IsActive = true

	scopesJSON, err := json.Marshal(key.Scopes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO api_keys (id, organization_id, name, key_prefix, secret_hash, scopes, is_active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, key.ID, key.OrganizationID, key.Name, key.KeyPrefix, key.SecretHash, string(scopesJSON), key.IsActive, key.CreatedAt, key.ExpiresAt)
	return err
}

func (r *APIKeyRepository) GetByPrefix(prefix string) (*models.APIKey, error) {
	query := `
		SELECT id, organization_id, name, key_prefix, secret_hash, scopes, is_active, last_used_at, expires_at, created_at
		FROM api_keys WHERE key_prefix = ?
	`
	return r.scanOne(r.db.QueryRow(query, prefix))
}

func (r *APIKeyRepository) GetByID(id string) (*models.APIKey, error) {
	query := `
		SELECT id, organization_id, name, key_prefix, secret_hash, scopes, is_active, last_used_at, expires_at, created_at
		FROM api_keys WHERE id = ?
	`
	return r.scanOne(r.db.QueryRow(query, id))
}

func (r *APIKeyRepository) scanOne(row *sql.Row) (*models.APIKey, error) {
	var k models.APIKey
	var scopesStr string
	var lastUsedAt sql.NullInt64
	var expiresAt sql.NullInt64

	err := row.Scan(&k.ID, &k.OrganizationID, &k.Name, &k.KeyPrefix, &k.SecretHash, &scopesStr, &k.IsActive, &lastUsedAt, &expiresAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lastUsedAt.Valid {
		k.LastUsedAt = &lastUsedAt.Int64
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Int64
	}
	json.Unmarshal([]byte(scopesStr), &k.Scopes)

	return &k, nil
}

func (r *APIKeyRepository) ListByOrg(orgID string) ([]*models.APIKey, error) {
	query := `
		SELECT id, name, key_prefix, scopes, is_active, last_used_at, expires_at, created_at
		FROM api_keys WHERE organization_id = ? ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		var scopesStr string
		var lastUsedAt sql.NullInt64
		var expiresAt sql.NullInt64

		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &scopesStr, &k.IsActive, &lastUsedAt, &expiresAt, &k.CreatedAt); err != nil {
			return nil, err
		}

		if lastUsedAt.Valid {
			k.LastUsedAt = &lastUsedAt.Int64
		}
		if expiresAt.Valid {
			k.ExpiresAt = &expiresAt.Int64
		}
		json.Unmarshal([]byte(scopesStr), &k.Scopes)
		k.OrganizationID = orgID
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// Revoke deactivates a key. Keys are never hard-deleted.
func (r *APIKeyRepository) Revoke(id, orgID string) error {
	res, err := r.db.Exec(`UPDATE api_keys SET is_active = 0 WHERE id = ? AND organization_id = ?`, id, orgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *APIKeyRepository) UpdateLastUsed(id string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}
