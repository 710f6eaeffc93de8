package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"chatline/internal/platform/models"
)

func TestAPIKeyRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewAPIKeyRepository(db)

	key := &models.APIKey{
		OrganizationID: "org_1",
		Name:           "Integration",
		KeyPrefix:      "wa_abcd1234",
		SecretHash:     "$2a$10$fakehash",
		Scopes:         []string{"messages:read", "messages:send"},
	}
	if err := repo.Create(key); err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}

	fetched, err := repo.GetByPrefix("wa_abcd1234")
	if err != nil {
		t.Fatalf("Failed to get key by prefix: %v", err)
	}
	if fetched.ID != key.ID {
		t.Errorf("Expected id %s, got %s", key.ID, fetched.ID)
	}
	if len(fetched.Scopes) != 2 {
		t.Errorf("Expected 2 scopes, got %d", len(fetched.Scopes))
	}
	if !fetched.IsActive {
		t.Error("New key should be active")
	}
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewAPIKeyRepository(db)

	key := &models.APIKey{
		OrganizationID: "org_1",
		Name:           "Throwaway",
		KeyPrefix:      "wa_dead0000",
		SecretHash:     "$2a$10$fakehash",
		Scopes:         []string{"messages:read"},
	}
	if err := repo.Create(key); err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}

	// Revocation is scoped to the owning org.
	if err := repo.Revoke(key.ID, "org_2"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for foreign org, got %v", err)
	}

	if err := repo.Revoke(key.ID, "org_1"); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	fetched, err := repo.GetByID(key.ID)
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if fetched.IsActive {
		t.Error("Revoked key should be inactive")
	}
}
