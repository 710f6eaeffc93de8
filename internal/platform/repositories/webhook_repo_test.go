package repositories

import (
	"database/sql"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"chatline/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	query := `
	CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		key_prefix TEXT NOT NULL UNIQUE,
		secret_hash TEXT NOT NULL,
		scopes TEXT NOT NULL DEFAULT '[]',
		is_active INTEGER NOT NULL DEFAULT 1,
		last_used_at INTEGER,
		expires_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT NOT NULL DEFAULT '[]',
		is_active INTEGER NOT NULL DEFAULT 1,
		description TEXT,
		headers TEXT NOT NULL DEFAULT '{}',
		failure_count INTEGER NOT NULL DEFAULT 0,
		last_triggered_at INTEGER,
		last_success_at INTEGER,
		last_failure_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE delivery_logs (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		event TEXT NOT NULL,
		status TEXT NOT NULL,
		status_code INTEGER,
		attempts INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER,
		error TEXT,
		created_at INTEGER NOT NULL,
		delivered_at INTEGER
	);
	CREATE TABLE campaigns (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		message_body TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		started_at INTEGER,
		completed_at INTEGER
	);
	CREATE TABLE campaign_recipients (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		phone TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		provider_message_id TEXT,
		error TEXT,
		sent_at INTEGER
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func TestWebhookRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)

	webhook := &models.Webhook{
		OrganizationID: "org_1",
		URL:            "https://example.com/hooks",
		Secret:         "whsec_test",
		Events:         []string{"message.sent", "message.received"},
		Headers:        map[string]string{"X-Custom": "value"},
	}

	if err := repo.Create(webhook); err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}
	if webhook.ID == "" {
		t.Fatal("Expected generated id")
	}

	fetched, err := repo.GetByID(webhook.ID)
	if err != nil {
		t.Fatalf("Failed to get webhook: %v", err)
	}
	if fetched.URL != webhook.URL {
		t.Errorf("Expected URL %s, got %s", webhook.URL, fetched.URL)
	}
	if len(fetched.Events) != 2 {
		t.Errorf("Expected 2 events, got %d", len(fetched.Events))
	}
	if fetched.Headers["X-Custom"] != "value" {
		t.Error("Custom headers did not round-trip")
	}
	if !fetched.IsActive {
		t.Error("New webhook should be active")
	}
}

func TestWebhookRepository_ListActiveByEvent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)

	matching := &models.Webhook{OrganizationID: "org_1", URL: "https://a.example.com", Secret: "s1", Events: []string{"message.sent"}}
	wrongEvent := &models.Webhook{OrganizationID: "org_1", URL: "https://b.example.com", Secret: "s2", Events: []string{"contact.created"}}
	wrongOrg := &models.Webhook{OrganizationID: "org_2", URL: "https://c.example.com", Secret: "s3", Events: []string{"message.sent"}}
	inactive := &models.Webhook{OrganizationID: "org_1", URL: "https://d.example.com", Secret: "s4", Events: []string{"message.sent"}}

	for _, w := range []*models.Webhook{matching, wrongEvent, wrongOrg, inactive} {
		if err := repo.Create(w); err != nil {
			t.Fatalf("Failed to create webhook: %v", err)
		}
	}
	if err := repo.Deactivate(inactive.ID); err != nil {
		t.Fatalf("Failed to deactivate webhook: %v", err)
	}

	targets, err := repo.ListActiveByEvent("org_1", "message.sent")
	if err != nil {
		t.Fatalf("Failed to list targets: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("Expected 1 target, got %d", len(targets))
	}
	if targets[0].ID != matching.ID {
		t.Errorf("Expected %s, got %s", matching.ID, targets[0].ID)
	}
}

func TestWebhookRepository_FailureCounter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)

	webhook := &models.Webhook{OrganizationID: "org_1", URL: "https://example.com", Secret: "s", Events: []string{"message.sent"}}
	if err := repo.Create(webhook); err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}

	for want := 1; want <= 3; want++ {
		count, err := repo.RecordFailure(webhook.ID, 1700000000)
		if err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
		if count != want {
			t.Errorf("RecordFailure returned %d, want %d", count, want)
		}
	}

	if err := repo.RecordSuccess(webhook.ID, 1700000100); err != nil {
		t.Fatalf("RecordSuccess error: %v", err)
	}

	fetched, err := repo.GetByID(webhook.ID)
	if err != nil {
		t.Fatalf("Failed to get webhook: %v", err)
	}
	if fetched.FailureCount != 0 {
		t.Errorf("Expected failure_count reset to 0, got %d", fetched.FailureCount)
	}
	if fetched.LastSuccessAt == nil || *fetched.LastSuccessAt != 1700000100 {
		t.Error("Expected last_success_at to be recorded")
	}
	if fetched.LastFailureAt == nil || *fetched.LastFailureAt != 1700000000 {
		t.Error("Expected last_failure_at to survive the success")
	}
}

func TestWebhookRepository_RecordFailureConcurrent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)

	webhook := &models.Webhook{OrganizationID: "org_1", URL: "https://example.com", Secret: "s", Events: []string{"message.sent"}}
	if err := repo.Create(webhook); err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}

	const n = 8
	counts := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := repo.RecordFailure(webhook.ID, 1700000000)
			if err != nil {
				t.Errorf("RecordFailure error: %v", err)
				return
			}
			counts <- count
		}()
	}
	wg.Wait()
	close(counts)

	// Each caller must observe its own increment, not a neighbor's.
	seen := make(map[int]bool)
	for count := range counts {
		if seen[count] {
			t.Errorf("Count %d observed twice", count)
		}
		seen[count] = true
	}
	for want := 1; want <= n; want++ {
		if !seen[want] {
			t.Errorf("Count %d never observed", want)
		}
	}
}

func TestWebhookRepository_RotateSecret(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)

	webhook := &models.Webhook{OrganizationID: "org_1", URL: "https://example.com", Secret: "whsec_old", Events: []string{"message.sent"}}
	if err := repo.Create(webhook); err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}

	if err := repo.RotateSecret(webhook.ID, "whsec_new"); err != nil {
		t.Fatalf("RotateSecret error: %v", err)
	}

	fetched, _ := repo.GetByID(webhook.ID)
	if fetched.Secret != "whsec_new" {
		t.Errorf("Expected rotated secret, got %s", fetched.Secret)
	}

	if err := repo.RotateSecret("wh_missing", "whsec_x"); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows for unknown webhook, got %v", err)
	}
}
