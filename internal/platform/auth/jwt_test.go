package auth

import (
	"testing"
	"time"

	"chatline/internal/platform/config"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
	})

	token, err := svc.GenerateAccessToken("user_1", "org_1", "admin", "admin@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if claims.UserID != "user_1" {
		t.Errorf("Expected user_1, got %s", claims.UserID)
	}
	if claims.OrganizationID != "org_1" {
		t.Errorf("Expected org_1, got %s", claims.OrganizationID)
	}
	if claims.Role != "admin" {
		t.Errorf("Expected admin, got %s", claims.Role)
	}
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService(config.JWTConfig{Secret: "secret-a", AccessTokenTTL: time.Hour})
	verifier := NewTokenService(config.JWTConfig{Secret: "secret-b", AccessTokenTTL: time.Hour})

	token, err := issuer.GenerateAccessToken("user_1", "org_1", "admin", "admin@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret validated")
	}
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: -time.Minute,
	})

	token, err := svc.GenerateAccessToken("user_1", "org_1", "admin", "admin@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Expired token validated")
	}
}
