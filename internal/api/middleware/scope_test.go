package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apiContext "chatline/internal/api/context"
	"chatline/internal/platform/auth"
	"chatline/internal/platform/models"
)

func requestWithScopes(scopes ...string) *http.Request {
	req, _ := http.NewRequest("GET", "/v1/messages", nil)
	reqCtx := &models.RequestContext{
		OrganizationID: "org_1",
		APIKeyID:       "key_1",
		Scopes:         scopes,
	}
	return req.WithContext(context.WithValue(req.Context(), apiContext.RequestCtx, reqCtx))
}

func TestRequireScope(t *testing.T) {
	t.Run("Granted", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler := RequireScope(auth.ScopeMessagesRead)(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, requestWithScopes("messages:read"))

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
	})

	t.Run("Missing Scope", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler := RequireScope(auth.ScopeMessagesRead)(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, requestWithScopes("contacts:read", "messages:send"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}

		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode error body: %v", err)
		}
		if body.Message != "missing scope messages:read" {
			t.Errorf("Expected the missing scope to be named, got %q", body.Message)
		}
	})

	t.Run("No Request Context", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/v1/messages", nil)
		rr := httptest.NewRecorder()
		handler := RequireScope(auth.ScopeMessagesRead)(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})
}
