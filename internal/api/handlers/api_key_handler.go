package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "chatline/internal/api/context"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/auth"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

type APIKeyHandler struct {
	keys *repositories.APIKeyRepository
	logs *repositories.RequestLogRepository
}

func NewAPIKeyHandler(keys *repositories.APIKeyRepository, logs *repositories.RequestLogRepository) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, logs: logs}
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req struct {
		Name          string   `json:"name"`
		Scopes        []string `json:"scopes"`
		ExpiresInDays int      `json:"expires_in_days"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "name is required", nil)
		return
	}
	if err := auth.ValidateScopes(req.Scopes); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	fullKey, prefix, secretHash, err := auth.GenerateAPIKey()
	if err != nil {
		log.Error().Err(err).Msg("api key generation failed")
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to create API key", nil)
		return
	}

	apiKey := &models.APIKey{
		OrganizationID: claims.OrganizationID,
		Name:           req.Name,
		KeyPrefix:      prefix,
		SecretHash:     secretHash,
		Scopes:         req.Scopes,
	}

	if req.ExpiresInDays > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour).Unix()
		apiKey.ExpiresAt = &exp
	}

	if err := h.keys.Create(apiKey); err != nil {
		log.Error().Err(err).Msg("api key insert failed")
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to create API key", nil)
		return
	}

	// The raw key is returned exactly once; only the hash survives.
	response := struct {
		ID        string   `json:"id"`
		Key       string   `json:"key"`
		KeyPrefix string   `json:"key_prefix"`
		Name      string   `json:"name"`
		Scopes    []string `json:"scopes"`
		ExpiresAt *int64   `json:"expires_at,omitempty"`
		CreatedAt int64    `json:"created_at"`
	}{
		ID:        apiKey.ID,
		Key:       fullKey,
		KeyPrefix: apiKey.KeyPrefix,
		Name:      apiKey.Name,
		Scopes:    apiKey.Scopes,
		ExpiresAt: apiKey.ExpiresAt,
		CreatedAt: apiKey.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	keys, err := h.keys.ListByOrg(claims.OrganizationID)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to list API keys", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	keyID := params.ByName("key_id")

	if err := h.keys.Revoke(keyID, claims.OrganizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "API key not found", nil)
			return
		}
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to revoke API key", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Requests lists recent audited calls made with one key.
func (h *APIKeyHandler) Requests(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	keyID := params.ByName("key_id")

	key, err := h.keys.GetByID(keyID)
	if err != nil || key.OrganizationID != claims.OrganizationID {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "API key not found", nil)
		return
	}

	entries, err := h.logs.ListByKey(keyID, 100)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to list requests", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
