package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apiContext "chatline/internal/api/context"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/auth"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

// APIKeyMiddleware authenticates external v1 calls. Every failure mode
// (missing header, unknown prefix, bad secret, revoked, expired) collapses
// into the same 401 so callers can't probe which part was wrong.
type APIKeyMiddleware struct {
	keys *repositories.APIKeyRepository
}

func NewAPIKeyMiddleware(keys *repositories.APIKeyRepository) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys}
}

const invalidKeyMessage = "Invalid API key"

func (m *APIKeyMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, invalidKeyMessage, nil)
			return
		}

		prefix, secret, err := auth.SplitKey(token)
		if err != nil {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, invalidKeyMessage, nil)
			return
		}

		key, err := m.keys.GetByPrefix(prefix)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				log.Error().Err(err).Msg("api key lookup failed")
			}
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, invalidKeyMessage, nil)
			return
		}

		if !auth.VerifySecret(secret, key.SecretHash) {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, invalidKeyMessage, nil)
			return
		}

		if !key.IsActive {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, invalidKeyMessage, nil)
			return
		}

		if key.ExpiresAt != nil && time.Now().Unix() >= *key.ExpiresAt {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, invalidKeyMessage, nil)
			return
		}

		// Touch last_used_at off the request path.
		go func(id string) {
			if err := m.keys.UpdateLastUsed(id); err != nil {
				log.Error().Err(err).Str("api_key_id", id).Msg("failed to update last_used_at")
			}
		}(key.ID)

		reqCtx := &models.RequestContext{
			OrganizationID: key.OrganizationID,
			APIKeyID:       key.ID,
			Scopes:         key.Scopes,
		}

		ctx := context.WithValue(r.Context(), apiContext.RequestCtx, reqCtx)
		next(w, r.WithContext(ctx))
	}
}
