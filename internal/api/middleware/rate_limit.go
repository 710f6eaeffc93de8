package middleware

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	apiContext "chatline/internal/api/context"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/metrics"
	"chatline/internal/platform/models"
	"chatline/internal/platform/ratelimit"
)

// RateLimitMiddleware enforces the per-key window. It runs after the API key
// authenticator, so the key id is always in context. Headers go out on every
// response, 429s included.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

func (m *RateLimitMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqCtx, ok := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)
		if !ok {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, "Invalid API key", nil)
			return
		}

		result, err := m.limiter.Check(r.Context(), reqCtx.APIKeyID)
		if err != nil {
			// A broken limiter backend should not take the API down.
			log.Error().Err(err).Str("api_key_id", reqCtx.APIKeyID).Msg("rate limit check failed")
			next(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			metrics.RateLimitRejections.Inc()
			apiErrors.WriteError(w, http.StatusTooManyRequests, apiErrors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
			return
		}

		next(w, r)
	}
}
