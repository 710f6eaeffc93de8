package middleware

import (
	"net/http"

	apiContext "chatline/internal/api/context"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/auth"
	"chatline/internal/platform/models"
)

// RequireScope rejects requests whose key lacks the exact scope, naming the
// missing scope in the response. No wildcard or hierarchy.
func RequireScope(scope auth.Scope) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			reqCtx, ok := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)
			if !ok {
				apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, "Invalid API key", nil)
				return
			}

			if !auth.HasScope(reqCtx.Scopes, scope) {
				apiErrors.WriteError(w, http.StatusForbidden, apiErrors.ErrCodeForbidden, "missing scope "+string(scope), nil)
				return
			}

			next(w, r)
		}
	}
}
