package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	apiContext "chatline/internal/api/context"
	"chatline/internal/platform/metrics"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

// RequestLogMiddleware records the outcome and latency of every
// authenticated call for audit. Persistence happens off the request path.
type RequestLogMiddleware struct {
	logs *repositories.RequestLogRepository
}

func NewRequestLogMiddleware(logs *repositories.RequestLogRepository) *RequestLogMiddleware {
	return &RequestLogMiddleware{logs: logs}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (m *RequestLogMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next(recorder, r)

		duration := time.Since(start)
		metrics.APIRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()

		reqCtx, ok := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)
		if !ok {
			return
		}

		entry := &models.APIRequestLog{
			OrganizationID: reqCtx.OrganizationID,
			APIKeyID:       reqCtx.APIKeyID,
			Method:         r.Method,
			Path:           r.URL.Path,
			StatusCode:     recorder.status,
			DurationMs:     duration.Milliseconds(),
		}

		go func() {
			if err := m.logs.Create(entry); err != nil {
				log.Error().Err(err).Str("api_key_id", entry.APIKeyID).Msg("failed to persist request log")
			}
		}()
	}
}
