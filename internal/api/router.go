package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiContext "chatline/internal/api/context"
	"chatline/internal/api/handlers"
	"chatline/internal/api/middleware"
	"chatline/internal/platform/auth"
)

type Dependencies struct {
	APIKeyHandler       *handlers.APIKeyHandler
	WebhookHandler      *handlers.WebhookHandler
	MessageHandler      *handlers.MessageHandler
	ContactHandler      *handlers.ContactHandler
	ConversationHandler *handlers.ConversationHandler
	CampaignHandler     *handlers.CampaignHandler
	HealthHandler       *handlers.HealthHandler

	SessionMiddleware    *middleware.SessionMiddleware
	APIKeyMiddleware     *middleware.APIKeyMiddleware
	RateLimitMiddleware  *middleware.RateLimitMiddleware
	RequestLogMiddleware *middleware.RequestLogMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// Management API: dashboard sessions create and revoke the credentials
	// the external API runs on.
	session := deps.SessionMiddleware

	router.POST("/api/v1/keys", chain(deps.APIKeyHandler.Create, session.Handle))
	router.GET("/api/v1/keys", chain(deps.APIKeyHandler.List, session.Handle))
	router.DELETE("/api/v1/keys/:key_id", chain(deps.APIKeyHandler.Revoke, session.Handle))
	router.GET("/api/v1/keys/:key_id/requests", chain(deps.APIKeyHandler.Requests, session.Handle))

	router.POST("/api/v1/webhooks", chain(deps.WebhookHandler.Create, session.Handle))
	router.GET("/api/v1/webhooks", chain(deps.WebhookHandler.List, session.Handle))
	router.GET("/api/v1/webhooks/:webhook_id", chain(deps.WebhookHandler.Get, session.Handle))
	router.PATCH("/api/v1/webhooks/:webhook_id", chain(deps.WebhookHandler.Update, session.Handle))
	router.DELETE("/api/v1/webhooks/:webhook_id", chain(deps.WebhookHandler.Delete, session.Handle))
	router.POST("/api/v1/webhooks/:webhook_id/rotate", chain(deps.WebhookHandler.RotateSecret, session.Handle))
	router.POST("/api/v1/webhooks/:webhook_id/test", chain(deps.WebhookHandler.Test, session.Handle))
	router.GET("/api/v1/webhooks/:webhook_id/stats", chain(deps.WebhookHandler.Stats, session.Handle))
	router.GET("/api/v1/webhooks/:webhook_id/deliveries", chain(deps.WebhookHandler.Deliveries, session.Handle))

	// External API: authenticator -> request logger -> rate limiter -> scope.
	gateway := func(handler http.HandlerFunc, scope auth.Scope) httprouter.Handle {
		return chain(handler,
			deps.APIKeyMiddleware.Handle,
			deps.RequestLogMiddleware.Handle,
			deps.RateLimitMiddleware.Handle,
			middleware.RequireScope(scope),
		)
	}

	router.GET("/v1/messages", gateway(deps.MessageHandler.List, auth.ScopeMessagesRead))
	router.POST("/v1/messages", gateway(deps.MessageHandler.Send, auth.ScopeMessagesSend))
	router.GET("/v1/contacts", gateway(deps.ContactHandler.List, auth.ScopeContactsRead))
	router.GET("/v1/conversations", gateway(deps.ConversationHandler.List, auth.ScopeConversationsRead))
	router.POST("/v1/campaigns", gateway(deps.CampaignHandler.Create, auth.ScopeCampaignsSend))
	router.GET("/v1/campaigns/:campaign_id", gateway(deps.CampaignHandler.Get, auth.ScopeCampaignsRead))
	router.POST("/v1/campaigns/:campaign_id/send", gateway(deps.CampaignHandler.Send, auth.ScopeCampaignsSend))

	return router
}

// chain applies middlewares outermost-first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts http.HandlerFunc to httprouter.Handle, carrying route params
// through the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
