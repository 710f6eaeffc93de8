package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "chatline/internal/api/context"
	"chatline/internal/engine/webhooks"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

type MessageHandler struct {
	resources  *repositories.ResourceRepository
	dispatcher *webhooks.Dispatcher
}

func NewMessageHandler(resources *repositories.ResourceRepository, dispatcher *webhooks.Dispatcher) *MessageHandler {
	return &MessageHandler{resources: resources, dispatcher: dispatcher}
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	messages, err := h.resources.ListMessages(reqCtx.OrganizationID, limit)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to list messages", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": messages})
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)

	var req struct {
		ConversationID string `json:"conversation_id"`
		Body           string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.ConversationID == "" || req.Body == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "conversation_id and body are required", nil)
		return
	}

	message := &models.Message{
		OrganizationID: reqCtx.OrganizationID,
		ConversationID: req.ConversationID,
		Direction:      "outbound",
		Body:           req.Body,
	}

	if err := h.resources.CreateMessage(message); err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to create message", nil)
		return
	}

	h.dispatcher.Dispatch(webhooks.Event{
		OrganizationID: reqCtx.OrganizationID,
		Name:           webhooks.EventMessageSent,
		Data:           message,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(message)
}
