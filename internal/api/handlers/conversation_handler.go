package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "chatline/internal/api/context"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

type ConversationHandler struct {
	resources *repositories.ResourceRepository
}

func NewConversationHandler(resources *repositories.ResourceRepository) *ConversationHandler {
	return &ConversationHandler{resources: resources}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	conversations, err := h.resources.ListConversations(reqCtx.OrganizationID, limit)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to list conversations", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": conversations})
}
