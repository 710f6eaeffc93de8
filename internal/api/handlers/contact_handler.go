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

type ContactHandler struct {
	resources *repositories.ResourceRepository
}

func NewContactHandler(resources *repositories.ResourceRepository) *ContactHandler {
	return &ContactHandler{resources: resources}
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	contacts, err := h.resources.ListContacts(reqCtx.OrganizationID, limit)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to list contacts", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": contacts})
}
