package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apiContext "chatline/internal/api/context"
	apiErrors "chatline/internal/pkg/errors"
	"chatline/internal/platform/models"
	"chatline/internal/platform/repositories"
)

type CampaignHandler struct {
	campaigns *repositories.CampaignRepository
}

func NewCampaignHandler(campaigns *repositories.CampaignRepository) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)

	var req struct {
		Name        string   `json:"name"`
		MessageBody string   `json:"message_body"`
		Recipients  []string `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" || req.MessageBody == "" || len(req.Recipients) == 0 {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "name, message_body and recipients are required", nil)
		return
	}

	campaign := &models.Campaign{
		OrganizationID: reqCtx.OrganizationID,
		Name:           req.Name,
		MessageBody:    req.MessageBody,
	}

	if err := h.campaigns.Create(campaign); err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to create campaign", nil)
		return
	}

	for _, phone := range req.Recipients {
		rec := &models.CampaignRecipient{CampaignID: campaign.ID, Phone: phone}
		if err := h.campaigns.AddRecipient(rec); err != nil {
			log.Error().Err(err).Str("campaign_id", campaign.ID).Msg("failed to add recipient")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)
	id := paramFromContext(r, "campaign_id")

	campaign, err := h.campaign(reqCtx.OrganizationID, id)
	if err != nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "Campaign not found", nil)
		return
	}

	recipients, err := h.campaigns.ListRecipients(campaign.ID)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to load recipients", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign":   campaign,
		"recipients": recipients,
	})
}

// Send queues a draft campaign; the broadcast worker picks it up.
func (h *CampaignHandler) Send(w http.ResponseWriter, r *http.Request) {
	reqCtx := r.Context().Value(apiContext.RequestCtx).(*models.RequestContext)
	id := paramFromContext(r, "campaign_id")

	campaign, err := h.campaign(reqCtx.OrganizationID, id)
	if err != nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "Campaign not found", nil)
		return
	}

	if campaign.Status != models.CampaignStatusDraft {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "campaign is not in draft status", nil)
		return
	}

	if err := h.campaigns.SetStatus(campaign.ID, models.CampaignStatusQueued); err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to queue campaign", nil)
		return
	}
	campaign.Status = models.CampaignStatusQueued

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(campaign)
}

func (h *CampaignHandler) campaign(orgID, id string) (*models.Campaign, error) {
	campaign, err := h.campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}
	if campaign.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return campaign, nil
}
