package handler

import (
	"sendcore/internal/registration/reconciler"
	"sendcore/internal/registration/saga"
)

// RegisterResponse is the HTTP response body for POST /a2p/register.
type RegisterResponse struct {
	MessagingServiceID string `json:"messaging_service_id"`
	BrandID            string `json:"brand_id"`
	CampaignID         string `json:"campaign_id"`
}

// FromResult converts a saga result into the HTTP response shape.
func FromResult(result *saga.Result) *RegisterResponse {
	return &RegisterResponse{
		MessagingServiceID: result.MessagingServiceID,
		BrandID:            result.BrandID,
		CampaignID:         result.CampaignID,
	}
}

// SyncResponse is the HTTP response body for POST /a2p/sync.
type SyncResponse struct {
	Swept   int                      `json:"swept"`
	Results []reconciler.SweepResult `json:"results"`
}

// StatusResponse is the HTTP response body for GET /a2p/status. The outcome
// already carries JSON tags, so it is returned as-is.
type StatusResponse = reconciler.Outcome
