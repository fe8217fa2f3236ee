package reconciler

import (
	"context"
	"errors"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"
	"sendcore/pkg/platform/sentinel"

	"sendcore/internal/registration/status"
)

// ApplyCallback folds a vendor-pushed status into a reconciliation pass.
// A pushed status counts as verified for its axis, so a callback can flip
// messagingReady on its own without waiting for the next sweep.
//
// Vendor callbacks are delivered at-least-once and out of order. When a push
// scores strictly weaker than what we already hold, the live API is asked to
// break the tie; a stale "pending" callback arriving after an approval must
// not demote the tenant.
func (r *Reconciler) ApplyCallback(ctx context.Context, tenantID id.TenantID, brandStatus, campaignStatus string) (*Outcome, error) {
	p, err := r.store.Get(ctx, tenantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no registration profile for callback")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load registration profile")
	}

	var obs observation
	if brandStatus != "" {
		obs.brandStatus = normalizeStatus(brandStatus)
		obs.brandVerified = true
		if status.Score(obs.brandStatus) < status.Score(p.BrandStatus) && p.BrandID != "" {
			if live, err := r.client.FetchBrandStatus(ctx, p.BrandID); err == nil {
				obs.brandStatus = normalizeStatus(live.Status)
				obs.brandDetails = live.FailureDetails
			}
		}
	}
	if campaignStatus != "" {
		obs.campaignStatus = normalizeStatus(campaignStatus)
		obs.campaignVerified = true
		if status.Score(obs.campaignStatus) < status.Score(p.CampaignStatus) &&
			p.CampaignID != "" && p.MessagingServiceID != "" {
			if live, err := r.client.FetchCampaignStatus(ctx, p.MessagingServiceID, p.CampaignID); err == nil {
				obs.campaignStatus = normalizeStatus(live)
			}
		}
	}

	r.logger.InfoContext(ctx, "applying vendor status callback",
		"tenant_id", tenantID.String(),
		"brand_status", brandStatus,
		"campaign_status", campaignStatus)

	return r.finish(ctx, p, obs)
}
