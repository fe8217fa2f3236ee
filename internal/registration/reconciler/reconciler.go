// Package reconciler re-derives a tenant's true approval state from the
// compliance authority. It translates vendor vocabulary into internal status,
// applies the anti-regression rules, and computes the tenant-facing next
// action. Both the synchronous status endpoint and the scheduled sweep run
// through the same pass, so they cannot drift apart.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"
	"sendcore/pkg/platform/sentinel"
	"sendcore/pkg/requestcontext"

	"sendcore/internal/billing"
	"sendcore/internal/compliance"
	"sendcore/internal/events"
	"sendcore/internal/notify"
	regmetrics "sendcore/internal/registration/metrics"
	"sendcore/internal/registration/models"
	"sendcore/internal/registration/status"
	"sendcore/internal/registration/store"
)

// SweepConfig bounds the scheduled sweep.
type SweepConfig struct {
	// BatchSize caps profiles per sweep run to bound external API volume.
	BatchSize int
	// Concurrency caps simultaneous reconciliation passes within a sweep.
	Concurrency int
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 25
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Reconciler runs reconciliation passes. One instance serves both on-demand
// status requests and the scheduled sweep; passes for the same tenant are
// safe to interleave because all persistence goes through the store's atomic
// operations.
type Reconciler struct {
	client   compliance.Client
	store    store.ProfileStore
	notifier notify.Notifier
	charger  billing.Charger
	events   events.Publisher
	metrics  *regmetrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	sweep    SweepConfig
}

func New(client compliance.Client, profiles store.ProfileStore, notifier notify.Notifier, charger billing.Charger, publisher events.Publisher, logger *slog.Logger, m *regmetrics.Metrics, sweep SweepConfig) *Reconciler {
	return &Reconciler{
		client:   client,
		store:    profiles,
		notifier: notifier,
		charger:  charger,
		events:   publisher,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("sendcore/registration"),
		sweep:    sweep.withDefaults(),
	}
}

// BrandView is the brand slice of a status snapshot.
type BrandView struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// CampaignView is the campaign slice of a status snapshot.
type CampaignView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SenderView is one phone number attached to the messaging service.
type SenderView struct {
	SenderID    string `json:"sender_id"`
	PhoneNumber string `json:"phone_number"`
	A2PReady    bool   `json:"a2p_ready"`
}

// Outcome is the best-effort snapshot a reconciliation pass produces. It is
// returned to the caller even when persisting it failed.
type Outcome struct {
	RegistrationStatus models.RegistrationStatus `json:"registration_status"`
	ApplicationStatus  models.ApplicationStatus  `json:"application_status"`
	MessagingReady     bool                      `json:"messaging_ready"`
	NextAction         status.NextAction         `json:"next_action"`
	DeclinedReason     string                    `json:"declined_reason,omitempty"`
	Brand              BrandView                 `json:"brand"`
	Campaign           CampaignView              `json:"campaign"`
	MessagingServiceID string                    `json:"messaging_service_id,omitempty"`
	Senders            []SenderView              `json:"senders"`
}

// observation is what one pass actually learned from the authority. An axis
// with verified=false keeps its last-known value: a transient fetch error is
// not a status signal.
type observation struct {
	brandStatus      string
	brandDetails     []compliance.FailureDetail
	brandVerified    bool
	campaignStatus   string
	campaignVerified bool
}

// Reconcile runs one pass for a tenant. A tenant with no stored profile gets
// the cold-start snapshot rather than an error.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID id.TenantID) (*Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "registration.Reconcile",
		trace.WithAttributes(attribute.String("tenant_id", tenantID.String())))
	defer span.End()

	start := time.Now()
	if r.metrics != nil {
		r.metrics.ReconcilePasses.Inc()
		defer r.metrics.ObserveReconcile(start)
	}

	p, err := r.store.Get(ctx, tenantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &Outcome{
			RegistrationStatus: models.RegistrationNotStarted,
			ApplicationStatus:  models.ApplicationPending,
			MessagingReady:     false,
			NextAction:         status.ActionStartProfile,
		}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load registration profile")
	}

	return r.finish(ctx, p, r.observe(ctx, p))
}

// observe fetches current brand and campaign state. Each fetch is
// independently best-effort: an error leaves that axis unverified.
func (r *Reconciler) observe(ctx context.Context, p *models.RegistrationProfile) observation {
	var obs observation
	if p.BrandID != "" {
		brand, err := r.client.FetchBrandStatus(ctx, p.BrandID)
		if err != nil {
			r.logger.WarnContext(ctx, "brand status fetch failed, treating as unverified",
				"tenant_id", p.TenantID.String(), "brand_id", p.BrandID, "error", err)
		} else {
			obs.brandStatus = normalizeStatus(brand.Status)
			obs.brandDetails = brand.FailureDetails
			obs.brandVerified = true
		}
	}
	if p.CampaignID != "" && p.MessagingServiceID != "" {
		campaignStatus, err := r.client.FetchCampaignStatus(ctx, p.MessagingServiceID, p.CampaignID)
		if err != nil {
			r.logger.WarnContext(ctx, "campaign status fetch failed, treating as unverified",
				"tenant_id", p.TenantID.String(), "campaign_id", p.CampaignID, "error", err)
		} else {
			obs.campaignStatus = normalizeStatus(campaignStatus)
			obs.campaignVerified = true
		}
	}
	return obs
}

// normalizeStatus canonicalizes vendor status strings before storage so the
// persisted snapshot is case-stable regardless of vendor casing.
func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// finish derives, persists, notifies and assembles the outcome for one pass.
func (r *Reconciler) finish(ctx context.Context, p *models.RegistrationProfile, obs observation) (*Outcome, error) {
	update := derive(p, obs)
	update.LastSyncedAt = requestcontext.Now(ctx)

	r.publishTransition(ctx, p, update)

	// Persistence failure must not hide the computed state from the caller;
	// the next pass simply starts from staler data.
	if err := r.store.UpdateStatus(ctx, p.TenantID, update); err != nil {
		r.logger.ErrorContext(ctx, "could not persist reconciled status",
			"tenant_id", p.TenantID.String(), "error", err)
	}

	if update.ApplicationStatus == models.ApplicationApproved {
		r.notifyApproval(ctx, p)
	}
	if update.ApplicationStatus == models.ApplicationDeclined && r.metrics != nil {
		r.metrics.Declines.Inc()
	}

	return r.assemble(ctx, p, update), nil
}

// derive is the pure status translation for one pass. Axes the pass did not
// verify keep their last-known vendor status, but can neither grant approval
// nor clear a previous explicit failure.
func derive(p *models.RegistrationProfile, obs observation) store.StatusUpdate {
	brandStatus := p.BrandStatus
	if obs.brandVerified {
		brandStatus = obs.brandStatus
	}
	campaignStatus := p.CampaignStatus
	if obs.campaignVerified {
		campaignStatus = obs.campaignStatus
	}

	brandClass := status.Classify(brandStatus)
	campaignClass := status.Classify(campaignStatus)

	// Failure reasons come only from explicit vendor signals, fresh or
	// previously recorded. Absence of data never produces a decline.
	declinedReason := ""
	brandFailureDetail := p.BrandFailureDetail
	if obs.brandVerified {
		brandFailureDetail = ""
	}
	switch {
	case brandClass == status.ClassFailed:
		if obs.brandVerified {
			brandFailureDetail = brandFailureReason(obs.brandStatus, obs.brandDetails)
		}
		declinedReason = brandFailureDetail
		if declinedReason == "" {
			declinedReason = "brand registration failed carrier review"
		}
	case campaignClass == status.ClassFailed:
		declinedReason = "campaign " + strings.ToLower(campaignStatus) + " by carrier review"
	}

	reg := p.RegistrationStatus
	if reg == "" {
		reg = models.RegistrationNotStarted
	}
	switch brandClass {
	case status.ClassFailed:
		reg = models.RegistrationRejected
	case status.ClassApproved:
		reg = models.RegistrationBrandApproved
	default:
		switch {
		case p.BrandID != "":
			reg = models.RegistrationBrandSubmitted
		case p.SecondaryProfileID != "":
			reg = models.RegistrationProfileCreated
		}
	}
	if reg != models.RegistrationRejected && p.CampaignID != "" {
		switch campaignClass {
		case status.ClassFailed:
			reg = models.RegistrationRejected
		case status.ClassApproved:
			if obs.campaignVerified {
				reg = models.RegistrationReady
			} else {
				// A cached approval is progress, not readiness.
				reg = models.RegistrationCampaignApproved
			}
		default:
			if brandClass == status.ClassApproved {
				reg = models.RegistrationCampaignSubmitted
			}
		}
	}

	declined := reg == models.RegistrationRejected || declinedReason != ""

	// The strict policy: messaging is ready only when this pass itself
	// verified the campaign as approved. Campaigns can be revoked, so a
	// cached approval is never trusted across passes.
	messagingReady := obs.campaignVerified &&
		campaignClass == status.ClassApproved &&
		!declined

	applicationStatus := models.ApplicationPending
	switch {
	case declined:
		applicationStatus = models.ApplicationDeclined
		messagingReady = false
	case messagingReady:
		applicationStatus = models.ApplicationApproved
	}

	return store.StatusUpdate{
		BrandStatus:        brandStatus,
		BrandFailureDetail: brandFailureDetail,
		CampaignStatus:     campaignStatus,
		RegistrationStatus: reg,
		ApplicationStatus:  applicationStatus,
		MessagingReady:     messagingReady,
		DeclinedReason:     declinedReason,
	}
}

// brandFailureReason prefers the vendor's structured per-item descriptions
// and falls back to a generic message.
func brandFailureReason(vendorStatus string, details []compliance.FailureDetail) string {
	var parts []string
	for _, d := range details {
		if d.Description == "" {
			continue
		}
		if d.Field != "" {
			parts = append(parts, d.Field+": "+d.Description)
		} else {
			parts = append(parts, d.Description)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return "brand registration " + strings.ToLower(vendorStatus) + " by carrier review"
}

// notifyApproval fires the one-shot approval side effects. The store marker
// is flipped atomically, so concurrent or retried passes cannot double-send
// the notice or double-charge the fee.
func (r *Reconciler) notifyApproval(ctx context.Context, p *models.RegistrationProfile) {
	if p.ApprovalNotifiedAt != nil {
		return
	}
	first, err := r.store.MarkApprovalNotified(ctx, p.TenantID, requestcontext.Now(ctx))
	if err != nil {
		r.logger.ErrorContext(ctx, "could not mark approval notified",
			"tenant_id", p.TenantID.String(), "error", err)
		return
	}
	if !first {
		return
	}
	if r.metrics != nil {
		r.metrics.Approvals.Inc()
	}
	// One-time approval fee rides inside the same gate as the notice.
	if err := r.charger.ChargeApprovalFee(ctx, p.TenantID); err != nil {
		r.logger.WarnContext(ctx, "approval fee charge failed (non-fatal)",
			"tenant_id", p.TenantID.String(), "error", err)
	}
	if err := r.notifier.SendApprovalNotice(ctx, p.TenantID, p.Facts.ContactEmail); err != nil {
		r.logger.ErrorContext(ctx, "approval notice failed",
			"tenant_id", p.TenantID.String(), "error", err)
	}
}

func (r *Reconciler) publishTransition(ctx context.Context, p *models.RegistrationProfile, update store.StatusUpdate) {
	if p.RegistrationStatus == update.RegistrationStatus && p.ApplicationStatus == update.ApplicationStatus {
		return
	}
	event := events.StatusChanged{
		TenantID:          p.TenantID,
		From:              p.RegistrationStatus,
		To:                update.RegistrationStatus,
		ApplicationStatus: update.ApplicationStatus,
		MessagingReady:    update.MessagingReady,
		DeclinedReason:    update.DeclinedReason,
		ObservedAt:        requestcontext.Now(ctx),
	}
	if err := r.events.PublishStatusChanged(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "could not publish status event",
			"tenant_id", p.TenantID.String(), "error", err)
	}
}

// assemble builds the caller-facing snapshot, including the sender list.
func (r *Reconciler) assemble(ctx context.Context, p *models.RegistrationProfile, update store.StatusUpdate) *Outcome {
	out := &Outcome{
		RegistrationStatus: update.RegistrationStatus,
		ApplicationStatus:  update.ApplicationStatus,
		MessagingReady:     update.MessagingReady,
		DeclinedReason:     update.DeclinedReason,
		MessagingServiceID: p.MessagingServiceID,
		Brand: BrandView{
			ID:            p.BrandID,
			Status:        update.BrandStatus,
			FailureReason: update.BrandFailureDetail,
		},
		Campaign: CampaignView{
			ID:     p.CampaignID,
			Status: update.CampaignStatus,
		},
		Senders: []SenderView{},
	}

	brandClass := status.Classify(update.BrandStatus)
	campaignClass := status.Classify(update.CampaignStatus)
	out.NextAction = status.Derive(status.Snapshot{
		HasProfile:       p.SecondaryProfileID != "",
		HasBrand:         p.BrandID != "",
		BrandFailed:      brandClass == status.ClassFailed,
		BrandApproved:    brandClass == status.ClassApproved,
		HasService:       p.MessagingServiceID != "",
		HasCampaign:      p.CampaignID != "",
		CampaignFailed:   campaignClass == status.ClassFailed,
		CampaignApproved: campaignClass == status.ClassApproved && update.MessagingReady,
	})

	if p.MessagingServiceID != "" {
		senders, err := r.client.ListAttachedSenders(ctx, p.MessagingServiceID)
		if err != nil {
			r.logger.WarnContext(ctx, "could not list attached senders",
				"tenant_id", p.TenantID.String(), "error", err)
		}
		for _, s := range senders {
			out.Senders = append(out.Senders, SenderView{
				SenderID:    s.SenderID,
				PhoneNumber: formatE164(s.PhoneNumber),
				A2PReady:    update.MessagingReady,
			})
		}
	}
	return out
}

// formatE164 resolves a number's display form, assuming US numbers when the
// country code is missing.
func formatE164(raw string) string {
	digits := strings.Builder{}
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && d[0] == '1':
		return "+" + d
	case strings.HasPrefix(raw, "+"):
		return raw
	default:
		return raw
	}
}
