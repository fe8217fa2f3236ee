package saga

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"
	"sendcore/pkg/platform/sentinel"
	"sendcore/pkg/requestcontext"

	"sendcore/internal/compliance"
	"sendcore/internal/registration/lock"
	regmetrics "sendcore/internal/registration/metrics"
	"sendcore/internal/registration/models"
	"sendcore/internal/registration/store"
)

// lockTTL bounds how long a crashed saga run can block its tenant.
const lockTTL = 2 * time.Minute

// Result is the accumulated handle set a successful Register returns.
type Result struct {
	MessagingServiceID string `json:"messaging_service_id"`
	BrandID            string `json:"brand_id"`
	CampaignID         string `json:"campaign_id"`
}

// Orchestrator drives the registration saga. Safe to call repeatedly with
// the same or evolving input: completed steps are skipped via their stored
// handles and a failed run resumes from the first unset handle.
type Orchestrator struct {
	store   store.ProfileStore
	locks   lock.TenantLock
	logger  *slog.Logger
	metrics *regmetrics.Metrics
	tracer  trace.Tracer
	steps   []Step
}

func New(client compliance.Client, profiles store.ProfileStore, locks lock.TenantLock, cfg Config, logger *slog.Logger, m *regmetrics.Metrics) *Orchestrator {
	deps := &stepDeps{client: client, cfg: cfg, logger: logger}
	return &Orchestrator{
		store:   profiles,
		locks:   locks,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("sendcore/registration"),
		steps: []Step{
			ensureMessagingService{deps},
			createSecondaryProfile{deps},
			createBusinessEntity{deps},
			createAuthorizedRep{deps},
			assignToPrimary{deps},
			submitProfile{deps},
			createTrustProduct{deps},
			createComplianceEntity{deps},
			submitTrustProduct{deps},
			createBrand{deps},
			createCampaign{deps},
		},
	}
}

// Register validates the business facts, then runs every incomplete step in
// order, persisting each handle immediately after its step succeeds.
//
// Validation failures abort before any external call; a vendor failure on a
// primary creation step aborts the run and surfaces the vendor error, but
// handles persisted by earlier steps remain valid for the next attempt.
func (o *Orchestrator) Register(ctx context.Context, tenantID id.TenantID, facts models.BusinessFacts) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "registration.Register",
		trace.WithAttributes(attribute.String("tenant_id", tenantID.String())))
	defer span.End()

	start := time.Now()
	if o.metrics != nil {
		o.metrics.RegistrationsStarted.Inc()
		defer o.metrics.ObserveRegister(start)
	}

	facts.Normalize()
	if err := facts.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	release, err := o.locks.Acquire(ctx, tenantID, lockTTL)
	if err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			return nil, dErrors.New(dErrors.CodeConflict, "a registration for this tenant is already in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not acquire registration lock")
	}
	defer release()

	p, err := o.store.UpsertFacts(ctx, tenantID, facts)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist registration profile")
	}

	// Short-circuit: a fully registered tenant only needs the service check.
	if err := o.runStep(ctx, p, o.steps[0]); err != nil {
		return nil, err
	}
	if p.BrandID != "" && p.CampaignID != "" {
		return resultOf(p), nil
	}

	for _, st := range o.steps[1:] {
		if err := o.runStep(ctx, p, st); err != nil {
			span.SetStatus(codes.Error, "step failed")
			span.SetAttributes(attribute.String("failed_step", st.Name()))
			return nil, err
		}
	}

	o.recordProgress(ctx, p)
	if err := o.store.SetLastError(ctx, tenantID, ""); err != nil {
		o.logger.WarnContext(ctx, "could not clear last error",
			"tenant_id", tenantID.String(), "error", err)
	}
	if o.metrics != nil {
		o.metrics.RegistrationsCompleted.Inc()
	}
	return resultOf(p), nil
}

func (o *Orchestrator) runStep(ctx context.Context, p *models.RegistrationProfile, st Step) error {
	if st.Done(p) {
		return nil
	}

	field, value, err := st.Execute(ctx, p)
	if err != nil {
		if isBestEffort(st) {
			// The authority may already have this queued from a previous
			// attempt; submission triggers never block brand/campaign work.
			o.logger.WarnContext(ctx, "best-effort step failed",
				"tenant_id", p.TenantID.String(),
				"step", st.Name(),
				"error", err,
			)
			return nil
		}
		if o.metrics != nil {
			o.metrics.StepVendorErrors.WithLabelValues(st.Name()).Inc()
		}
		if serr := o.store.SetLastError(ctx, p.TenantID, st.Name()+": "+err.Error()); serr != nil {
			o.logger.WarnContext(ctx, "could not record step error",
				"tenant_id", p.TenantID.String(), "error", serr)
		}
		var vendorErr *compliance.VendorError
		if errors.As(err, &vendorErr) {
			return dErrors.Wrap(err, dErrors.CodeVendor, "registration step "+st.Name()+" was rejected")
		}
		return dErrors.Wrap(err, dErrors.CodeVendor, "registration step "+st.Name()+" failed")
	}

	if field == "" {
		return nil
	}

	// Persist before moving on; a crash after this point is resumable. The
	// store hands back the winning value if a concurrent run got there first.
	stored, err := o.store.SetHandle(ctx, p.TenantID, field, value)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not persist handle for step "+st.Name())
	}
	if stored != value {
		o.logger.WarnContext(ctx, "handle already set by concurrent run, adopting stored value",
			"tenant_id", p.TenantID.String(),
			"step", st.Name(),
			"field", string(field),
		)
	}
	p.SetHandle(field, stored)
	return nil
}

// recordProgress upgrades the coarse registration status to match the
// handles just created. It only ever moves forward; observed vendor state,
// including rejection, belongs to the reconciler.
func (o *Orchestrator) recordProgress(ctx context.Context, p *models.RegistrationProfile) {
	if p.RegistrationStatus == models.RegistrationRejected {
		return
	}
	next := p.RegistrationStatus
	switch {
	case p.CampaignID != "":
		next = models.RegistrationCampaignSubmitted
	case p.BrandID != "":
		next = models.RegistrationBrandSubmitted
	case p.SecondaryProfileID != "":
		next = models.RegistrationProfileCreated
	}
	if stageRank(next) <= stageRank(p.RegistrationStatus) {
		return
	}
	update := store.StatusUpdate{
		BrandStatus:        p.BrandStatus,
		BrandFailureDetail: p.BrandFailureDetail,
		CampaignStatus:     p.CampaignStatus,
		RegistrationStatus: next,
		ApplicationStatus:  models.ApplicationPending,
		MessagingReady:     false,
		DeclinedReason:     p.DeclinedReason,
		LastSyncedAt:       requestcontext.Now(ctx),
	}
	if err := o.store.UpdateStatus(ctx, p.TenantID, update); err != nil {
		o.logger.WarnContext(ctx, "could not record registration progress",
			"tenant_id", p.TenantID.String(), "error", err)
		return
	}
	p.RegistrationStatus = next
	p.ApplicationStatus = models.ApplicationPending
}

var stageRanks = map[models.RegistrationStatus]int{
	models.RegistrationNotStarted:        0,
	models.RegistrationProfileCreated:    1,
	models.RegistrationBrandSubmitted:    2,
	models.RegistrationBrandApproved:     3,
	models.RegistrationCampaignSubmitted: 4,
	models.RegistrationCampaignApproved:  5,
	models.RegistrationReady:             6,
}

func stageRank(s models.RegistrationStatus) int {
	return stageRanks[s]
}

func resultOf(p *models.RegistrationProfile) *Result {
	return &Result{
		MessagingServiceID: p.MessagingServiceID,
		BrandID:            p.BrandID,
		CampaignID:         p.CampaignID,
	}
}
