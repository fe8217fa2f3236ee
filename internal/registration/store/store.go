// Package store persists registration profiles.
//
// The contract the rest of the module relies on: handle writes are
// set-if-absent and atomic per field, so concurrent saga runs for the same
// tenant converge on a single stored value instead of racing.
package store

import (
	"context"
	"time"

	id "sendcore/pkg/domain"

	"sendcore/internal/registration/models"
)

// StatusUpdate carries the reconciler's recomputed observed state. It is
// applied as a whole; handle fields are never touched by it.
type StatusUpdate struct {
	BrandStatus        string
	BrandFailureDetail string
	CampaignStatus     string
	RegistrationStatus models.RegistrationStatus
	ApplicationStatus  models.ApplicationStatus
	MessagingReady     bool
	DeclinedReason     string
	LastSyncedAt       time.Time
}

// ProfileStore is the persistence port for registration profiles.
//
// Get returns sentinel.ErrNotFound when no profile exists for the tenant.
type ProfileStore interface {
	Get(ctx context.Context, tenantID id.TenantID) (*models.RegistrationProfile, error)

	// UpsertFacts creates the profile on first submission or refreshes the
	// business facts on resubmission. Handles and observed state survive
	// resubmission untouched.
	UpsertFacts(ctx context.Context, tenantID id.TenantID, facts models.BusinessFacts) (*models.RegistrationProfile, error)

	// SetHandle stores a write-once handle if it is still unset and returns
	// the value that ended up stored. A caller whose write lost to a
	// concurrent writer receives the winner's value, not an error.
	SetHandle(ctx context.Context, tenantID id.TenantID, field models.Field, value string) (string, error)

	// UpdateStatus overwrites the observed-state fields and LastSyncedAt.
	UpdateStatus(ctx context.Context, tenantID id.TenantID, update StatusUpdate) error

	// SetLastError records the most recent vendor error from an orchestrator
	// step; an empty message clears it.
	SetLastError(ctx context.Context, tenantID id.TenantID, message string) error

	// MarkApprovalNotified sets the one-shot notification marker. Returns
	// true only for the caller that actually flipped it, which is how
	// concurrent sweeps avoid duplicate approval emails.
	MarkApprovalNotified(ctx context.Context, tenantID id.TenantID, at time.Time) (bool, error)

	// FindByHandle resolves a profile from an external handle value, used by
	// the vendor status callback which identifies tenants by their SIDs.
	FindByHandle(ctx context.Context, field models.Field, value string) (*models.RegistrationProfile, error)

	// ListUnfinished returns up to limit profiles whose application status is
	// not approved, least recently synced first. The cap bounds external API
	// volume per sweep; uncovered tenants are picked up next run.
	ListUnfinished(ctx context.Context, limit int) ([]*models.RegistrationProfile, error)
}
