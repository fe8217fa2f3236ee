// Package models defines the registration profile: the per-tenant record of
// an A2P 10DLC registration and everything observed about it since.
package models

import (
	"strings"
	"time"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"
)

// RegistrationStatus tracks progress through the registration pipeline.
type RegistrationStatus string

const (
	RegistrationNotStarted        RegistrationStatus = "not_started"
	RegistrationProfileCreated    RegistrationStatus = "profile_created"
	RegistrationBrandSubmitted    RegistrationStatus = "brand_submitted"
	RegistrationBrandApproved     RegistrationStatus = "brand_approved"
	RegistrationCampaignSubmitted RegistrationStatus = "campaign_submitted"
	RegistrationCampaignApproved  RegistrationStatus = "campaign_approved"
	RegistrationRejected          RegistrationStatus = "rejected"
	RegistrationReady             RegistrationStatus = "ready"
)

// ApplicationStatus is the tenant-facing summary of the registration.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationDeclined ApplicationStatus = "declined"
)

// Field names a write-once external handle on the profile. Handle fields are
// set at most once; once non-empty they are never cleared or replaced, which
// is what makes saga retries safe against duplicate entity creation.
type Field string

const (
	FieldSecondaryProfileID    Field = "secondary_profile_id"
	FieldBusinessEntityID      Field = "business_entity_id"
	FieldAuthorizedRepEntityID Field = "authorized_rep_entity_id"
	FieldAssignedToPrimary     Field = "assigned_to_primary"
	FieldTrustProductID        Field = "trust_product_id"
	FieldComplianceEntityID    Field = "compliance_entity_id"
	FieldBrandID               Field = "brand_id"
	FieldMessagingServiceID    Field = "messaging_service_id"
	FieldCampaignID            Field = "campaign_id"
)

// HandleFields lists every write-once handle in saga order.
var HandleFields = []Field{
	FieldMessagingServiceID,
	FieldSecondaryProfileID,
	FieldBusinessEntityID,
	FieldAuthorizedRepEntityID,
	FieldAssignedToPrimary,
	FieldTrustProductID,
	FieldComplianceEntityID,
	FieldBrandID,
	FieldCampaignID,
}

// BusinessFacts carries the tenant-supplied business identity and use-case
// declaration. Normalize before Validate.
type BusinessFacts struct {
	BusinessName     string   `json:"business_name"`
	EIN              string   `json:"ein"`
	Website          string   `json:"website"`
	Address          string   `json:"address"`
	ContactName      string   `json:"contact_name"`
	ContactEmail     string   `json:"contact_email"`
	ContactPhone     string   `json:"contact_phone"`
	SampleMessages   []string `json:"sample_messages"`
	OptInDescription string   `json:"opt_in_description"`
	Volume           string   `json:"volume"`
	UseCaseCode      string   `json:"use_case_code"`
}

// Normalize canonicalizes fields in place. EIN keeps digits only so
// "12-3456789", "123456789" and "123 456 789" all compare equal.
func (f *BusinessFacts) Normalize() {
	f.BusinessName = strings.TrimSpace(f.BusinessName)
	f.EIN = digitsOnly(f.EIN)
	f.Website = strings.TrimSpace(f.Website)
	f.Address = strings.TrimSpace(f.Address)
	f.ContactName = strings.TrimSpace(f.ContactName)
	f.ContactEmail = strings.TrimSpace(f.ContactEmail)
	f.ContactPhone = strings.TrimSpace(f.ContactPhone)
	f.OptInDescription = strings.TrimSpace(f.OptInDescription)

	samples := f.SampleMessages[:0]
	for _, s := range f.SampleMessages {
		if s = strings.TrimSpace(s); s != "" {
			samples = append(samples, s)
		}
	}
	f.SampleMessages = samples
}

// Validate enforces the input contract before any external call is made, so
// a validation failure can never leave partial side effects.
func (f *BusinessFacts) Validate() error {
	if f.BusinessName == "" {
		return dErrors.New(dErrors.CodeBadRequest, "business name is required")
	}
	if len(f.EIN) != 9 {
		return dErrors.New(dErrors.CodeBadRequest, "EIN must contain exactly 9 digits")
	}
	if f.Website == "" {
		return dErrors.New(dErrors.CodeBadRequest, "website is required")
	}
	if f.Address == "" {
		return dErrors.New(dErrors.CodeBadRequest, "business address is required")
	}
	if f.ContactName == "" || f.ContactEmail == "" || f.ContactPhone == "" {
		return dErrors.New(dErrors.CodeBadRequest, "contact name, email and phone are required")
	}
	if len(f.SampleMessages) < 2 {
		return dErrors.New(dErrors.CodeBadRequest, "at least 2 sample messages are required")
	}
	if f.OptInDescription == "" {
		return dErrors.New(dErrors.CodeBadRequest, "opt-in description is required")
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RegistrationProfile is the per-tenant registration record. It is created on
// first submission, grown incrementally by the orchestrator (handles) and
// refreshed repeatedly by the reconciler (status fields). It is never deleted
// in normal operation; it is the audit trail of the tenant's compliance
// history.
type RegistrationProfile struct {
	TenantID id.TenantID
	Facts    BusinessFacts

	// Write-once external handles, populated step by step by the saga.
	SecondaryProfileID    string
	BusinessEntityID      string
	AuthorizedRepEntityID string
	AssignedToPrimary     bool
	TrustProductID        string
	ComplianceEntityID    string
	BrandID               string
	MessagingServiceID    string
	CampaignID            string

	// Observed state, owned by the reconciler.
	BrandStatus        string
	BrandFailureDetail string
	CampaignStatus     string
	RegistrationStatus RegistrationStatus
	ApplicationStatus  ApplicationStatus
	MessagingReady     bool
	DeclinedReason     string
	LastError          string
	LastSyncedAt       time.Time
	ApprovalNotifiedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Handle returns the stored value of a write-once field, with booleans
// rendered as "true"/"" so the saga driver can treat all handles uniformly.
func (p *RegistrationProfile) Handle(f Field) string {
	switch f {
	case FieldSecondaryProfileID:
		return p.SecondaryProfileID
	case FieldBusinessEntityID:
		return p.BusinessEntityID
	case FieldAuthorizedRepEntityID:
		return p.AuthorizedRepEntityID
	case FieldAssignedToPrimary:
		if p.AssignedToPrimary {
			return "true"
		}
		return ""
	case FieldTrustProductID:
		return p.TrustProductID
	case FieldComplianceEntityID:
		return p.ComplianceEntityID
	case FieldBrandID:
		return p.BrandID
	case FieldMessagingServiceID:
		return p.MessagingServiceID
	case FieldCampaignID:
		return p.CampaignID
	}
	return ""
}

// SetHandle writes a handle value in memory. It does not enforce write-once
// semantics; that is the store's job. Unknown fields are ignored.
func (p *RegistrationProfile) SetHandle(f Field, v string) {
	switch f {
	case FieldSecondaryProfileID:
		p.SecondaryProfileID = v
	case FieldBusinessEntityID:
		p.BusinessEntityID = v
	case FieldAuthorizedRepEntityID:
		p.AuthorizedRepEntityID = v
	case FieldAssignedToPrimary:
		p.AssignedToPrimary = v == "true"
	case FieldTrustProductID:
		p.TrustProductID = v
	case FieldComplianceEntityID:
		p.ComplianceEntityID = v
	case FieldBrandID:
		p.BrandID = v
	case FieldMessagingServiceID:
		p.MessagingServiceID = v
	case FieldCampaignID:
		p.CampaignID = v
	}
}

// Clone returns a deep copy so store callers can mutate freely.
func (p *RegistrationProfile) Clone() *RegistrationProfile {
	cp := *p
	cp.Facts.SampleMessages = append([]string(nil), p.Facts.SampleMessages...)
	if p.ApprovalNotifiedAt != nil {
		t := *p.ApprovalNotifiedAt
		cp.ApprovalNotifiedAt = &t
	}
	return &cp
}
