package saga

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sendcore/internal/compliance"
	"sendcore/internal/registration/models"
	"sendcore/internal/registration/status"
)

// Config carries the platform-level identifiers the saga needs: the
// operator's own (primary) compliance profile, the policy IDs the authority
// assigns per object kind, and the callback URLs baked into created objects.
type Config struct {
	PrimaryProfileID     string
	ProfilePolicyID      string
	TrustProductPolicyID string
	NotifyEmail          string
	StatusCallbackURL    string
	InboundMessageURL    string
}

// End-user entity types defined by the compliance authority.
const (
	endUserTypeBusinessInfo     = "customer_profile_business_information"
	endUserTypeAuthorizedRep    = "authorized_representative_1"
	endUserTypeMessagingProfile = "us_a2p_messaging_profile_information"
)

// Campaign description bounds imposed by the authority.
const (
	descriptionMin = 40
	descriptionMax = 4096
	// descriptionFiller pads under-length descriptions with compliant text.
	descriptionFiller = " Customers receive order updates and appointment reminders after explicitly opting in."
)

type stepDeps struct {
	client compliance.Client
	cfg    Config
	logger *slog.Logger
}

// --- step 2: ensure a messaging-capable service exists ---

type ensureMessagingService struct{ *stepDeps }

func (s ensureMessagingService) Name() string { return "create_messaging_service" }

func (s ensureMessagingService) Done(p *models.RegistrationProfile) bool {
	return p.MessagingServiceID != ""
}

func (s ensureMessagingService) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	serviceID, err := s.client.CreateMessagingService(ctx, compliance.MessagingServiceParams{
		FriendlyName:      p.Facts.BusinessName + " A2P",
		InboundURL:        s.cfg.InboundMessageURL,
		StatusCallbackURL: s.cfg.StatusCallbackURL,
	})
	if err != nil {
		return "", "", err
	}
	return models.FieldMessagingServiceID, serviceID, nil
}

// --- step 3: tenant-scoped secondary compliance profile ---

type createSecondaryProfile struct{ *stepDeps }

func (s createSecondaryProfile) Name() string { return "create_secondary_profile" }

func (s createSecondaryProfile) Done(p *models.RegistrationProfile) bool {
	return p.SecondaryProfileID != ""
}

func (s createSecondaryProfile) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	profileID, err := s.client.CreateSecondaryProfile(ctx, compliance.CreateProfileParams{
		FriendlyName:      p.Facts.BusinessName,
		NotifyEmail:       s.cfg.NotifyEmail,
		PolicyID:          s.cfg.ProfilePolicyID,
		StatusCallbackURL: s.cfg.StatusCallbackURL,
	})
	if err != nil {
		return "", "", err
	}
	return models.FieldSecondaryProfileID, profileID, nil
}

// --- step 4: business information entity ---

type createBusinessEntity struct{ *stepDeps }

func (s createBusinessEntity) Name() string { return "create_business_entity" }

func (s createBusinessEntity) Done(p *models.RegistrationProfile) bool {
	return p.BusinessEntityID != ""
}

func (s createBusinessEntity) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	entityID, err := s.client.CreateEndUser(ctx, compliance.EndUserParams{
		Type:         endUserTypeBusinessInfo,
		FriendlyName: p.Facts.BusinessName + " business information",
		Attributes: map[string]any{
			"business_name":              p.Facts.BusinessName,
			"business_registration_id":   p.Facts.EIN,
			"business_registration_type": "EIN",
			"website_url":                p.Facts.Website,
			"business_address":           p.Facts.Address,
		},
	})
	if err != nil {
		return "", "", err
	}
	if err := s.client.AttachEntityToProfile(ctx, p.SecondaryProfileID, entityID); err != nil {
		return "", "", err
	}
	return models.FieldBusinessEntityID, entityID, nil
}

// --- step 5: authorized representative entity ---

type createAuthorizedRep struct{ *stepDeps }

func (s createAuthorizedRep) Name() string { return "create_authorized_rep" }

func (s createAuthorizedRep) Done(p *models.RegistrationProfile) bool {
	return p.AuthorizedRepEntityID != ""
}

func (s createAuthorizedRep) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	entityID, err := s.client.CreateEndUser(ctx, compliance.EndUserParams{
		Type:         endUserTypeAuthorizedRep,
		FriendlyName: p.Facts.ContactName,
		Attributes: map[string]any{
			"first_name":     firstWord(p.Facts.ContactName),
			"last_name":      lastWord(p.Facts.ContactName),
			"email":          p.Facts.ContactEmail,
			"phone_number":   p.Facts.ContactPhone,
			"business_title": "Owner",
		},
	})
	if err != nil {
		return "", "", err
	}
	if err := s.client.AttachEntityToProfile(ctx, p.SecondaryProfileID, entityID); err != nil {
		return "", "", err
	}
	return models.FieldAuthorizedRepEntityID, entityID, nil
}

// --- step 6: attach the secondary profile to the platform's primary ---

type assignToPrimary struct{ *stepDeps }

func (s assignToPrimary) Name() string { return "assign_to_primary" }

func (s assignToPrimary) Done(p *models.RegistrationProfile) bool {
	return p.AssignedToPrimary
}

func (s assignToPrimary) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	// A fully approved primary profile may reject new attachments. Check
	// first and skip with a warning rather than fail the whole saga.
	primaryStatus, err := s.client.FetchProfileStatus(ctx, s.cfg.PrimaryProfileID)
	if err == nil && status.Classify(primaryStatus) == status.ClassApproved {
		s.logger.WarnContext(ctx, "primary profile already approved, skipping attachment",
			"tenant_id", p.TenantID.String(),
			"primary_status", primaryStatus,
		)
		return models.FieldAssignedToPrimary, "true", nil
	}
	if err := s.client.AttachEntityToProfile(ctx, s.cfg.PrimaryProfileID, p.SecondaryProfileID); err != nil {
		return "", "", err
	}
	return models.FieldAssignedToPrimary, "true", nil
}

// --- step 7: evaluate + submit the secondary profile (best-effort) ---

type submitProfile struct{ *stepDeps }

func (s submitProfile) Name() string { return "submit_profile" }

func (s submitProfile) Done(*models.RegistrationProfile) bool { return false }

func (s submitProfile) BestEffort() {}

func (s submitProfile) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	return "", "", s.client.EvaluateAndSubmitProfile(ctx, p.SecondaryProfileID)
}

// --- step 8: messaging-use-case trust product ---

type createTrustProduct struct{ *stepDeps }

func (s createTrustProduct) Name() string { return "create_trust_product" }

func (s createTrustProduct) Done(p *models.RegistrationProfile) bool {
	return p.TrustProductID != ""
}

func (s createTrustProduct) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	productID, err := s.client.CreateTrustProduct(ctx, compliance.CreateTrustProductParams{
		FriendlyName:      p.Facts.BusinessName + " messaging",
		NotifyEmail:       s.cfg.NotifyEmail,
		PolicyID:          s.cfg.TrustProductPolicyID,
		StatusCallbackURL: s.cfg.StatusCallbackURL,
	})
	if err != nil {
		return "", "", err
	}
	return models.FieldTrustProductID, productID, nil
}

// --- step 9: messaging profile information entity ---

type createComplianceEntity struct{ *stepDeps }

func (s createComplianceEntity) Name() string { return "create_compliance_entity" }

func (s createComplianceEntity) Done(p *models.RegistrationProfile) bool {
	return p.ComplianceEntityID != ""
}

func (s createComplianceEntity) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	entityID, err := s.client.CreateEndUser(ctx, compliance.EndUserParams{
		Type:         endUserTypeMessagingProfile,
		FriendlyName: p.Facts.BusinessName + " messaging profile",
		Attributes: map[string]any{
			"description":     p.Facts.OptInDescription,
			"message_volume":  p.Facts.Volume,
			"use_case":        p.Facts.UseCaseCode,
			"message_samples": p.Facts.SampleMessages,
		},
	})
	if err != nil {
		return "", "", err
	}
	// This entity must be visible from both bundles.
	if err := s.client.AttachEntityToTrustProduct(ctx, p.TrustProductID, entityID); err != nil {
		return "", "", err
	}
	if err := s.client.AttachEntityToProfile(ctx, p.SecondaryProfileID, entityID); err != nil {
		return "", "", err
	}
	return models.FieldComplianceEntityID, entityID, nil
}

// --- step 10: evaluate + submit the trust product (best-effort) ---

type submitTrustProduct struct{ *stepDeps }

func (s submitTrustProduct) Name() string { return "submit_trust_product" }

func (s submitTrustProduct) Done(*models.RegistrationProfile) bool { return false }

func (s submitTrustProduct) BestEffort() {}

func (s submitTrustProduct) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	return "", "", s.client.EvaluateAndSubmitTrustProduct(ctx, p.TrustProductID)
}

// --- step 11: brand registration ---

type createBrand struct{ *stepDeps }

func (s createBrand) Name() string { return "create_brand" }

func (s createBrand) Done(p *models.RegistrationProfile) bool {
	return p.BrandID != ""
}

func (s createBrand) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	brandID, err := s.client.CreateBrandRegistration(ctx, p.SecondaryProfileID, p.TrustProductID)
	if err != nil {
		return "", "", err
	}
	return models.FieldBrandID, brandID, nil
}

// --- step 12: campaign registration ---

type createCampaign struct{ *stepDeps }

func (s createCampaign) Name() string { return "create_campaign" }

func (s createCampaign) Done(p *models.RegistrationProfile) bool {
	return p.CampaignID != ""
}

func (s createCampaign) Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error) {
	campaignID, err := s.client.CreateCampaign(ctx, compliance.CampaignParams{
		MessagingServiceID: p.MessagingServiceID,
		BrandID:            p.BrandID,
		UseCaseCode:        p.Facts.UseCaseCode,
		Description:        BuildCampaignDescription(p.Facts),
		MessageFlow:        p.Facts.OptInDescription,
		SampleMessages:     p.Facts.SampleMessages,
	})
	if err != nil {
		return "", "", err
	}
	return models.FieldCampaignID, campaignID, nil
}

// BuildCampaignDescription composes the campaign's use-case description and
// enforces the authority's length bounds: trim to the maximum, pad to the
// minimum with a generic compliant filler sentence.
func BuildCampaignDescription(facts models.BusinessFacts) string {
	desc := strings.TrimSpace(fmt.Sprintf("%s sends %s messages to opted-in contacts. %s",
		facts.BusinessName, useCaseLabel(facts.UseCaseCode), facts.OptInDescription))
	for len(desc) < descriptionMin {
		desc += descriptionFiller
	}
	if len(desc) > descriptionMax {
		desc = desc[:descriptionMax]
	}
	return desc
}

func useCaseLabel(code string) string {
	if code == "" {
		return "customer care"
	}
	return strings.ToLower(strings.ReplaceAll(code, "_", " "))
}

func firstWord(s string) string {
	if parts := strings.Fields(s); len(parts) > 0 {
		return parts[0]
	}
	return s
}

func lastWord(s string) string {
	if parts := strings.Fields(s); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return s
}
