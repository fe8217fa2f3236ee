// Package compliance wraps the external carrier-compliance authority.
//
// The Client interface is a pure I/O adapter: no business logic, no retries,
// no status interpretation. The registration saga and the status reconciler
// own all of that. Implementations: HTTPClient (resty) for production, Fake
// for tests and local development.
package compliance

import (
	"context"
	"fmt"
)

// CreateProfileParams creates a tenant-scoped secondary profile.
type CreateProfileParams struct {
	FriendlyName      string
	NotifyEmail       string
	PolicyID          string
	StatusCallbackURL string
}

// EndUserParams creates an end-user entity to attach to a profile or trust
// product. Attributes carry the type-specific payload (business facts,
// representative identity, messaging use-case details).
type EndUserParams struct {
	Type         string
	FriendlyName string
	Attributes   map[string]any
}

// CreateTrustProductParams creates a messaging-use-case trust product.
type CreateTrustProductParams struct {
	FriendlyName      string
	NotifyEmail       string
	PolicyID          string
	StatusCallbackURL string
}

// MessagingServiceParams creates the sending infrastructure object that
// phone numbers and the campaign attach to.
type MessagingServiceParams struct {
	FriendlyName      string
	InboundURL        string
	StatusCallbackURL string
}

// CampaignParams registers a messaging campaign against a brand and service.
type CampaignParams struct {
	MessagingServiceID string
	BrandID            string
	UseCaseCode        string
	Description        string
	MessageFlow        string
	SampleMessages     []string
}

// FailureDetail is one structured item from a brand failure report.
type FailureDetail struct {
	Code        string `json:"code"`
	Field       string `json:"field"`
	Description string `json:"description"`
}

// BrandStatus is the authority's current view of a brand registration.
type BrandStatus struct {
	Status         string          `json:"status"`
	FailureDetails []FailureDetail `json:"failure_details"`
}

// Sender is a phone number attached to a messaging service.
type Sender struct {
	SenderID    string `json:"sender_id"`
	PhoneNumber string `json:"phone_number"`
}

// Client is the typed surface of the compliance authority's API.
//
// All calls are blocking and unretried; the caller (a user action or the
// scheduled sweep) is the retry mechanism.
type Client interface {
	CreateSecondaryProfile(ctx context.Context, params CreateProfileParams) (string, error)
	CreateEndUser(ctx context.Context, params EndUserParams) (string, error)
	AttachEntityToProfile(ctx context.Context, profileID, entityID string) error
	AttachEntityToTrustProduct(ctx context.Context, productID, entityID string) error
	FetchProfileStatus(ctx context.Context, profileID string) (string, error)
	EvaluateAndSubmitProfile(ctx context.Context, profileID string) error
	EvaluateAndSubmitTrustProduct(ctx context.Context, productID string) error
	CreateTrustProduct(ctx context.Context, params CreateTrustProductParams) (string, error)
	CreateBrandRegistration(ctx context.Context, profileID, productID string) (string, error)
	FetchBrandStatus(ctx context.Context, brandID string) (BrandStatus, error)
	CreateMessagingService(ctx context.Context, params MessagingServiceParams) (string, error)
	CreateCampaign(ctx context.Context, params CampaignParams) (string, error)
	FetchCampaignStatus(ctx context.Context, serviceID, campaignID string) (string, error)
	ListAttachedSenders(ctx context.Context, serviceID string) ([]Sender, error)
}

// VendorError is an explicit rejection from the authority, as opposed to a
// transport failure. The reconciler treats only transport failures as
// "unverified"; a VendorError on a creation step surfaces to the caller.
type VendorError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *VendorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vendor rejected request (%d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("vendor rejected request (%d): %s", e.StatusCode, e.Message)
}
