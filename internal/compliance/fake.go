package compliance

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a deterministic in-memory Client for tests and local development.
//
// Every operation records a call count keyed by operation name, and any
// operation can be scripted to fail via FailOn. Created object IDs are
// sequential per kind so tests can assert exact values.
type Fake struct {
	mu     sync.Mutex
	seq    map[string]int
	calls  map[string]int
	failOn map[string]error

	// PrimaryProfileStatus is returned by FetchProfileStatus for any profile
	// ID not created through this fake (i.e. the platform's primary profile).
	PrimaryProfileStatus string

	// Brand and Campaign hold the statuses returned by the fetch operations.
	Brand    BrandStatus
	Campaign string

	Senders []Sender

	created map[string]string // object id -> kind
}

func NewFake() *Fake {
	return &Fake{
		seq:                  make(map[string]int),
		calls:                make(map[string]int),
		failOn:               make(map[string]error),
		created:              make(map[string]string),
		PrimaryProfileStatus: "in_review",
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failOn, op)
		return
	}
	f.failOn[op] = err
}

// Calls returns how many times the named operation ran.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *Fake) nextID(kind, prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq[kind]++
	id := fmt.Sprintf("%s%04d", prefix, f.seq[kind])
	f.created[id] = kind
	return id
}

func (f *Fake) CreateSecondaryProfile(_ context.Context, _ CreateProfileParams) (string, error) {
	if err := f.enter("CreateSecondaryProfile"); err != nil {
		return "", err
	}
	return f.nextID("profile", "BU"), nil
}

func (f *Fake) CreateEndUser(_ context.Context, params EndUserParams) (string, error) {
	if err := f.enter("CreateEndUser:" + params.Type); err != nil {
		return "", err
	}
	return f.nextID("end_user", "IT"), nil
}

func (f *Fake) AttachEntityToProfile(_ context.Context, _, _ string) error {
	return f.enter("AttachEntityToProfile")
}

func (f *Fake) AttachEntityToTrustProduct(_ context.Context, _, _ string) error {
	return f.enter("AttachEntityToTrustProduct")
}

func (f *Fake) FetchProfileStatus(_ context.Context, profileID string) (string, error) {
	if err := f.enter("FetchProfileStatus"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.created[profileID]; ok {
		return "in_review", nil
	}
	return f.PrimaryProfileStatus, nil
}

func (f *Fake) EvaluateAndSubmitProfile(_ context.Context, _ string) error {
	return f.enter("EvaluateAndSubmitProfile")
}

func (f *Fake) EvaluateAndSubmitTrustProduct(_ context.Context, _ string) error {
	return f.enter("EvaluateAndSubmitTrustProduct")
}

func (f *Fake) CreateTrustProduct(_ context.Context, _ CreateTrustProductParams) (string, error) {
	if err := f.enter("CreateTrustProduct"); err != nil {
		return "", err
	}
	return f.nextID("trust_product", "BU"), nil
}

func (f *Fake) CreateBrandRegistration(_ context.Context, _, _ string) (string, error) {
	if err := f.enter("CreateBrandRegistration"); err != nil {
		return "", err
	}
	return f.nextID("brand", "BN"), nil
}

func (f *Fake) FetchBrandStatus(_ context.Context, _ string) (BrandStatus, error) {
	if err := f.enter("FetchBrandStatus"); err != nil {
		return BrandStatus{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Brand, nil
}

func (f *Fake) CreateMessagingService(_ context.Context, _ MessagingServiceParams) (string, error) {
	if err := f.enter("CreateMessagingService"); err != nil {
		return "", err
	}
	return f.nextID("messaging_service", "MG"), nil
}

func (f *Fake) CreateCampaign(_ context.Context, _ CampaignParams) (string, error) {
	if err := f.enter("CreateCampaign"); err != nil {
		return "", err
	}
	return f.nextID("campaign", "CM"), nil
}

func (f *Fake) FetchCampaignStatus(_ context.Context, _, _ string) (string, error) {
	if err := f.enter("FetchCampaignStatus"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Campaign, nil
}

func (f *Fake) ListAttachedSenders(_ context.Context, _ string) ([]Sender, error) {
	if err := f.enter("ListAttachedSenders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sender(nil), f.Senders...), nil
}

// SetBrand scripts the brand status returned by FetchBrandStatus.
func (f *Fake) SetBrand(status string, details ...FailureDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Brand = BrandStatus{Status: status, FailureDetails: details}
}

// SetCampaign scripts the campaign status returned by FetchCampaignStatus.
func (f *Fake) SetCampaign(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Campaign = status
}

var _ Client = (*Fake)(nil)
