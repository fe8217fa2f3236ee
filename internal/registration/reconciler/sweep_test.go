package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "sendcore/pkg/domain"
	"sendcore/pkg/testutil"

	"sendcore/internal/compliance"
	"sendcore/internal/events"
	"sendcore/internal/registration/models"
	"sendcore/internal/registration/store"
)

type SweepSuite struct {
	suite.Suite
	ctx      context.Context
	fake     *compliance.Fake
	store    *store.InMemory
	notifier *recordingNotifier
	charger  *recordingCharger
	rec      *Reconciler
}

func (s *SweepSuite) SetupTest() {
	s.ctx = context.Background()
	s.fake = compliance.NewFake()
	s.store = store.NewInMemory()
	s.notifier = &recordingNotifier{}
	s.charger = &recordingCharger{}
	s.rec = New(s.fake, s.store, s.notifier, s.charger, events.NewMemory(),
		testutil.Logger(), nil, SweepConfig{BatchSize: 10, Concurrency: 2})
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(SweepSuite))
}

// seedTenant creates a registered profile; brandID distinguishes tenants so
// sweeps exercise independent fetches.
func (s *SweepSuite) seedTenant(syncedAt time.Time) id.TenantID {
	tenantID := id.NewTenantID()
	_, err := s.store.UpsertFacts(s.ctx, tenantID, models.BusinessFacts{
		BusinessName: "Acme Dental",
		ContactEmail: "dana@acmedental.example",
	})
	s.Require().NoError(err)
	for field, value := range map[models.Field]string{
		models.FieldSecondaryProfileID: "BU-" + tenantID.String(),
		models.FieldMessagingServiceID: "MG-" + tenantID.String(),
		models.FieldBrandID:            "BN-" + tenantID.String(),
		models.FieldCampaignID:         "CM-" + tenantID.String(),
	} {
		_, err := s.store.SetHandle(s.ctx, tenantID, field, value)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.UpdateStatus(s.ctx, tenantID, store.StatusUpdate{
		RegistrationStatus: models.RegistrationCampaignSubmitted,
		ApplicationStatus:  models.ApplicationPending,
		LastSyncedAt:       syncedAt,
	}))
	return tenantID
}

func (s *SweepSuite) TestSweepOutcomes() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	approvedTenant := s.seedTenant(base.Add(-3 * time.Hour))
	s.seedTenant(base.Add(-2 * time.Hour))

	s.fake.SetBrand("APPROVED")
	s.fake.SetCampaign("VERIFIED")

	results, err := s.rec.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 2)

	byTenant := map[id.TenantID]SweepResult{}
	for _, res := range results {
		byTenant[res.TenantID] = res
	}
	s.Equal("approved", byTenant[approvedTenant].Outcome)
	s.Len(s.notifier.approvals, 2)
	s.Equal(2, s.charger.charges)

	// Newly approved tenants drop out of the next sweep entirely.
	results, err = s.rec.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Empty(results)
}

func (s *SweepSuite) TestSweepSendsDeclineNotice() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.seedTenant(base)
	s.fake.SetBrand("FAILED",
		compliance.FailureDetail{Description: "identity check failed"})
	s.fake.SetCampaign("PENDING")

	results, err := s.rec.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("declined", results[0].Outcome)
	s.Contains(results[0].Reason, "identity check failed")
	s.Require().Len(s.notifier.declines, 1)
	s.Contains(s.notifier.declines[0], "identity check failed")
}

func (s *SweepSuite) TestSweepRespectsBatchSize() {
	s.rec = New(s.fake, s.store, s.notifier, s.charger, events.NewMemory(),
		testutil.Logger(), nil, SweepConfig{BatchSize: 2, Concurrency: 2})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		s.seedTenant(base.Add(time.Duration(-i) * time.Hour))
	}
	s.fake.SetCampaign("PENDING")
	s.fake.SetBrand("PENDING")

	results, err := s.rec.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Len(results, 2)
}

func (s *SweepSuite) TestSweepSurvivesPerTenantErrors() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.seedTenant(base)
	s.seedTenant(base.Add(time.Minute))

	// Fetch failures do not abort the batch; axes simply stay unverified
	// and the pass reports pending.
	s.fake.FailOn("FetchBrandStatus", errors.New("upstream unavailable"))
	s.fake.FailOn("FetchCampaignStatus", errors.New("upstream unavailable"))

	results, err := s.rec.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	for _, res := range results {
		s.Equal("pending", res.Outcome)
	}
}
