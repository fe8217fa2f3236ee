package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"

	"sendcore/internal/registration/models"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx      context.Context
	store    *InMemory
	tenantID id.TenantID
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.tenantID = id.NewTenantID()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) facts() models.BusinessFacts {
	return models.BusinessFacts{
		BusinessName:   "Acme Dental",
		EIN:            "123456789",
		ContactEmail:   "dana@acmedental.example",
		SampleMessages: []string{"a", "b"},
	}
}

func (s *InMemoryStoreSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(s.ctx, s.tenantID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpsertFacts() {
	s.Run("creates profile with pending defaults", func() {
		p, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
		s.Require().NoError(err)
		s.Equal(models.RegistrationNotStarted, p.RegistrationStatus)
		s.Equal(models.ApplicationPending, p.ApplicationStatus)
		s.False(p.MessagingReady)
	})

	s.Run("resubmission refreshes facts but keeps handles", func() {
		_, err := s.store.SetHandle(s.ctx, s.tenantID, models.FieldBrandID, "BN0001")
		s.Require().NoError(err)

		facts := s.facts()
		facts.BusinessName = "Acme Dental Group"
		p, err := s.store.UpsertFacts(s.ctx, s.tenantID, facts)
		s.Require().NoError(err)
		s.Equal("Acme Dental Group", p.Facts.BusinessName)
		s.Equal("BN0001", p.BrandID)
	})
}

func (s *InMemoryStoreSuite) TestSetHandleIsWriteOnce() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	stored, err := s.store.SetHandle(s.ctx, s.tenantID, models.FieldBrandID, "BN0001")
	s.Require().NoError(err)
	s.Equal("BN0001", stored)

	// The second write loses and receives the winner's value.
	stored, err = s.store.SetHandle(s.ctx, s.tenantID, models.FieldBrandID, "BN0002")
	s.Require().NoError(err)
	s.Equal("BN0001", stored)

	p, err := s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Equal("BN0001", p.BrandID)
}

func (s *InMemoryStoreSuite) TestUpdateStatus() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	syncedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err = s.store.UpdateStatus(s.ctx, s.tenantID, StatusUpdate{
		BrandStatus:        "approved",
		CampaignStatus:     "pending",
		RegistrationStatus: models.RegistrationCampaignSubmitted,
		ApplicationStatus:  models.ApplicationPending,
		LastSyncedAt:       syncedAt,
	})
	s.Require().NoError(err)

	p, err := s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Equal("approved", p.BrandStatus)
	s.Equal("pending", p.CampaignStatus)
	s.Equal(models.RegistrationCampaignSubmitted, p.RegistrationStatus)
	s.Equal(syncedAt, p.LastSyncedAt)
}

func (s *InMemoryStoreSuite) TestSetLastError() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetLastError(s.ctx, s.tenantID, "vendor said no"))
	p, err := s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Equal("vendor said no", p.LastError)

	// Empty message clears.
	s.Require().NoError(s.store.SetLastError(s.ctx, s.tenantID, ""))
	p, err = s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Empty(p.LastError)
}

func (s *InMemoryStoreSuite) TestMarkApprovalNotifiedFlipsOnce() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := s.store.MarkApprovalNotified(s.ctx, s.tenantID, at)
	s.Require().NoError(err)
	s.True(first)

	second, err := s.store.MarkApprovalNotified(s.ctx, s.tenantID, at.Add(time.Hour))
	s.Require().NoError(err)
	s.False(second)

	p, err := s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Require().NotNil(p.ApprovalNotifiedAt)
	s.Equal(at, *p.ApprovalNotifiedAt)
}

func (s *InMemoryStoreSuite) TestFindByHandle() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)
	_, err = s.store.SetHandle(s.ctx, s.tenantID, models.FieldBrandID, "BN0042")
	s.Require().NoError(err)

	p, err := s.store.FindByHandle(s.ctx, models.FieldBrandID, "BN0042")
	s.Require().NoError(err)
	s.Equal(s.tenantID, p.TenantID)

	_, err = s.store.FindByHandle(s.ctx, models.FieldBrandID, "BN9999")
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Empty values never match anything, even freshly-created profiles
	// whose handles are all empty.
	_, err = s.store.FindByHandle(s.ctx, models.FieldCampaignID, "")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListUnfinished() {
	newTenant := func(status models.ApplicationStatus, syncedAt time.Time) id.TenantID {
		tenantID := id.NewTenantID()
		_, err := s.store.UpsertFacts(s.ctx, tenantID, s.facts())
		s.Require().NoError(err)
		s.Require().NoError(s.store.UpdateStatus(s.ctx, tenantID, StatusUpdate{
			ApplicationStatus: status,
			LastSyncedAt:      syncedAt,
		}))
		return tenantID
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := newTenant(models.ApplicationPending, base.Add(-2*time.Hour))
	fresh := newTenant(models.ApplicationPending, base)
	declined := newTenant(models.ApplicationDeclined, base.Add(-time.Hour))
	newTenant(models.ApplicationApproved, base.Add(-3*time.Hour))

	s.Run("approved tenants are excluded, stalest first", func() {
		out, err := s.store.ListUnfinished(s.ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(out, 3)
		s.Equal(stale, out[0].TenantID)
		s.Equal(declined, out[1].TenantID)
		s.Equal(fresh, out[2].TenantID)
	})

	s.Run("limit caps the batch", func() {
		out, err := s.store.ListUnfinished(s.ctx, 2)
		s.Require().NoError(err)
		s.Require().Len(out, 2)
		s.Equal(stale, out[0].TenantID)
	})
}
