//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"
	"sendcore/pkg/testutil/containers"

	"sendcore/internal/registration/models"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	store    *Postgres
	tenantID id.TenantID
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	pg := containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(pg.Pool)
	s.Require().NoError(s.store.Migrate(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.tenantID = id.NewTenantID()
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) facts() models.BusinessFacts {
	return models.BusinessFacts{
		BusinessName:     "Acme Dental",
		EIN:              "123456789",
		Website:          "https://acmedental.example",
		Address:          "100 Main St",
		ContactName:      "Dana Smith",
		ContactEmail:     "dana@acmedental.example",
		ContactPhone:     "+13125550142",
		SampleMessages:   []string{"hello", "world"},
		OptInDescription: "intake form",
		Volume:           "1000",
		UseCaseCode:      "MIXED",
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	_, err := s.store.Get(s.ctx, s.tenantID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	created, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)
	s.Equal(models.RegistrationNotStarted, created.RegistrationStatus)

	p, err := s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Equal("Acme Dental", p.Facts.BusinessName)
	s.Equal([]string{"hello", "world"}, p.Facts.SampleMessages)
}

func (s *PostgresStoreSuite) TestSetHandleIsWriteOnce() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	stored, err := s.store.SetHandle(s.ctx, s.tenantID, models.FieldBrandID, "BN0001")
	s.Require().NoError(err)
	s.Equal("BN0001", stored)

	stored, err = s.store.SetHandle(s.ctx, s.tenantID, models.FieldBrandID, "BN0002")
	s.Require().NoError(err)
	s.Equal("BN0001", stored, "losing write adopts the stored value")

	s.Run("boolean handle", func() {
		stored, err := s.store.SetHandle(s.ctx, s.tenantID, models.FieldAssignedToPrimary, "true")
		s.Require().NoError(err)
		s.Equal("true", stored)

		p, err := s.store.Get(s.ctx, s.tenantID)
		s.Require().NoError(err)
		s.True(p.AssignedToPrimary)
	})
}

func (s *PostgresStoreSuite) TestStatusLifecycle() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	syncedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.UpdateStatus(s.ctx, s.tenantID, StatusUpdate{
		BrandStatus:        "approved",
		CampaignStatus:     "verified",
		RegistrationStatus: models.RegistrationReady,
		ApplicationStatus:  models.ApplicationApproved,
		MessagingReady:     true,
		LastSyncedAt:       syncedAt,
	}))

	p, err := s.store.Get(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.True(p.MessagingReady)
	s.Equal(models.ApplicationApproved, p.ApplicationStatus)
	s.WithinDuration(syncedAt, p.LastSyncedAt, time.Second)
}

func (s *PostgresStoreSuite) TestMarkApprovalNotifiedFlipsOnce() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)

	first, err := s.store.MarkApprovalNotified(s.ctx, s.tenantID, time.Now().UTC())
	s.Require().NoError(err)
	s.True(first)

	second, err := s.store.MarkApprovalNotified(s.ctx, s.tenantID, time.Now().UTC())
	s.Require().NoError(err)
	s.False(second)
}

func (s *PostgresStoreSuite) TestFindByHandle() {
	_, err := s.store.UpsertFacts(s.ctx, s.tenantID, s.facts())
	s.Require().NoError(err)
	_, err = s.store.SetHandle(s.ctx, s.tenantID, models.FieldCampaignID, "CM-"+s.tenantID.String())
	s.Require().NoError(err)

	p, err := s.store.FindByHandle(s.ctx, models.FieldCampaignID, "CM-"+s.tenantID.String())
	s.Require().NoError(err)
	s.Equal(s.tenantID, p.TenantID)

	_, err = s.store.FindByHandle(s.ctx, models.FieldCampaignID, "CM-missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListUnfinished() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mk := func(status models.ApplicationStatus, syncedAt time.Time) id.TenantID {
		tenantID := id.NewTenantID()
		_, err := s.store.UpsertFacts(s.ctx, tenantID, s.facts())
		s.Require().NoError(err)
		s.Require().NoError(s.store.UpdateStatus(s.ctx, tenantID, StatusUpdate{
			ApplicationStatus: status,
			LastSyncedAt:      syncedAt,
		}))
		return tenantID
	}

	stale := mk(models.ApplicationPending, base.Add(-2*time.Hour))
	approved := mk(models.ApplicationApproved, base.Add(-3*time.Hour))
	fresh := mk(models.ApplicationPending, base)

	out, err := s.store.ListUnfinished(s.ctx, 50)
	s.Require().NoError(err)

	// Other suites leave unfinished rows behind, so assert relative order
	// among this test's tenants instead of absolute positions.
	pos := make(map[id.TenantID]int)
	for i, p := range out {
		pos[p.TenantID] = i
		s.NotEqual(models.ApplicationApproved, p.ApplicationStatus)
	}
	s.NotContains(pos, approved)
	s.Require().Contains(pos, stale)
	s.Require().Contains(pos, fresh)
	s.Less(pos[stale], pos[fresh], "stalest unfinished profile sorts first")
}
