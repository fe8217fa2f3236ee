package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	id "sendcore/pkg/domain"
	"sendcore/pkg/testutil"

	"sendcore/internal/billing"
	"sendcore/internal/compliance"
	"sendcore/internal/events"
	"sendcore/internal/notify"
	platformmw "sendcore/internal/platform/middleware"
	"sendcore/internal/registration/lock"
	"sendcore/internal/registration/models"
	"sendcore/internal/registration/reconciler"
	"sendcore/internal/registration/saga"
	"sendcore/internal/registration/store"
)

const cronSecret = "cron-secret-for-tests"

type HandlerSuite struct {
	suite.Suite
	ctx      context.Context
	fake     *compliance.Fake
	store    *store.InMemory
	router   chi.Router
	tenantID id.TenantID
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.fake = compliance.NewFake()
	s.store = store.NewInMemory()
	s.tenantID = id.NewTenantID()
	logger := testutil.Logger()

	orch := saga.New(s.fake, s.store, lock.NewInMemory(), saga.Config{
		PrimaryProfileID: "BU_PRIMARY",
		NotifyEmail:      "compliance@sendcore.example",
	}, logger, nil)
	rec := reconciler.New(s.fake, s.store, notify.NewLogNotifier(logger),
		billing.NewNoopCharger(logger), events.NewMemory(), logger, nil, reconciler.SweepConfig{})
	h := New(orch, rec, s.store, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(platformmw.RequireTenant(logger))
		h.Register(r)
	})
	r.Group(func(r chi.Router) {
		h.RegisterCallback(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(platformmw.RequireCronKey(cronSecret, logger))
		h.RegisterSync(r)
	})
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) registerBody() RegisterRequest {
	return RegisterRequest{
		BusinessName:     "Acme Dental",
		EIN:              "12-3456789",
		Website:          "https://acmedental.example",
		Address:          "100 Main St, Springfield IL 62701",
		ContactName:      "Dana Smith",
		ContactEmail:     "dana@acmedental.example",
		ContactPhone:     "+13125550142",
		SampleMessages:   []string{"Your appointment is tomorrow at 2pm.", "Reply YES to confirm."},
		OptInDescription: "Patients opt in on the intake form during their first visit.",
		Volume:           "1000",
		UseCaseCode:      "MIXED",
	}
}

func (s *HandlerSuite) TestRegister() {
	s.Run("happy path returns the handle set", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/register", s.registerBody())
		req.Header.Set("X-Tenant-ID", s.tenantID.String())

		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

		resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
		s.Equal("MG0001", resp.MessagingServiceID)
		s.Equal("BN0001", resp.BrandID)
		s.Equal("CM0001", resp.CampaignID)
	})

	s.Run("missing tenant header is unauthorized", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/register", s.registerBody())
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("malformed tenant header is a bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/register", s.registerBody())
		req.Header.Set("X-Tenant-ID", "not-a-uuid")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("invalid facts are rejected before any vendor call", func() {
		body := s.registerBody()
		body.EIN = "12345"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/register", body)
		req.Header.Set("X-Tenant-ID", id.NewTenantID().String())

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal(0, s.fake.Calls("CreateMessagingService"))
	})
}

func (s *HandlerSuite) TestStatus() {
	s.Run("unregistered tenant gets the cold-start snapshot", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/a2p/status")
		req.Header.Set("X-Tenant-ID", s.tenantID.String())

		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)

		resp := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)
		s.Equal(models.RegistrationNotStarted, resp.RegistrationStatus)
		s.False(resp.MessagingReady)
	})

	s.Run("registered tenant gets a live reconciled snapshot", func() {
		reg := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/register", s.registerBody())
		reg.Header.Set("X-Tenant-ID", s.tenantID.String())
		s.Require().Equal(http.StatusOK, testutil.DoRequest(s.router, reg).Code)

		s.fake.SetBrand("APPROVED")
		s.fake.SetCampaign("VERIFIED")

		req := testutil.NewRequest(s.T(), http.MethodGet, "/a2p/status")
		req.Header.Set("X-Tenant-ID", s.tenantID.String())
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)

		resp := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)
		s.True(resp.MessagingReady)
		s.Equal(models.ApplicationApproved, resp.ApplicationStatus)
	})
}

func (s *HandlerSuite) TestStatusCallback() {
	s.Run("brand failure callback declines the tenant", func() {
		reg := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/register", s.registerBody())
		reg.Header.Set("X-Tenant-ID", s.tenantID.String())
		s.Require().Equal(http.StatusOK, testutil.DoRequest(s.router, reg).Code)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/status-callback",
			StatusCallbackRequest{SID: "BN0001", Status: "FAILED"})
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusNoContent, rr.Code)

		p, err := s.store.Get(s.ctx, s.tenantID)
		s.Require().NoError(err)
		s.Equal(models.ApplicationDeclined, p.ApplicationStatus)
	})

	s.Run("unknown handle is acknowledged without effect", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/status-callback",
			StatusCallbackRequest{SID: "BN_UNKNOWN", Status: "approved"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("missing sid is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/a2p/status-callback",
			StatusCallbackRequest{Status: "approved"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestSync() {
	s.Run("missing cron key is unauthorized", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/a2p/sync")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("wrong cron key is unauthorized", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/a2p/sync?token=wrong")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("query token runs the sweep", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/a2p/sync?token="+cronSecret)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[SyncResponse](s.T(), rr)
		s.Equal(0, resp.Swept)
	})

	s.Run("header and bearer credentials are accepted", func() {
		for _, set := range []func(*http.Request){
			func(r *http.Request) { r.Header.Set("X-Cron-Token", cronSecret) },
			func(r *http.Request) { r.Header.Set("X-Cron-Key", cronSecret) },
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+cronSecret) },
		} {
			req := testutil.NewRequest(s.T(), http.MethodPost, "/a2p/sync")
			set(req)
			rr := testutil.DoRequest(s.router, req)
			s.Equal(http.StatusOK, rr.Code)
		}
	})
}
